package main

import (
	"github.com/sirupsen/logrus"

	"github.com/trackpoint-dev/locations-backend-go/internal/api"
	"github.com/trackpoint-dev/locations-backend-go/internal/config"
	"github.com/trackpoint-dev/locations-backend-go/internal/handler"
	"github.com/trackpoint-dev/locations-backend-go/internal/index"
	"github.com/trackpoint-dev/locations-backend-go/internal/logger"
	"github.com/trackpoint-dev/locations-backend-go/internal/service"
	"github.com/trackpoint-dev/locations-backend-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("configuration error: %v", err)
	}

	logger.Setup(cfg.LogPath)
	logrus.WithField("storage", cfg.StoragePath).Info("opening device log store")

	st := store.New(cfg.StoragePath)

	ix := index.New(st)
	if err := ix.Warm(); err != nil {
		logrus.Fatalf("failed to warm last-location index: %v", err)
	}

	ingest := service.NewIngestService(st, ix)
	query := service.NewQueryService(st, ix)
	stats := service.NewStatsService(query)

	locations := handler.NewLocationHandler(ingest, query, stats)
	router := api.SetupRouter(cfg, locations)

	logrus.WithField("bind", cfg.Bind).Info("server listening")
	if err := router.Run(cfg.Bind); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
