package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trackpoint-dev/locations-backend-go/internal/config"
	"github.com/trackpoint-dev/locations-backend-go/internal/handler"
	"github.com/trackpoint-dev/locations-backend-go/internal/middleware"
)

// SetupRouter wires the /api/0 surface onto the location handler.
func SetupRouter(cfg *config.Config, locations *handler.LocationHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/0")
	{
		api.POST("/pub",
			middleware.RateLimit(cfg.RateLimit, cfg.RateWindow),
			locations.Publish)

		api.GET("/last", locations.Last)
		api.GET("/locations", locations.Locations)
		api.GET("/list", locations.List)
		api.GET("/stats", locations.Stats)
		api.GET("/version", locations.Version)
	}

	return r
}
