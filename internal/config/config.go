package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the validated runtime configuration of the server.
type Config struct {
	StoragePath string        // root directory of the device log store
	Bind        string        // listen address
	LogPath     string        // rotating log file
	RateLimit   int           // ingest requests per client per window
	RateWindow  time.Duration // ingest rate-limit window
}

// Load reads configuration from the environment (and .env if present) and
// validates it. The storage root is created if absent and must be writable;
// anything else is a fatal configuration error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoragePath: getEnv("STORAGE_PATH", "./store"),
		Bind:        getEnv("BIND", ":3000"),
		LogPath:     getEnv("LOG_PATH", "./logs/app.log"),
		RateLimit:   100,
		RateWindow:  time.Minute,
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q", v)
		}
		cfg.RateLimit = limit
	}
	if v := os.Getenv("RATE_WINDOW"); v != "" {
		window, err := time.ParseDuration(v)
		if err != nil || window <= 0 {
			return nil, fmt.Errorf("invalid RATE_WINDOW %q", v)
		}
		cfg.RateWindow = window
	}

	if err := ensureWritableDir(cfg.StoragePath); err != nil {
		return nil, fmt.Errorf("storage path %q: %w", cfg.StoragePath, err)
	}
	return cfg, nil
}

// ensureWritableDir creates the directory if needed and proves it is
// writable by creating and removing a probe file.
func ensureWritableDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}

	probe, err := os.CreateTemp(path, ".probe-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// getEnv reads an environment variable or returns the provided default.
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
