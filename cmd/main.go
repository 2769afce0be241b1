// Package main provides the entry point for the vidgrab service.
// @title vidgrab API
// @version 1.0
// @description A Go-based microservice that resolves video quality options and prepares one-shot media downloads.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	_ "github.com/vidgrab/vidgrab/docs" // Import for swagger docs
	"github.com/vidgrab/vidgrab/internal/api/handlers"
	"github.com/vidgrab/vidgrab/internal/api/router"
	"github.com/vidgrab/vidgrab/internal/config"
	"github.com/vidgrab/vidgrab/internal/services/download"
	"github.com/vidgrab/vidgrab/internal/services/store"
	"github.com/vidgrab/vidgrab/internal/services/ytdlp"
	"github.com/vidgrab/vidgrab/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting vidgrab service")

	// Resolve the extraction engine once; the handle is shared by all
	// requests and immutable after init.
	engine, err := ytdlp.NewClient(&cfg.Extract)
	if err != nil {
		logger.Fatalf("Failed to initialize extraction engine: %v", err)
	}
	logger.Infof("Using extraction binary at %s", engine.BinaryPath())

	fs := afero.NewOsFs()

	// Initialize artifact store and its reaper
	artifactStore, err := store.NewStore(fs, cfg.Extract.TempDir, &cfg.Store)
	if err != nil {
		logger.Fatalf("Failed to initialize artifact store: %v", err)
	}
	artifactStore.StartReaper()

	// Initialize preparer service
	preparer := download.NewPreparer(fs, engine, &cfg.Extract)

	// Initialize handlers
	videoHandler := handlers.NewVideoHandler(engine, preparer, artifactStore)
	healthHandler := handlers.NewHealthHandler(engine, fs, cfg.Extract.TempDir)

	// Initialize router
	r := router.NewRouter(cfg, videoHandler, healthHandler)

	// Start server
	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	artifactStore.StopReaper()

	logger.Info("Server shutdown complete")
}
