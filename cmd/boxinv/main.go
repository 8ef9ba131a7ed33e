package main

import (
	"log"

	"github.com/jmhart/boxinv/internal/cloud"
	"github.com/jmhart/boxinv/internal/cloud/rest"
	"github.com/jmhart/boxinv/internal/config"
	"github.com/jmhart/boxinv/internal/db"
	"github.com/jmhart/boxinv/internal/imagestore/local"
	"github.com/jmhart/boxinv/internal/interchange"
	"github.com/jmhart/boxinv/internal/logging"
	"github.com/jmhart/boxinv/internal/service"
	"github.com/jmhart/boxinv/internal/store"
	"github.com/jmhart/boxinv/internal/web"
)

const appVersion = "1.0.0"

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	itemStore := store.NewItemStore(database)
	boxStore := store.NewBoxStore(database)
	refStore := store.NewRefStore(database)

	images, err := local.NewLocalImageStore(cfg.ImagePath)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return
	}

	exporter := interchange.NewExporter(itemStore, boxStore, refStore, images, appVersion, logger)
	importer := interchange.NewImporter(database, images, logger)

	var shares service.ShareCreator
	if cfg.CloudEndpoint != "" {
		client := rest.NewClient(cfg.CloudEndpoint, cfg.CloudContainer, cfg.CloudToken)
		shares = cloud.NewShareManager(client, cfg.CloudZone, logger)
		logger.Info("cloud sharing enabled", "container", cfg.CloudContainer, "zone", cfg.CloudZone)
	} else {
		logger.Info("cloud sharing disabled, CLOUD_ENDPOINT is not set")
	}

	svc := service.NewInventoryService(itemStore, boxStore, refStore, images,
		exporter, importer, shares, cfg.ExportDir, logger)
	server := web.NewServer(svc, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
