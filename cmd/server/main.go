package main

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/cdennis121/Shipyard/internal/config"
	"github.com/cdennis121/Shipyard/internal/database"
	"github.com/cdennis121/Shipyard/internal/logger"
	"github.com/cdennis121/Shipyard/internal/server"
	"github.com/cdennis121/Shipyard/internal/server/handlers"
	"github.com/cdennis121/Shipyard/internal/services"
	"github.com/cdennis121/Shipyard/internal/storage"
)

func main() {
	if err := config.Load(); err != nil {
		logger.Fatalf("config load failed: %v", err)
	}
	logger.SetLevel(config.Current.LogLevel)

	if err := database.Connect(config.Current.DatabaseURL); err != nil {
		logger.Fatalf("database connect failed: %v", err)
	}
	if err := database.AutoMigrateAndSeed(); err != nil {
		logger.Fatalf("migration/seed failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewS3Store(ctx, config.Current.Storage)
	if err != nil {
		logger.Fatalf("object store init failed: %v", err)
	}

	cleaner := services.NewReconciler(database.DB, store, config.Current.CleanupMinObjectAge)
	handlers.Configure(store, cleaner)

	app := fiber.New(fiber.Config{
		ServerHeader: "Shipyard",
		AppName:      "Shipyard Update Server",
	})
	server.RegisterRoutes(app)

	services.StartCleanupScheduler(ctx, cleaner, config.Current.CleanupInterval)

	logger.Infof("server listening on :%s", config.Current.Port)
	if err := app.Listen(":" + config.Current.Port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
