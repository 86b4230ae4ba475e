package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/neusearch/product-assistant/internal/adapter/ai"
	"github.com/neusearch/product-assistant/internal/adapter/index"
	"github.com/neusearch/product-assistant/internal/adapter/store"
	"github.com/neusearch/product-assistant/internal/handler"
	"github.com/neusearch/product-assistant/internal/port"
	"github.com/neusearch/product-assistant/internal/service"
	"github.com/neusearch/product-assistant/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Neusearch Product Assistant",
		"port", cfg.Port,
		"embed_provider", cfg.EmbedProvider,
		"chat_enabled", cfg.ChatEnabled,
	)

	// ── Database ─────────────────────────────────────────────────────────
	// A failed connection is logged, not fatal: catalog reads resolve from
	// the static catalog, ingestion keeps indexing without the store.
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if pgStore == nil {
		slog.Error("invalid database configuration", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	if err != nil {
		slog.Warn("catalog database unavailable, serving static catalog", "error", err)
	} else if err := pgStore.EnsureSchema(context.Background()); err != nil {
		slog.Warn("catalog schema setup failed", "error", err)
	}

	// ── Static catalog fallback ──────────────────────────────────────────
	staticCatalog, err := store.LoadStaticCatalog()
	if err != nil {
		slog.Error("failed to load static catalog", "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	)

	var embedder port.Embedder = ollamaAI
	if cfg.EmbedProvider == "local" {
		embedder = ai.NewLocalEmbedder(cfg.EmbeddingDimension)
	}

	productIndex, err := index.NewIndex(cfg.IndexPath, embedder)
	if err != nil {
		slog.Error("failed to open embedding index", "error", err)
		os.Exit(1)
	}
	defer productIndex.Close()

	// ── Services ─────────────────────────────────────────────────────────
	var chatModel port.ChatModel
	if cfg.ChatEnabled {
		chatModel = ollamaAI
	}
	interpreter := service.NewInterpreter(chatModel, time.Duration(cfg.ChatTimeoutSeconds)*time.Second)
	discoveryService := service.NewDiscoveryService(productIndex, interpreter)
	catalogService := service.NewCatalogService(pgStore, staticCatalog)
	ingestService := service.NewIngestService(pgStore, productIndex)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	api.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	jobTracker := handler.NewJobTracker()

	discoveryHandler := handler.NewDiscoveryHandler(discoveryService)
	discoveryHandler.Register(api)

	productHandler := handler.NewProductHandler(catalogService)
	productHandler.Register(api)

	ingestHandler := handler.NewIngestHandler(ingestService, staticCatalog, jobTracker)
	ingestHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(jobTracker)
	jobsHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
