package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ProdigyRahul/Codojo/internal/adapter/ai"
	"github.com/ProdigyRahul/Codojo/internal/adapter/github"
	"github.com/ProdigyRahul/Codojo/internal/adapter/store"
	"github.com/ProdigyRahul/Codojo/internal/handler"
	"github.com/ProdigyRahul/Codojo/internal/ratelimit"
	"github.com/ProdigyRahul/Codojo/internal/service"
	"github.com/ProdigyRahul/Codojo/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Codojo",
		"port", cfg.Port,
		"chat_model", cfg.OpenAIChatModel,
		"embedding_model", cfg.OpenAIEmbeddingModel,
		"embedding_dimension", cfg.EmbeddingDimension,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL, cfg.EmbeddingDimension)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	vectorStore := store.NewVectorStore(pgStore)

	// ── Adapters ─────────────────────────────────────────────────────────
	aiProvider := ai.NewOpenAIProvider(ai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		ChatModel:      cfg.OpenAIChatModel,
		EmbeddingModel: cfg.OpenAIEmbeddingModel,
		Dimensions:     cfg.EmbeddingDimension,
		Timeout:        2 * time.Minute,
	})
	githubClient := github.NewClient(cfg.GithubToken)

	// ── Services ─────────────────────────────────────────────────────────
	retrier := ratelimit.NewRetrier(4, time.Second, 0)
	limiter := ratelimit.NewLimiter(5)

	commitService := service.NewCommitService(pgStore, pgStore, githubClient, aiProvider, retrier, limiter)
	indexService := service.NewIndexService(githubClient, aiProvider, vectorStore, limiter)
	ragService := service.NewRAGService(aiProvider, vectorStore)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"model":   aiProvider.ModelName(),
			"version": "1.0.0",
		})
	})

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	jobTracker := handler.NewJobTracker()

	projectHandler := handler.NewProjectHandler(pgStore, vectorStore)
	projectHandler.Register(api)

	commitHandler := handler.NewCommitHandler(commitService, pgStore)
	commitHandler.Register(api)

	indexHandler := handler.NewIndexHandler(indexService, pgStore, jobTracker, cfg.DefaultBranch)
	indexHandler.Register(api)

	askHandler := handler.NewAskHandler(ragService)
	askHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(jobTracker)
	jobsHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
