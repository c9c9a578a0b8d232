package main

import (
	"context"
	"log"

	"stocksignals/config"
	"stocksignals/database"
	"stocksignals/explainer"
	"stocksignals/handlers"
	"stocksignals/pipeline"
	"stocksignals/routes"
	"stocksignals/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.AppConfig = cfg

	// Initialize database
	database.Connect(cfg.DatabaseURL)
	defer database.Close()
	db := database.GetDB()

	health := map[string]handlers.HealthCheck{"database": db.Ping}

	inventory := store.NewPostgresInventoryStore(db)
	var snapshots store.SnapshotStore = store.NewPostgresSnapshotStore(db)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		snapshots = store.NewCachedSnapshotStore(snapshots, store.NewRedisSnapshotCache(rdb, cfg.SnapshotCacheTTL))
		log.Println("[SNAPSHOT CACHE] redis fallback enabled")
	}

	service := pipeline.NewService(store.NewPostgresEventSource(db), inventory, snapshots, pipeline.Options{
		ObservationDays: cfg.ObservationDays,
		SourceTimeout:   cfg.SourceTimeout,
	})

	var exp explainer.Explainer
	if cfg.GeminiAPIKey != "" {
		gemini, err := explainer.NewGeminiExplainer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("[EXPLAIN] Gemini disabled: %v", err)
		} else {
			defer gemini.Close()
			exp = gemini
		}
	}

	app := fiber.New()

	// Add CORS middleware
	app.Use(cors.New())

	// Setup routes
	routes.SetupRoutes(app, handlers.NewInsightsHandler(service, inventory, exp, cfg.ExplainTimeout), health)

	// Start server
	log.Fatal(app.Listen(":" + cfg.Port))
}
