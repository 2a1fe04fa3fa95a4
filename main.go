package main

import (
	"log"
	"time"

	"loanrisk-backend/auth"
	"loanrisk-backend/config"
	"loanrisk-backend/controllers"
	"loanrisk-backend/database"
	"loanrisk-backend/llm"
	"loanrisk-backend/middlewares"
	"loanrisk-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Database
	if err := database.Connect(cfg.DSN()); err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// ---- Token verification (local key-set strategy, one cache per process)
	cache := auth.NewKeyCache(cfg.JWKSURL, time.Duration(cfg.JWKSCacheSeconds)*time.Second)
	middlewares.UseVerifier(auth.NewJWKSVerifier(cache, cfg.JWTAudience))

	// ---- LLM orchestrator
	controllers.Analyzer = llm.NewClient(llm.Options{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.GroqBaseURL,
		Model:       cfg.GroqModel,
		MaxTokens:   cfg.GroqMaxTokens,
		Temperature: cfg.GroqTemperature,
	})

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(logger.New())

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	}))

	// ---- Routes
	routes.Register(app)

	// ---- Start
	log.Println("API server starting on port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
