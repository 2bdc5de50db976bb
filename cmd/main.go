package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	fiberRecover "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"movie-recommendation-service/internal/config"
	"movie-recommendation-service/internal/database"
	"movie-recommendation-service/internal/handler"
	"movie-recommendation-service/internal/middleware"
	"movie-recommendation-service/internal/recommend"
	"movie-recommendation-service/internal/repository"
	"movie-recommendation-service/internal/service"
	"movie-recommendation-service/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(startCtx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it caching and rate limiting are disabled.
	var rdb *redis.Client
	if client, err := database.NewRedis(startCtx, cfg.Redis); err != nil {
		slog.Warn("redis unavailable, caching and rate limiting disabled", "error", err)
	} else {
		rdb = client
	}

	tmdbClient := tmdb.NewClient(cfg.TMDB)

	movieRepo := repository.NewMovieRepository(db)
	likeRepo := repository.NewLikeListRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(db)

	movieSvc := service.NewMovieService(tmdbClient, rdb)
	likeSvc := service.NewLikeListService(likeRepo, movieRepo, tmdbClient)
	watchlistSvc := service.NewWatchlistService(watchlistRepo, movieRepo, tmdbClient)
	engine := recommend.NewEngine(likeRepo, tmdbClient, recommend.Config{
		Timeout:  cfg.Recommendation.Timeout,
		MinLikes: cfg.Recommendation.MinLikes,
	})

	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger spec not found, swagger UI will be unavailable", "error", err)
	}

	app := fiber.New(fiber.Config{
		AppName:         "movie-recommendation-service",
		JSONEncoder:     json.Marshal,
		JSONDecoder:     json.Unmarshal,
		StructValidator: handler.NewStructValidator(),
		ErrorHandler:    handler.ErrorHandler,
	})

	app.Use(fiberRecover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.NewRateLimiter(rdb, cfg.RateLimit).Handler())
	app.Use(middleware.AuthMiddleware())

	if swaggerYAML != nil {
		handler.RegisterSwagger(app, swaggerYAML)
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handler.Handlers{
		Movies:          handler.NewMovieHandler(movieSvc),
		LikeList:        handler.NewLikeListHandler(likeSvc),
		Watchlist:       handler.NewWatchlistHandler(watchlistSvc),
		Recommendations: handler.NewRecommendationHandler(engine),
	}.Register(app)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("movie-recommendation-service starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down movie-recommendation-service...")

	// Shutdown HTTP server first (stop accepting new requests)
	if err := app.Shutdown(); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}
	slog.Info("HTTP server stopped")

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing Redis connection", "error", err)
		} else {
			slog.Info("Redis connection closed")
		}
	}

	if err := db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	} else {
		slog.Info("database connection closed")
	}

	slog.Info("movie-recommendation-service shutdown complete")
}
