package main

import (
	"flag"
	"log"

	"medminer/internal/api"
	"medminer/internal/config"
	"medminer/internal/task"
	pkghttp "medminer/pkg/http"
	"medminer/pkg/logger"
	"medminer/pkg/ratelimiter"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logger.Level)
	appLogger := logger.New("medminer")
	appLogger.Info("Logger initialized")

	httpClient, err := pkghttp.NewClient(cfg.Middleware.CircuitBreaker)
	if err != nil {
		appLogger.WithError(err).Error("failed to build the outbound HTTP client")
		log.Fatal(err)
	}

	var limiter ratelimiter.RateLimiter
	if cfg.Middleware.RateLimiter.Enabled {
		limiter = ratelimiter.NewTokenBucket(
			cfg.Middleware.RateLimiter.TokenBucket.Rate,
			cfg.Middleware.RateLimiter.TokenBucket.Capacity,
		)
	}

	registry := task.DefaultRegistry(cfg, httpClient, limiter)
	appLogger.Infof("Registered %d tasks", len(registry.All()))

	router := api.SetupRouter(api.NewAPI(cfg, registry, nil))
	appLogger.Info("Starting server on " + cfg.Server.Address)

	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatal(err)
	}
}
