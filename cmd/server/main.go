package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dta-platform/assessment-engine/internal/cache"
	"github.com/dta-platform/assessment-engine/internal/config"
	"github.com/dta-platform/assessment-engine/internal/handlers"
	"github.com/dta-platform/assessment-engine/internal/repositories/postgres"
	"github.com/dta-platform/assessment-engine/internal/services"
	"github.com/dta-platform/assessment-engine/internal/utils"
	"github.com/dta-platform/assessment-engine/internal/validator"
	"github.com/dta-platform/assessment-engine/pkg"
	"github.com/gin-gonic/gin"
)

// @title Assessment Engine API
// @version 1.0
// @description Dynamic assessment and application form engine
// @BasePath /api/v1
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	logger.Info("Starting assessment engine", "environment", cfg.Environment, "port", cfg.Port)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	eventConfig := config.LoadEventConfig()
	publisher, err := eventConfig.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	sessions := cache.NewRedisSessionStore(redisClient, slogLogger,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	var remote services.RemoteValidator
	if cfg.ValidationServiceURL != "" {
		remote = services.NewHTTPRemoteValidator(cfg.ValidationServiceURL)
		logger.Info("Remote validation enabled", "url", cfg.ValidationServiceURL)
	} else {
		remote = services.NewNoopRemoteValidator()
	}

	serviceManager := services.NewServiceManager(repo, sessions, slogLogger, validator.New(), remote, publisher)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(serviceManager, logger)
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}
