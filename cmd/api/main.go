package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noobjs/blog-backend/internal/api"
	"github.com/noobjs/blog-backend/internal/blog"
	"github.com/noobjs/blog-backend/internal/config"
	gdb "github.com/noobjs/blog-backend/internal/db"
	"github.com/noobjs/blog-backend/internal/events"
	"github.com/noobjs/blog-backend/internal/log"
	"github.com/noobjs/blog-backend/internal/metrics"
	"github.com/noobjs/blog-backend/internal/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting blog API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"backend", cfg.Database.Backend,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("blog-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Initialize storage
	db, err := gdb.NewDatabase(&gdb.Config{
		Type:          cfg.Database.Backend,
		PostgresDSN:   cfg.Database.PostgresDSN,
		MaxConns:      cfg.Database.PostgresMaxConns,
		MongoURI:      cfg.Database.MongoURI,
		MongoDatabase: cfg.Database.MongoDatabase,
	}, logger)
	if err != nil {
		logger.Fatalw("Failed to create database", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := gdb.ConnectAndMigrate(ctx, db); err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Disconnect(ctx); err != nil {
			logger.Errorw("Database disconnect failed", "error", err)
		}
	}()
	logger.Infow("Database initialized", "backend", db.Name())

	// Setup event broker (Redis, or in-memory when unset or unreachable)
	broker := events.NewBroker(cfg.Events.RedisAddr, logger, metricsObj)
	defer broker.Close()

	svc := blog.NewService(db, broker, metricsObj, logger)
	if !svc.Relational() {
		logger.Infow("Document backend selected; listing and post routes are disabled", "backend", db.Name())
	}

	// Setup WebSocket hub and SSE handler
	wsHub := ws.NewHub(broker, cfg.Security.CORSAllowedOrigins, logger, metricsObj)
	sseHandler := ws.NewSSEHandler(broker, cfg.Security.CORSAllowedOrigins, logger, metricsObj)

	// Create context for background services
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	// Start WebSocket hub in background
	go wsHub.Run(hubCtx)

	// Setup API handler and middleware
	handler := api.NewHandler(svc, broker, http.HandlerFunc(wsHub.HandleWebSocket), http.HandlerFunc(sseHandler.HandleSSE), logger)
	middleware := api.NewMiddleware(logger, metricsObj)

	router := handler.Routes(middleware, api.RouteOptions{
		CORSOrigins:    cfg.Security.CORSAllowedOrigins,
		PublicDir:      cfg.PublicDir,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metricsHandler,
	})

	// Log configured CORS origins for easier debugging in dev
	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// No WriteTimeout: event streams stay open
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("Server startup failed", "error", err)
		}
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Stop the hub first so websocket clients are closed
		hubCancel()

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}
