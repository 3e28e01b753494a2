/*
Package main is the entry point for the ChatGrid server.

It loads configuration, initializes the global logging system, connects the
backing services (PostgreSQL, Redis, optional NATS, object storage), wires
the realtime chat core, and gracefully handles operating system interrupt
signals (SIGINT, SIGTERM) for a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatgrid/internal/app/chat"
	"chatgrid/internal/app/db"
	"chatgrid/internal/app/message"
	"chatgrid/internal/app/presence"
	"chatgrid/internal/app/render"
	"chatgrid/internal/app/room"
	"chatgrid/internal/app/storage"
	"chatgrid/internal/configs"
	"chatgrid/internal/handler"
	"chatgrid/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("nats_enabled", cfg.NATSURL != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect PostgreSQL and run migrations.
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Connect Redis for presence tracking.
	presenceStore, err := presence.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logx.Fatal(err, "Failed to connect to Redis")
	}
	defer presenceStore.Close()

	// The broadcast bus: in-process by default, NATS-backed when NATS_URL
	// is set so multiple server processes share one fanout plane.
	registry := chat.NewRegistry()
	var bus chat.Bus = registry
	if cfg.NATSURL != "" {
		natsBus, err := chat.NewNATSBus(cfg.NATSURL, registry)
		if err != nil {
			logx.Fatal(err, "Failed to connect to NATS")
		}
		bus = natsBus
	}
	defer bus.Close()

	storageService, err := storage.NewService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize file storage")
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		logx.Fatal(err, "Failed to parse message templates")
	}

	roomStore := room.NewStore(pool)
	messageStore := message.NewStore(pool)

	chatService := chat.NewService(bus, roomStore, messageStore, presenceStore, renderer, chat.Config{
		StoreTimeout:        cfg.StoreTimeout,
		PresenceIncludeSelf: cfg.PresenceIncludeSelf,
	})

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Config:   cfg,
		Chat:     chatService,
		Rooms:    roomStore,
		Messages: messageStore,
		Storage:  storageService,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("ChatGrid Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
