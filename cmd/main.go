/*
Package main is the entry point for the Satorugram server.

It is responsible for loading configuration, initializing the global logging system,
opening the store and the cross-process notification channel, wiring the services,
setting up the HTTP server and the sync stream hub, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
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

	"satorugram/internal/app/admin"
	"satorugram/internal/app/chat"
	"satorugram/internal/app/dm"
	"satorugram/internal/app/fanout"
	"satorugram/internal/app/feed"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/presence"
	"satorugram/internal/app/record"
	"satorugram/internal/app/stream"
	"satorugram/internal/app/user"
	"satorugram/internal/configs"
	"satorugram/internal/handler"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store_driver", cfg.StoreDriver).
		Str("store_namespace", cfg.StoreNamespace).
		Dur("poll_interval", cfg.PollInterval).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open store", "driver", cfg.StoreDriver)
	}

	// Only postgres can notify other processes; elsewhere they catch up by polling.
	var broadcaster fanout.Broadcaster = fanout.Nop{}
	if pg, ok := store.(*kv.Postgres); ok {
		broadcaster = fanout.NewPGBroadcaster(pg.Pool(), fanout.DefaultChannel)
	}
	bus := fanout.NewBus(broadcaster)

	ns := record.Namespace(cfg.StoreNamespace)
	users := user.NewService(store, ns, bus, clock.System)
	posts := feed.NewService(store, ns, bus, clock.System)
	tracker := presence.NewTracker(store, ns, bus, clock.System)

	deps := &handler.AppDeps{
		Config:   cfg,
		Bus:      bus,
		Users:    users,
		Chat:     chat.NewService(store, ns, bus, clock.System),
		DM:       dm.NewService(store, ns, bus, clock.System),
		Feed:     posts,
		Presence: tracker,
		Admin:    admin.NewService(store, ns, users, posts, tracker, cfg.AdminNickname),
		Hub:      stream.NewHub(),
	}

	go deps.Hub.Run()

	// Setup HTTP server and routes
	router, stopLimiters := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Satorugram server starting on http://localhost%s", serverAddr))
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
		logx.Error(err, "Server forced to shutdown")
	}

	deps.Hub.Stop()
	stopLimiters()
	bus.Close()

	if err := broadcaster.Close(); err != nil {
		logx.Error(err, "Failed to close broadcaster")
	}
	if err := store.Close(); err != nil {
		logx.Error(err, "Failed to close store")
	}

	logx.Info("Server gracefully stopped.")
}
