package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/versecache/internal/api"
	"github.com/cesargomez89/versecache/internal/app"
	"github.com/cesargomez89/versecache/internal/bible"
	"github.com/cesargomez89/versecache/internal/config"
	"github.com/cesargomez89/versecache/internal/connmon"
	"github.com/cesargomez89/versecache/internal/events"
	"github.com/cesargomez89/versecache/internal/logger"
	"github.com/cesargomez89/versecache/internal/queue"
	"github.com/cesargomez89/versecache/internal/store"
	"github.com/cesargomez89/versecache/internal/syncer"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	settingsRepo := store.NewSettingsRepo(db)

	// Initialize upstream client with in-memory read-through cache
	fetcher := bible.NewCachedClient(bible.NewClient(cfg.ProviderURL), bible.NewMemCache(), cfg.CacheTTL)

	// Initialize event hub and connection monitor
	hub := events.NewHub()
	monitor := connmon.New(connmon.NetProbe{}, cfg.ProbeURL, hub, appLogger)
	monitor.Start()
	defer monitor.Stop()

	// Initialize download queue
	manager := queue.NewManager(db, fetcher, monitor, hub, appLogger)
	manager.MaxConcurrent = cfg.MaxConcurrent
	manager.MaxRetries = cfg.MaxRetries
	manager.Start()
	defer manager.Stop()

	// Initialize sync reconciler
	reconciler := syncer.NewReconciler(db, settingsRepo, fetcher, monitor, hub, appLogger)
	reconciler.SyncInterval = cfg.SyncInterval
	reconciler.Start()
	defer reconciler.Stop()

	// Initialize Services
	taskService := app.NewTaskService(db, manager)
	contentService := app.NewContentService(db, fetcher)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := api.NewHandler(taskService, contentService, reconciler, monitor, hub, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
