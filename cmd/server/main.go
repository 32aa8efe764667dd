package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/card-grader/internal/api"
	"github.com/codyseavey/card-grader/internal/collection"
	"github.com/codyseavey/card-grader/internal/config"
	"github.com/codyseavey/card-grader/internal/database"
	"github.com/codyseavey/card-grader/internal/metrics"
	"github.com/codyseavey/card-grader/internal/services"
	"github.com/codyseavey/card-grader/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// The database always holds value history; it also backs the collection
	// when STORAGE_BACKEND=sqlite.
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := storage.NewKV(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	bridge := storage.NewBridge(kv)

	// Collection store and its listeners
	store := collection.NewStore()
	autosaver := storage.NewAutosaver(bridge, cfg.AutosaveDebounce)
	store.Subscribe(func(st collection.State) {
		metrics.UpdateCollectionMetrics(st)
	})

	storeCtx, stopStore := context.WithCancel(context.Background())
	storeDone := make(chan struct{})
	go func() {
		store.Run(storeCtx)
		close(storeDone)
	}()

	// Load before subscribing the autosaver so the load itself isn't written back.
	loaded, err := store.Load(ctx, bridge.Load(ctx))
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}
	log.Printf("Loaded collection: %d unique cards, %d total", loaded.UniqueCount(), loaded.TotalCount())
	store.Subscribe(autosaver.Notify)

	autosaveCtx, stopAutosave := context.WithCancel(context.Background())
	autosaveDone := make(chan struct{})
	go func() {
		autosaver.Run(autosaveCtx)
		close(autosaveDone)
	}()

	settingsService := services.NewSettingsService(bridge)
	settingsService.Load(ctx)

	gradingClient := services.NewGradingClient(services.GradingClientOptions{
		BaseURL:   cfg.Grading.BaseURL,
		APIToken:  cfg.Grading.APIToken,
		RateLimit: cfg.Grading.RateLimit,
		RateBurst: cfg.Grading.RateBurst,
		CacheSize: cfg.Grading.CacheSize,
		Timeout:   cfg.Grading.Timeout,
	})
	recognitionService := services.NewRecognitionService(gradingClient)
	imageStorageService := services.NewImageStorageService(cfg.ScannedImagesDir)

	// Start snapshot service in background with panic recovery
	snapshotService := services.NewSnapshotService(db, store, cfg.SnapshotHour)
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in snapshot service: %v - restarting in 30 seconds", r)
					}
				}()
				snapshotService.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Snapshot service restarting after panic recovery...")
			}
		}
	}()

	router := api.SetupRouter(cfg, store, bridge, autosaver, recognitionService, imageStorageService, settingsService, snapshotService)

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop background workers
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// No more requests can mutate the collection: stop the store, then let
	// the autosaver write the final state.
	stopStore()
	<-storeDone
	stopAutosave()
	<-autosaveDone

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exited")
}
