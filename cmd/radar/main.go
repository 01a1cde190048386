package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/paws-and-plates/lead-radar/internal/config"
	"github.com/paws-and-plates/lead-radar/internal/export"
	"github.com/paws-and-plates/lead-radar/internal/notifications"
	"github.com/paws-and-plates/lead-radar/internal/radar"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/scheduler"
	"github.com/paws-and-plates/lead-radar/internal/seenset"
	"github.com/paws-and-plates/lead-radar/internal/sources"
	"github.com/paws-and-plates/lead-radar/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion cycle plus export, then exit")
	flag.Parse()

	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Lead Radar")

	// Load matching rules
	ruleset, err := rules.Load(cfg.RulesPath)
	if err != nil {
		logrus.Fatalf("Failed to load ruleset: %v", err)
	}

	// Initialize storage
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Load the seen-ID set
	seen, err := seenset.Load(cfg.SeenSetPath, cfg.SeenSetCap)
	if err != nil {
		logrus.Fatalf("Failed to load seen set: %v", err)
	}

	// Initialize sources
	retry := sources.DefaultRetryPolicy()
	srcs := map[string]sources.Source{
		"reddit":        sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret, retry),
		"stackexchange": sources.NewStackExchangeSource(cfg.StackExchangeKey, retry),
	}

	// Initialize exporter and notifications
	exporter := export.NewExporter(store, ruleset, cfg.LeadQueuePath, cfg.LeadQueueSize)
	notifier := notifications.NewService(cfg)

	// Initialize the pipeline service
	radarService := radar.NewService(cfg, ruleset, store, seen, srcs, exporter, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := radarService.RunCycle(ctx); err != nil {
			logrus.Fatalf("Cycle failed: %v", err)
		}
		logrus.Info("Single cycle completed")
		return
	}

	// Initialize scheduler for periodic exports
	schedulerService := scheduler.NewService(cfg, radarService, exporter)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Run the ingestion loop in the background
	go func() {
		if err := radarService.RunForever(ctx); err != nil && ctx.Err() == nil {
			logrus.Errorf("Ingestion loop stopped: %v", err)
		}
	}()

	// Set up HTTP server for health checks and manual triggers
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Metrics endpoint
	router.HandleFunc("/metrics", metricsHandler(radarService)).Methods("GET")

	// Manual trigger endpoint (for testing)
	router.HandleFunc("/trigger", triggerHandler(radarService)).Methods("POST")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(radarService *radar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := radarService.GetMetrics()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(metrics))
	}
}

func triggerHandler(radarService *radar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if err := radarService.RunCycle(context.Background()); err != nil {
				logrus.Errorf("Manual cycle trigger failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Cycle triggered successfully"}`))
	}
}
