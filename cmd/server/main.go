package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anthonylubrino/globalmcp/internal/application/services"
	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/domain/services/routing"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/config"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/logging"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/registry"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/transports"
	"github.com/anthonylubrino/globalmcp/internal/presentation/api"
)

func main() {
	// Parse CLI flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	host := flag.String("host", "", "Server host (overrides config)")
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration; a missing file falls back to defaults so the
	// server can start with the built-in Ollama endpoint mapping.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		log.Printf("No config file at %s, using defaults", *configPath)
		cfg = config.Default()
	}

	// Apply CLI overrides
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))

	// Register configured model endpoints
	modelRegistry := registry.NewInMemoryRegistry()
	descriptors, err := cfg.Descriptors()
	if err != nil {
		log.Fatalf("Invalid endpoint configuration: %v", err)
	}
	for _, d := range descriptors {
		if err := modelRegistry.Register(d); err != nil {
			log.Fatalf("Failed to register endpoint for tier %s: %v", d.Tier, err)
		}
		logger.Info("registered model endpoint", map[string]interface{}{
			"tier":      string(d.Tier),
			"uri":       d.URI,
			"transport": string(d.Transport),
		})
	}

	// Build the classifier, with pattern overrides from config if given.
	classifier, err := classifierFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid classifier patterns: %v", err)
	}

	clients := transports.NewClients(cfg.Routing)

	router := services.NewModelRouter(
		classifier,
		modelRegistry,
		clients,
		services.WithDispatchTimeout(cfg.Routing.DispatchTimeout),
		services.WithMaxTokens(cfg.Routing.MaxTokens),
	)
	pipeline := services.NewCompressionPipeline()

	handler := api.NewHandler(pipeline, router, modelRegistry, clients, cfg, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// Routes
	r.Post("/v1/compress", handler.CompressKVCache)
	r.Post("/v1/route", handler.RoutePrompt)
	r.Post("/v1/pipeline", handler.ProcessFullPipeline)
	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Received signal %v, shutting down gracefully...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := server.Close(); err != nil {
				log.Fatalf("Failed to close server: %v", err)
			}
		}

		log.Println("Server stopped")
	}
}

// classifierFromConfig builds the complexity classifier, honoring
// config-supplied pattern sets when present.
func classifierFromConfig(cfg *config.Config) (*routing.ComplexityClassifier, error) {
	if len(cfg.Routing.Patterns) == 0 {
		return routing.NewComplexityClassifier(), nil
	}

	patterns := make(map[models.Tier][]string, len(cfg.Routing.Patterns))
	for tier, exprs := range cfg.Routing.Patterns {
		patterns[models.Tier(tier)] = exprs
	}
	return routing.NewComplexityClassifierWithPatterns(patterns)
}
