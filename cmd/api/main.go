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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/lead-extractor/cmd/mainconfig"
	"github.com/wolfman30/lead-extractor/internal/api/router"
	appconfig "github.com/wolfman30/lead-extractor/internal/config"
	httpmiddleware "github.com/wolfman30/lead-extractor/internal/http/middleware"
	"github.com/wolfman30/lead-extractor/internal/leads"
	"github.com/wolfman30/lead-extractor/internal/llm"
	"github.com/wolfman30/lead-extractor/internal/observability/metrics"
	"github.com/wolfman30/lead-extractor/internal/static"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

func main() {
	// A missing .env is fine; the process environment wins either way.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-extractor API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"model", cfg.LLMModel,
	)

	metricsHandler, extractionMetrics := setupMetrics()

	extraction, err := mainconfig.BuildExtraction(context.Background(), cfg, logger, extractionMetrics)
	if err != nil {
		if errors.Is(err, appconfig.ErrMissingAPIKey) {
			logger.Error("missing provider credentials", "error", err)
		} else {
			logger.Error("failed to initialize extraction", "error", err)
		}
		os.Exit(1)
	}
	defer extraction.Close()

	// Setup router
	r := newRouter(cfg, logger, extraction.Extractor, metricsHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// writeTimeout leaves room for a full provider round trip plus writing the reply.
func writeTimeout(cfg *appconfig.Config) time.Duration {
	return llm.EffectiveTimeout(cfg.LLMTimeout) + 15*time.Second
}

// setupMetrics builds a private registry so /metrics only exposes this process.
func setupMetrics() (http.Handler, *metrics.ExtractionMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewExtractionMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func newRouter(cfg *appconfig.Config, logger *logging.Logger, extractor leads.LeadExtractor, metricsHandler http.Handler) http.Handler {
	return router.New(&router.Config{
		Logger:         logger,
		LeadsHandler:   leads.NewHandler(extractor, logger),
		MetricsHandler: metricsHandler,
		StaticHandler:  static.Handler(cfg.StaticDir, false),
		Origins:        httpmiddleware.NewOriginPolicy(cfg.CORSAllowedOrigins),
	})
}
