package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/lead-extractor/internal/config"
	httpmiddleware "github.com/wolfman30/lead-extractor/internal/http/middleware"
	"github.com/wolfman30/lead-extractor/internal/static"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newHandler(cfg.StaticDir, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("serving static files", "addr", srv.Addr, "dir", cfg.StaticDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newHandler(dir string, logger *logging.Logger) http.Handler {
	return httpmiddleware.RequestLogger(logger)(static.Handler(dir, true))
}
