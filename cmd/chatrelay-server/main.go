// Package main provides the chatrelay HTTP server.
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

	"github.com/raphaelgruber/chatrelay-go/internal/config"
	"github.com/raphaelgruber/chatrelay-go/internal/llm"
	"github.com/raphaelgruber/chatrelay-go/internal/metrics"
	"github.com/raphaelgruber/chatrelay-go/internal/server"
	"github.com/raphaelgruber/chatrelay-go/internal/service"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("chatrelay starting",
		"version", version,
		"port", cfg.Port,
		"data_file", cfg.DataFile,
	)

	// Wire the core: store, generation client, orchestrating service
	collector := metrics.NewCollector()
	st := store.New(cfg.DataFile, logger, collector)

	streamer, err := llm.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create generation client", "error", err)
		os.Exit(1)
	}

	svc := service.NewChatService(st, streamer, logger, collector)
	srv := server.New(svc, logger, collector, cfg.CORSOrigins)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv.Handler(),
		ReadTimeout: 5 * time.Second,
		// No write timeout: SSE responses stay open for as long as
		// generation runs.
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api/chats", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
