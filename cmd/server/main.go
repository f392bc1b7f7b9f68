package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"avalon/internal/app"
	"avalon/internal/config"
	"avalon/internal/monitor"
	httptransport "avalon/internal/transport/http"
)

const shutdownGrace = 30 * time.Second

func main() {
	// Load .env if present, real environment wins
	godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting avalon game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	metrics := monitor.New("avalon")

	hub := app.NewGameHub(cfg.Game, metrics, logger)
	defer hub.Close()

	server := httptransport.NewServer(cfg, hub, metrics, logger)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// newLogger builds the process logger from config: JSON for log shippers,
// text for terminals.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
