package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lrucache/internal/config"
	"lrucache/internal/logger"
	"lrucache/internal/server"
)

type appConfig struct {
	Server server.Config

	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

func main() {
	// Signal-aware context is the root of ownership for long-lived background work.
	// When SIGINT/SIGTERM arrives, ctx is canceled and we initiate a clean shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)

	log, err := newLogger(cfg)
	if err != nil {
		slog.Error("invalid logging config", logger.Error(err))
		os.Exit(1)
	}
	logger.SetAsDefault(log)

	srv, err := server.New(cfg.Server, log)
	if err != nil {
		log.Error("startup failed", logger.Error(err))
		os.Exit(1)
	}

	if err := srv.Serve(ctx); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg appConfig) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "lrucache"),
		logger.WithContextExtractors(server.LogConnID),
	}
	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithLevel(level))
	}
	switch f := logger.Format(cfg.LogFormat); f {
	case "":
	case logger.FormatJSON, logger.FormatText:
		opts = append(opts, logger.WithFormat(f))
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return logger.New(opts...), nil
}
