package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/MohammedGhazal09/portfolio/internal/config"
	"github.com/MohammedGhazal09/portfolio/internal/di"
	"github.com/MohammedGhazal09/portfolio/internal/media"
	"github.com/MohammedGhazal09/portfolio/internal/session"
	"github.com/MohammedGhazal09/portfolio/internal/telemetry"
	"github.com/MohammedGhazal09/portfolio/internal/theme"
	"github.com/MohammedGhazal09/portfolio/internal/web"
	"go.uber.org/zap"
)

func main() {
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	cfg *config.Config,
	logger *zap.Logger,
	tp *telemetry.Provider,
	server *web.Server,
	sessions *session.Store,
	images *media.Optimizer,
) error {
	defer logger.Sync()

	// Theme comes from config once at startup, then follows config edits.
	t := theme.Init(cfg.GetString("theme.default"), theme.Dark)
	logger.Info("Theme initialised", zap.Stringer("theme", t))
	cfg.Watch(func() {
		next, ok := theme.Parse(cfg.GetString("theme.default"))
		if !ok {
			logger.Warn("Ignoring invalid theme.default", zap.String("value", cfg.GetString("theme.default")))
			return
		}
		theme.Set(next)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := server.Run(ctx)

	server.Close()
	sessions.Close()
	images.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := tp.Shutdown(shutdownCtx); serr != nil {
		logger.Error("Failed to flush traces", zap.Error(serr))
	}

	logger.Info("Shutdown complete")
	return err
}
