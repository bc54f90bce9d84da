// Command puskata serves the Puskata library lending API.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/puskata/library-service/internal/app/runtime"
	"github.com/puskata/library-service/internal/config"
	"github.com/puskata/library-service/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Optional dotenv file loaded before reading the environment")
	migrate := flag.Bool("migrate", false, "Apply database migrations before serving")
	addr := flag.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	flag.Parse()

	bootLog := logger.NewDefault("puskata")

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog.WithError(err).Fatal("load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New(logger.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format}).Component("puskata")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, cfg, runtime.Options{Migrate: *migrate}, log)
	if err != nil {
		log.WithError(err).Fatal("start application")
	}

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}
}
