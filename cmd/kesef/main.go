package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kesef/internal/app"
	"kesef/internal/config"
	apphttp "kesef/internal/http"
	"kesef/internal/log"
	"kesef/internal/view"
)

func main() {
	// A missing .env is fine; the environment alone is enough
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.New(log.DefaultConfig()).Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	logger := log.New(cfg.LoggerConfig())
	log.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, log.FieldPort, cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	renderer, err := view.NewRenderer(logger)
	if err != nil {
		return err
	}

	store := app.NewStore(app.Initial(cfg.View(), cfg.Theme()), app.WithLogger(logger))
	srv := apphttp.NewServer(cfg.Addr(), store, renderer, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		Logger:             logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting kesef server",
			log.FieldOperation, log.OpStartup,
			log.FieldPort, cfg.Port,
			log.FieldView, string(cfg.View()),
			log.FieldTheme, string(cfg.Theme()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
