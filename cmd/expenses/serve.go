package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"expenses/internal/backend"
	"expenses/internal/cache"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	"expenses/internal/log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const cacheSweepInterval = time.Minute

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Open the store (applying pending migrations), connect to RabbitMQ when
AMQP_URL is set, and serve the JSON API until SIGINT or SIGTERM.`,
		RunE: runServe,
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap(cmd, nil)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	ctx, stop := cli.GracefulShutdown(cmd.Context(), logger)
	defer stop()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	bundle, err := backend.NewFactory(logger).Create(ctx, bc)
	if err != nil {
		return err
	}
	defer func() {
		if err := bundle.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, bundle.HTTPDeps(logger, cfg.RateLimitPerMinute))
	janitor := cache.NewJanitor(logger, bundle.CategoryCache)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server",
			"port", cfg.Port,
			"driver", cfg.StoreDriver,
			"events_enabled", bundle.EventsEnabled,
			"version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error { return srv.RunBackground(gctx) })
	g.Go(func() error { return janitor.Run(gctx, cacheSweepInterval) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", "timeout", cfg.ShutdownTimeout.String())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
