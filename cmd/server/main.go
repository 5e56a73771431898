// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"github.com/amoghku/marketplace-pim/internal/commerce"
	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/database"
	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/logging"
	"github.com/amoghku/marketplace-pim/internal/middleware"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/router"
	"github.com/amoghku/marketplace-pim/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.New(cfg.Log)

	cmd := &cli.Command{
		Name:  "pim",
		Usage: "Catalog approval and sync service",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "run migrations before serving", Value: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, cfg, logger, c.Bool("migrate"))
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "run migrations before serving", Value: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, cfg, logger, c.Bool("migrate"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations and seed reference data",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := database.Initialize(cfg.Database, logger)
					if err != nil {
						return err
					}
					defer database.Close(db, logger)

					if err := database.RunMigrations(db, logger); err != nil {
						return err
					}
					return database.SeedInitialData(db, logger)
				},
			},
			{
				Name:      "sync",
				Usage:     "Push one approved category or collection to the commerce platform",
				ArgsUsage: "category|collection <id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return syncOne(ctx, cfg, logger, c.Args().Get(0), c.Args().Get(1))
				},
			},
			{
				Name:  "check-config",
				Usage: "Print the resolved sync configuration without the secret",
				Action: func(ctx context.Context, c *cli.Command) error {
					commerce.LogConfiguration(cfg.Sync, logger.WithField("environment", cfg.Environment))
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.WithError(err).Fatal("Command failed")
	}
}

// bootstrap opens the database and wires the service graph.
func bootstrap(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, *services.Services, error) {
	if err := i18n.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize i18n: %w", err)
	}

	db, err := database.Initialize(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	commerce.LogConfiguration(cfg.Sync, logger)
	client := commerce.NewClient(cfg.Sync, logger).WithProduction(cfg.IsProduction())
	svcs := services.NewServices(repositories.NewSet(db), client, cfg.Sync, logger)
	return db, svcs, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, migrate bool) error {
	db, svcs, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db, logger)

	if migrate {
		if err := database.RunMigrations(db, logger); err != nil {
			return err
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewWriteRateLimiter(cfg.RateLimit)
	go limiter.Cleanup(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Initialize(svcs, cfg, limiter, logger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func syncOne(ctx context.Context, cfg *config.Config, logger *logrus.Logger, kind, rawID string) error {
	id, err := services.ParseID(rawID)
	if err != nil {
		return cli.Exit("usage: sync category|collection <id>", 2)
	}

	db, svcs, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db, logger)

	var result services.SyncResult
	switch kind {
	case "category":
		result = svcs.Categories.SyncByID(ctx, id)
	case "collection":
		result = svcs.Collections.SyncByID(ctx, id)
	default:
		return cli.Exit("usage: sync category|collection <id>", 2)
	}

	entry := logger.WithFields(logrus.Fields{
		"entity_type": kind,
		"entity_id":   id,
		"ok":          result.OK,
		"status":      result.Status,
		"reason":      result.Reason,
	})
	if !result.OK {
		entry.WithField("error", result.Error).Warn("Sync not completed")
		return cli.Exit("sync not completed", 1)
	}
	entry.Info("Sync completed")
	return nil
}
