package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/logging"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/router"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log)

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg, logger))
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(pool.DB); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
	}

	srv := newServer(cfg, pool, logger)
	go func() {
		logger.WithFields(log.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"driver":      cfg.Database.Driver,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				shutdownErr := srv.Shutdown(ctx)
				return errors.Join(shutdownErr, pool.Close())
			},
		},
	)

	exitCode := <-wait
	logger.Infof("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func newServer(cfg *config.Config, pool *database.DatabasePool, logger *log.Logger) *http.Server {
	engine := router.New(router.Dependencies{
		DB:      pool.DB,
		Pool:    pool,
		Config:  cfg,
		Logger:  logger,
		Monitor: monitoring.NewMonitor(),
	})

	return &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
