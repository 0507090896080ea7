// Command migrate applies the embedded SQL schema to DATABASE_URL.
package main

import (
	"context"
	"os"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/config"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/postgres"
	"github.com/fazenda-socios/portal-bfa-go/migrations"

	"go.uber.org/zap"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel, "portal-migrate")
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	applied, err := postgres.NewMigrator(pool, migrations.FS, logger).Run(ctx)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("migrations applied", zap.Int("count", applied))
}
