package main

import (
	"context"
	"fmt"
	"os"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logging"
	"catalog/internal/repositories"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// devJWTSecret signs tokens when JWT_SECRET is unset in development.
const devJWTSecret = "catalog-development-secret"

// rootCmd runs the HTTP server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Product catalog service with a navigation assistant",
	Long: `catalog serves a product catalog over HTTP, with JWT-protected writes and a
language-model backed navigation assistant.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles what every command needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// bootstrap loads configuration, builds the logger and opens the migrated database. With
// the memory driver the database is a private in-memory sqlite holding users and categories.
func bootstrap() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	logger, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return nil, err
	}

	driver, dsn := cfg.DatabaseDriver, cfg.DatabaseDSN
	if driver == config.DriverMemory {
		driver, dsn = config.DriverSQLite, ":memory:"
	}
	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("database ready", zap.String("driver", cfg.DatabaseDriver))

	return &runtime{cfg: cfg, logger: logger, db: db}, nil
}

func (rt *runtime) productRepository() repositories.ProductRepository {
	if rt.cfg.DatabaseDriver == config.DriverMemory {
		return repositories.NewMemoryProductRepository()
	}
	return repositories.NewGORMProductRepository(rt.db)
}

func (rt *runtime) close() {
	if sqlDB, err := rt.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			rt.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
