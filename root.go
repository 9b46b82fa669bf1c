package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/onboardlens/onboardlens/pkg/config"
	"github.com/onboardlens/onboardlens/pkg/database"
	"github.com/onboardlens/onboardlens/pkg/logging"
	"github.com/onboardlens/onboardlens/pkg/retry"
)

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "onboardlens",
		Short:        "Onboarding funnel analytics API",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before configuration (optional)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCalcCmd(),
	)
	return cmd
}

// loadConfig reads the dotenv file, then the YAML file with env overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.envFile, err)
		}
	}
	return config.Load(opts.configPath, Version)
}

func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// connectDB opens the pool, retrying while the database comes up.
// Authentication and unknown-database errors fail fast.
func connectDB(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	connStr := cfg.ConnectionString()
	logger.Info("Connecting to database", zap.String("dsn", logging.SanitizeConnectionString(connStr)))

	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, wait time.Duration, err error) {
		logger.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error", logging.SanitizeError(err)))
	}

	return retry.DoWithResult(ctx, retryCfg, func() (*database.DB, error) {
		db, err := database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.MaxConnections,
		})
		if err != nil && !isTransientConnectError(err) {
			return nil, retry.Permanent(err)
		}
		return db, err
	})
}

// connectRedis returns nil when Redis is not configured or cannot be reached.
// The LLM response cache is optional, so an unreachable Redis only costs a warning.
func connectRedis(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) *redis.Client {
	rdb, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without the LLM response cache",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
			zap.String("error", logging.SanitizeError(err)))
		return nil
	}
	return rdb
}

// isTransientConnectError is false for server-reported errors that another
// attempt will not fix: bad credentials (class 28) and a missing database (3D000).
func isTransientConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return true
	}
	return !strings.HasPrefix(pgErr.Code, "28") && pgErr.Code != "3D000"
}

// migrate applies pending migrations through the pool's database/sql adapter.
func migrate(db *database.DB, logger *zap.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()
	return database.RunMigrations(sqlDB, logger)
}
