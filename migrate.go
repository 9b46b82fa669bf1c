package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := connectDB(cmd.Context(), &cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if !statusOnly {
				if err := migrate(db, logger); err != nil {
					return err
				}
			}

			sqlDB := stdlib.OpenDBFromPool(db.Pool)
			defer sqlDB.Close()
			version, dirty, err := database.MigrationVersion(sqlDB)
			if err != nil {
				return err
			}
			logger.Info("Migration status", zap.Uint("version", version), zap.Bool("dirty", dirty))
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "print the applied version without migrating")
	return cmd
}
