package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/service-desk/internal/persistence"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations to POSTGRES_DSN",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if cfg.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN is required for migrate")
		}
		dir := cfg.Postgres.MigrationsDir
		if migrationsDir != "" {
			dir = migrationsDir
		}

		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()

		return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), dir, logger)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	rootCmd.AddCommand(migrateCmd)
}
