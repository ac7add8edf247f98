package main

import (
	"fmt"

	"expenses/internal/backend"
	"expenses/internal/log"
	"expenses/internal/storage"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Apply, roll back or inspect the embedded schema migrations of the
configured store (STORE_DRIVER).`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, logger, err := storeConfig(cmd)
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(sc); err != nil {
				return err
			}
			logger.Info("Migrations applied", "driver", sc.Driver.String())
			return nil
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			sc, logger, err := storeConfig(cmd)
			if err != nil {
				return err
			}
			if err := storage.RollbackMigrations(sc, steps); err != nil {
				return err
			}
			logger.Info("Migrations rolled back", "driver", sc.Driver.String(), "steps", steps)
			return nil
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, _, err := storeConfig(cmd)
			if err != nil {
				return err
			}
			v, dirty, err := storage.MigrationVersion(sc)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	})

	return cmd
}

func storeConfig(cmd *cobra.Command) (storage.Config, *log.Logger, error) {
	cfg, logger, err := bootstrap(cmd, nil)
	if err != nil {
		return storage.Config{}, nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return storage.Config{}, nil, err
	}
	return bc.Store, logger.WithComponent(log.ComponentStorage), nil
}
