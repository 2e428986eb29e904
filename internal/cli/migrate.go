package cli

import (
	"fmt"
	"log"

	"github.com/sangkips/clinic-ledger-api/internal/infrastructure/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger tables and constraints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()

			db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Env)
			if err != nil {
				return err
			}

			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Println("Migrations applied")
			return nil
		},
	}
}

func newSeedCmd(load configLoader) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed roles, permissions and the bootstrap admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			seed := cfg.Seed
			if demo {
				seed.DemoData = true
			}

			db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Env)
			if err != nil {
				return err
			}

			if err := database.SeedDefaultData(db, seed); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Println("Default data seeded")
			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "also create the demo clinic, customer and service")
	return cmd
}
