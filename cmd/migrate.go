package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Drakn-Sub/energia-total/internal/config"
	"github.com/Drakn-Sub/energia-total/internal/db"
	"github.com/Drakn-Sub/energia-total/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			return migrate.Up(ctx, d)
		},
	}
}
