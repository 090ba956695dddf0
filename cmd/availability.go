package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Drakn-Sub/energia-total/internal/config"
	"github.com/Drakn-Sub/energia-total/internal/db"
	"github.com/Drakn-Sub/energia-total/internal/postgres"
)

func newAvailabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "availability <class-id>",
		Short: "Show seat availability for a class",
		Args:  cobra.ExactArgs(1),
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

			a, err := postgres.NewStore(d).Availability(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("class=%s capacity=%d confirmed=%d free=%d waitlist=%d\n",
				a.ClassID, a.Capacity, a.Confirmed, a.Free(), a.WaitlistLength)
			return nil
		},
	}
}
