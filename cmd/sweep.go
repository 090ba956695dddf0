package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Drakn-Sub/energia-total/internal/booking"
	"github.com/Drakn-Sub/energia-total/internal/clock"
	"github.com/Drakn-Sub/energia-total/internal/config"
	"github.com/Drakn-Sub/energia-total/internal/db"
	"github.com/Drakn-Sub/energia-total/internal/migrate"
	"github.com/Drakn-Sub/energia-total/internal/notify"
	"github.com/Drakn-Sub/energia-total/internal/postgres"
	"github.com/Drakn-Sub/energia-total/internal/sweeper"
)

func newSweepCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the class close-out daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			store := postgres.NewStore(d)
			clk := clock.System()
			svc := booking.NewService(store, clk, notify.NewSink(log), serviceConfig(cfg), log)

			s := &sweeper.Sweeper{
				Store:    store,
				Service:  svc,
				Clock:    clk,
				Interval: cfg.SweepInterval,
				Log:      log,
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func serviceConfig(cfg config.Config) booking.Config {
	max := cfg.MaxActiveBookings
	if max == 0 {
		max = -1 // env value 0 disables the cap
	}
	return booking.Config{
		CancelWindow:      cfg.CancelWindow,
		MaxActiveBookings: max,
		TenureWeight:      cfg.TenureWeight,
		HistoryWeight:     cfg.HistoryWeight,
	}
}
