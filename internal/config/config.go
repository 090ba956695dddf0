package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// sweeper
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	// booking rules
	CancelWindow      time.Duration `envconfig:"CANCEL_WINDOW" default:"2h"`
	MaxActiveBookings int           `envconfig:"MAX_ACTIVE_BOOKINGS" default:"3"`

	// waitlist priority weights: score = tenure_days*TenureWeight + completed*HistoryWeight
	TenureWeight  int `envconfig:"WAITLIST_TENURE_WEIGHT" default:"1"`
	HistoryWeight int `envconfig:"WAITLIST_HISTORY_WEIGHT" default:"10"`
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.SweepInterval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be >= 1s")
	}
	if c.CancelWindow < 0 {
		return fmt.Errorf("CANCEL_WINDOW must not be negative")
	}
	if c.MaxActiveBookings < 0 {
		return fmt.Errorf("MAX_ACTIVE_BOOKINGS must not be negative")
	}
	if c.TenureWeight < 0 || c.HistoryWeight < 0 {
		return fmt.Errorf("waitlist weights must not be negative")
	}
	return nil
}
