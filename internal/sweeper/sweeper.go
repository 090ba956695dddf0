// Package sweeper closes out finished classes on a fixed interval: whatever
// is still CONFIRMED after a class ends becomes COMPLETED and counts toward
// the member's history. No-shows are expected to be marked before the sweep.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Drakn-Sub/energia-total/internal/booking"
	"github.com/Drakn-Sub/energia-total/internal/clock"
)

type Sweeper struct {
	Store    booking.Store
	Service  *booking.Service
	Clock    clock.Clock
	Interval time.Duration
	Log      *zap.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx, log)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx, log)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context, log *zap.Logger) {
	ended, err := s.Store.EndedClasses(ctx, s.Clock.Now())
	if err != nil {
		log.Error("ended classes query failed", zap.Error(err))
		return
	}
	for _, c := range ended {
		if err := s.Service.CompleteClass(ctx, c.ID); err != nil {
			log.Error("class close-out failed", zap.String("class_id", c.ID), zap.Error(err))
			continue
		}
		log.Info("class closed out", zap.String("class_id", c.ID), zap.Time("ended_at", c.EndsAt))
	}
}
