// Package notify carries booking events to whatever dispatches them. The
// engine treats delivery as fire-and-forget; this sink just records intents.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/Drakn-Sub/energia-total/internal/booking"
)

// Sink logs notification intents. Swap in an email/push implementation
// without touching the engine.
type Sink struct {
	log *zap.Logger
}

func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log}
}

func (s *Sink) Notify(_ context.Context, ev booking.Event) error {
	s.log.Info("notification intent",
		zap.String("kind", string(ev.Kind)),
		zap.String("member_id", ev.MemberID),
		zap.String("class_id", ev.ClassID),
		zap.String("booking_id", ev.BookingID),
	)
	return nil
}
