package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Drakn-Sub/energia-total/internal/booking"
	"github.com/Drakn-Sub/energia-total/internal/clock"
	"github.com/Drakn-Sub/energia-total/internal/memstore"
)

func TestTickClosesOutEndedClasses(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	store := memstore.New()
	clk := clock.NewFake(base)
	svc := booking.NewService(store, clk, nil, booking.Config{}, zap.NewNop())

	store.PutMember(booking.Member{ID: "alice", Status: booking.MembershipActive, JoinedAt: base.AddDate(0, 0, -30)})
	store.PutClass(booking.GymClass{
		ID: "ended", Name: "yoga", StartsAt: base.Add(time.Hour), EndsAt: base.Add(2 * time.Hour), Capacity: 2,
	})
	store.PutClass(booking.GymClass{
		ID: "upcoming", Name: "hiit", StartsAt: base.Add(26 * time.Hour), EndsAt: base.Add(27 * time.Hour), Capacity: 2,
	})

	out, err := svc.RequestBooking(context.Background(), "alice", "ended")
	require.NoError(t, err)
	out2, err := svc.RequestBooking(context.Background(), "alice", "upcoming")
	require.NoError(t, err)

	s := &Sweeper{Store: store, Service: svc, Clock: clk, Interval: time.Minute}

	// before the class ends a tick does nothing
	s.tick(context.Background(), zap.NewNop())
	b, err := store.Booking(context.Background(), out.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)

	clk.Set(base.Add(3 * time.Hour))
	s.tick(context.Background(), zap.NewNop())

	b, err = store.Booking(context.Background(), out.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, b.Status)

	b2, err := store.Booking(context.Background(), out2.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b2.Status, "future class untouched")

	m, err := store.Member(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Completed)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := memstore.New()
	clk := clock.NewFake(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	svc := booking.NewService(store, clk, nil, booking.Config{}, zap.NewNop())
	s := &Sweeper{Store: store, Service: svc, Clock: clk, Interval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
