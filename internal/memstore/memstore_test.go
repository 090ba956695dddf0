package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Drakn-Sub/energia-total/internal/booking"
	"github.com/Drakn-Sub/energia-total/internal/memstore"
)

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func seeded() *memstore.Store {
	s := memstore.New()
	s.PutMember(booking.Member{ID: "m1", Status: booking.MembershipActive, JoinedAt: base.AddDate(0, 0, -30)})
	s.PutClass(booking.GymClass{
		ID: "c1", Name: "yoga", StartsAt: base.Add(6 * time.Hour), EndsAt: base.Add(7 * time.Hour), Capacity: 3,
	})
	return s
}

func TestReadsOnMissingEntities(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.Member(ctx, "nope")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	_, err = s.Class(ctx, "nope")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	_, err = s.Booking(ctx, "nope")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	_, err = s.Availability(ctx, "nope")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	err = s.UpdateClass(ctx, "nope", func(booking.ClassTx) error { return nil })
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestUpdateClassRollsBackOnError(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
		require.NoError(t, tx.InsertBooking(booking.Booking{
			ID: "b1", MemberID: "m1", ClassID: "c1", Status: booking.StatusConfirmed, CreatedAt: base,
		}))
		require.NoError(t, tx.AddWaitlistEntry(booking.WaitlistEntry{
			MemberID: "m1", ClassID: "c1", Priority: 5, EnqueuedAt: base,
		}))
		require.NoError(t, tx.IncrementCompleted("m1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// nothing staged became visible
	_, err = s.Booking(ctx, "b1")
	assert.ErrorIs(t, err, booking.ErrNotFound)
	a, err := s.Availability(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Confirmed)
	assert.Equal(t, 0, a.WaitlistLength)
	m, err := s.Member(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Completed)
}

func TestUpdateClassStagedReadsSeeOwnWrites(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	err := s.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
		require.NoError(t, tx.InsertBooking(booking.Booking{
			ID: "b1", MemberID: "m1", ClassID: "c1", Status: booking.StatusConfirmed, CreatedAt: base,
		}))
		n, err := tx.ConfirmedCount()
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		has, err := tx.HasConfirmed("m1")
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, tx.IncrementCompleted("m1"))
		m, err := tx.Member("m1")
		require.NoError(t, err)
		assert.Equal(t, 1, m.Completed)
		return nil
	})
	require.NoError(t, err)

	b, err := s.Booking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
}

func TestUpdateClassRejectsCrossClassInsert(t *testing.T) {
	s := seeded()
	s.PutClass(booking.GymClass{
		ID: "c2", Name: "hiit", StartsAt: base.Add(time.Hour), EndsAt: base.Add(2 * time.Hour), Capacity: 1,
	})

	err := s.UpdateClass(context.Background(), "c1", func(tx booking.ClassTx) error {
		return tx.InsertBooking(booking.Booking{ID: "b1", MemberID: "m1", ClassID: "c2", Status: booking.StatusConfirmed})
	})
	assert.Error(t, err)
}

func TestWaitlistDuplicateAndRemove(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	err := s.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
		require.NoError(t, tx.AddWaitlistEntry(booking.WaitlistEntry{MemberID: "m1", ClassID: "c1", Priority: 5, EnqueuedAt: base}))
		assert.Error(t, tx.AddWaitlistEntry(booking.WaitlistEntry{MemberID: "m1", ClassID: "c1", Priority: 5, EnqueuedAt: base}))
		return nil
	})
	require.NoError(t, err)

	err = s.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
		require.NoError(t, tx.RemoveWaitlistEntry("m1"))
		return tx.RemoveWaitlistEntry("m1")
	})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestActiveBookingsCountsFutureConfirmedOnly(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	s.PutClass(booking.GymClass{
		ID: "past", Name: "old", StartsAt: base.Add(-3 * time.Hour), EndsAt: base.Add(-2 * time.Hour), Capacity: 3,
	})

	insert := func(classID, bookingID string, status booking.BookingStatus) {
		err := s.UpdateClass(ctx, classID, func(tx booking.ClassTx) error {
			return tx.InsertBooking(booking.Booking{ID: bookingID, MemberID: "m1", ClassID: classID, Status: status, CreatedAt: base})
		})
		require.NoError(t, err)
	}
	insert("c1", "b-future", booking.StatusConfirmed)
	insert("past", "b-past", booking.StatusConfirmed)
	insert("c1", "b-cancelled", booking.StatusCancelled)

	n, err := s.ActiveBookings(ctx, "m1", base)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEndedClasses(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	s.PutClass(booking.GymClass{
		ID: "done", Name: "old", StartsAt: base.Add(-3 * time.Hour), EndsAt: base.Add(-2 * time.Hour), Capacity: 3,
	})
	s.PutClass(booking.GymClass{
		ID: "done-empty", Name: "old2", StartsAt: base.Add(-3 * time.Hour), EndsAt: base.Add(-2 * time.Hour), Capacity: 3,
	})

	err := s.UpdateClass(ctx, "done", func(tx booking.ClassTx) error {
		return tx.InsertBooking(booking.Booking{ID: "b1", MemberID: "m1", ClassID: "done", Status: booking.StatusConfirmed, CreatedAt: base})
	})
	require.NoError(t, err)

	ended, err := s.EndedClasses(ctx, base)
	require.NoError(t, err)
	require.Len(t, ended, 1, "only ended classes with confirmed bookings need close-out")
	assert.Equal(t, "done", ended[0].ID)
}

func TestConcurrentUpdatesStaySerialized(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	const n = 32

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return s.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
				count, err := tx.ConfirmedCount()
				if err != nil {
					return err
				}
				if count >= tx.Class().Capacity {
					return nil
				}
				return tx.InsertBooking(booking.Booking{
					ID:        fmt.Sprintf("b-%02d", i),
					MemberID:  fmt.Sprintf("m-%02d", i),
					ClassID:   "c1",
					Status:    booking.StatusConfirmed,
					CreatedAt: base,
				})
			})
		})
	}
	require.NoError(t, g.Wait())

	a, err := s.Availability(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, a.Capacity, a.Confirmed, "check-then-insert under the class lock never overbooks")
}
