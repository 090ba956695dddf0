package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Drakn-Sub/energia-total/internal/booking"
	"github.com/Drakn-Sub/energia-total/internal/memstore"
)

func TestSeatLedgerTryReserveAndRelease(t *testing.T) {
	store := memstore.New()
	store.PutMember(booking.Member{ID: "m1", Status: booking.MembershipActive, JoinedAt: baseTime})
	store.PutMember(booking.Member{ID: "m2", Status: booking.MembershipActive, JoinedAt: baseTime})
	store.PutClass(booking.GymClass{
		ID: "c1", Name: "hiit", StartsAt: baseTime.Add(time.Hour), EndsAt: baseTime.Add(2 * time.Hour), Capacity: 2,
	})

	var ledger booking.SeatLedger
	ctx := context.Background()

	// fill both seats, third reserve reports Full with no side effects
	seats := []struct{ bookingID, memberID string }{{"b1", "m1"}, {"b2", "m2"}}
	for i, seat := range seats {
		err := store.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
			res, err := ledger.TryReserve(tx)
			require.NoError(t, err)
			require.Equal(t, booking.Granted, res, "seat %d", i)
			return tx.InsertBooking(booking.Booking{
				ID: seat.bookingID, MemberID: seat.memberID, ClassID: "c1", Status: booking.StatusConfirmed, CreatedAt: baseTime,
			})
		})
		require.NoError(t, err)
	}

	err := store.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
		res, err := ledger.TryReserve(tx)
		require.NoError(t, err)
		assert.Equal(t, booking.Full, res)
		return nil
	})
	require.NoError(t, err)

	a, err := store.Availability(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Confirmed)

	// cancelling one frees exactly one seat
	err = store.UpdateClass(ctx, "c1", func(tx booking.ClassTx) error {
		cancelledAt := baseTime
		require.NoError(t, tx.SetBookingStatus("b1", booking.StatusCancelled, &cancelledAt))
		free, err := ledger.Release(tx)
		require.NoError(t, err)
		assert.Equal(t, 1, free)
		return nil
	})
	require.NoError(t, err)

	a, err = store.Availability(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Confirmed)
	assert.Equal(t, 1, a.Free())
}
