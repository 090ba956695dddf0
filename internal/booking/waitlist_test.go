package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Drakn-Sub/energia-total/internal/booking"
)

func TestWaitlistScore(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	w := booking.Waitlist{TenureWeight: 1, HistoryWeight: 10}

	m := booking.Member{JoinedAt: now.AddDate(0, 0, -30), Completed: 4}
	assert.Equal(t, 70, w.Score(m, now))

	// partial days floor down
	m = booking.Member{JoinedAt: now.Add(-36 * time.Hour), Completed: 0}
	assert.Equal(t, 1, w.Score(m, now))

	// joined-in-the-future clamps to zero tenure
	m = booking.Member{JoinedAt: now.Add(time.Hour), Completed: 1}
	assert.Equal(t, 10, w.Score(m, now))
}

func TestWaitlistScoreCustomWeights(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	w := booking.Waitlist{TenureWeight: 2, HistoryWeight: 5}
	m := booking.Member{JoinedAt: now.AddDate(0, 0, -10), Completed: 3}
	assert.Equal(t, 35, w.Score(m, now))
}

func TestNextPicksHighestPriority(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	entries := []booking.WaitlistEntry{
		{MemberID: "low", Priority: 5, EnqueuedAt: base},
		{MemberID: "high", Priority: 40, EnqueuedAt: base.Add(time.Minute)},
		{MemberID: "mid", Priority: 20, EnqueuedAt: base},
	}

	e, ok := booking.Next(entries)
	require.True(t, ok)
	assert.Equal(t, "high", e.MemberID)
}

func TestNextTieBreaksByEnqueueTime(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	entries := []booking.WaitlistEntry{
		{MemberID: "later", Priority: 20, EnqueuedAt: base.Add(time.Minute)},
		{MemberID: "earlier", Priority: 20, EnqueuedAt: base},
	}

	e, ok := booking.Next(entries)
	require.True(t, ok)
	assert.Equal(t, "earlier", e.MemberID)
}

func TestNextEmpty(t *testing.T) {
	_, ok := booking.Next(nil)
	assert.False(t, ok)
}

func TestOrdered(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	entries := []booking.WaitlistEntry{
		{MemberID: "c", Priority: 10, EnqueuedAt: base.Add(time.Minute)},
		{MemberID: "a", Priority: 30, EnqueuedAt: base},
		{MemberID: "b", Priority: 10, EnqueuedAt: base},
	}

	got := booking.Ordered(entries)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].MemberID)
	assert.Equal(t, "b", got[1].MemberID)
	assert.Equal(t, "c", got[2].MemberID)
	// input untouched
	assert.Equal(t, "c", entries[0].MemberID)
}

func TestPosition(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	entries := []booking.WaitlistEntry{
		{MemberID: "a", Priority: 30, EnqueuedAt: base},
		{MemberID: "b", Priority: 10, EnqueuedAt: base},
	}

	newcomer := booking.WaitlistEntry{MemberID: "n", Priority: 20, EnqueuedAt: base.Add(time.Minute)}
	assert.Equal(t, 2, booking.Position(entries, newcomer))

	top := booking.WaitlistEntry{MemberID: "t", Priority: 50, EnqueuedAt: base.Add(time.Minute)}
	assert.Equal(t, 1, booking.Position(entries, top))

	last := booking.WaitlistEntry{MemberID: "l", Priority: 10, EnqueuedAt: base.Add(time.Minute)}
	assert.Equal(t, 3, booking.Position(entries, last))
}
