package booking

import (
	"context"
	"time"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipSuspended MembershipStatus = "suspended"
	MembershipExpired   MembershipStatus = "expired"
)

// Member is the authenticated identity booking a class. Registration and
// credential handling live outside this module; members arrive fully formed.
type Member struct {
	ID        string
	Status    MembershipStatus
	JoinedAt  time.Time
	Completed int // completed bookings to date, feeds waitlist priority

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Member) Active() bool { return m.Status == MembershipActive }

// TenureDays is whole days of membership at the given instant.
func (m Member) TenureDays(now time.Time) int {
	d := now.Sub(m.JoinedAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

type GymClass struct {
	ID       string
	Name     string
	Room     string
	StartsAt time.Time
	EndsAt   time.Time
	Capacity int
}

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
	StatusCompleted BookingStatus = "completed"
)

// Booking is the soft-state reservation record. Rows are never deleted;
// status transitions (all of which go through Service) keep the audit trail.
type Booking struct {
	ID          string
	MemberID    string
	ClassID     string
	Status      BookingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

type WaitlistEntry struct {
	MemberID   string
	ClassID    string
	Priority   int
	EnqueuedAt time.Time
}

type Availability struct {
	ClassID        string
	Capacity       int
	Confirmed      int
	WaitlistLength int
}

func (a Availability) Free() int {
	if n := a.Capacity - a.Confirmed; n > 0 {
		return n
	}
	return 0
}

type EventKind string

const (
	EventBookingConfirmed     EventKind = "booking_confirmed"
	EventBookingCancelled     EventKind = "booking_cancelled"
	EventPromotedFromWaitlist EventKind = "promoted_from_waitlist"
)

// Event is a notification intent. Delivery (email, push, whatever) is an
// external concern; the engine only says what happened to whom.
type Event struct {
	Kind      EventKind
	MemberID  string
	ClassID   string
	BookingID string
}

// NotificationSink receives events fire-and-forget: a sink error never
// rolls back the state change that produced the event.
type NotificationSink interface {
	Notify(ctx context.Context, ev Event) error
}
