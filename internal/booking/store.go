package booking

import (
	"context"
	"time"
)

// Store is the transactional persistence boundary. Reads outside UpdateClass
// are consistent snapshots with no locking; everything that touches a class's
// seat accounting happens inside UpdateClass.
type Store interface {
	Member(ctx context.Context, id string) (Member, error)
	Class(ctx context.Context, id string) (GymClass, error)
	Booking(ctx context.Context, id string) (Booking, error)

	// HasConfirmed reports whether member holds a CONFIRMED booking for class.
	HasConfirmed(ctx context.Context, memberID, classID string) (bool, error)

	// ActiveBookings counts CONFIRMED bookings the member holds for classes
	// starting at or after the given instant.
	ActiveBookings(ctx context.Context, memberID string, from time.Time) (int, error)

	Availability(ctx context.Context, classID string) (Availability, error)

	// EndedClasses lists classes whose end time is before the given instant
	// and which still have CONFIRMED bookings to close out.
	EndedClasses(ctx context.Context, before time.Time) ([]GymClass, error)

	// UpdateClass runs fn inside a read-modify-write scope serialized per
	// class: two concurrent calls for the same class never interleave, calls
	// for different classes proceed in parallel. If fn returns an error no
	// mutation becomes visible.
	UpdateClass(ctx context.Context, classID string, fn func(ClassTx) error) error
}

// ClassTx is the mutation surface available inside UpdateClass. All reads
// reflect the serialized state of the locked class.
type ClassTx interface {
	Class() GymClass
	ConfirmedCount() (int, error)
	HasConfirmed(memberID string) (bool, error)
	ConfirmedBookings() ([]Booking, error)

	InsertBooking(b Booking) error
	SetBookingStatus(bookingID string, status BookingStatus, cancelledAt *time.Time) error

	Waitlist() ([]WaitlistEntry, error)
	AddWaitlistEntry(e WaitlistEntry) error
	RemoveWaitlistEntry(memberID string) error

	// Member re-reads a member inside the transaction; promotion must see
	// the current membership status, not the pre-lock snapshot.
	Member(id string) (Member, error)
	IncrementCompleted(memberID string) error
}
