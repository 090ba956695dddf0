// Package postgres implements booking.Store on PostgreSQL. Per-class
// serialization comes from SELECT ... FOR UPDATE on the class row; a partial
// unique index backstops the one-confirmed-booking-per-member invariant.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Drakn-Sub/energia-total/internal/booking"
	"github.com/Drakn-Sub/energia-total/internal/db"
)

type Store struct{ db *db.DB }

func NewStore(d *db.DB) *Store { return &Store{db: d} }

func (s *Store) Member(ctx context.Context, id string) (booking.Member, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, status, joined_at, completed_bookings, created_at, updated_at
FROM members WHERE id=$1`, id)
	return scanMember(row)
}

func scanMember(row db.Row) (booking.Member, error) {
	var m booking.Member
	var status string
	if err := row.Scan(&m.ID, &status, &m.JoinedAt, &m.Completed, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Member{}, booking.ErrNotFound
		}
		return booking.Member{}, err
	}
	m.Status = booking.MembershipStatus(status)
	return m, nil
}

func (s *Store) Class(ctx context.Context, id string) (booking.GymClass, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, name, room, starts_at, ends_at, capacity
FROM classes WHERE id=$1`, id)
	var c booking.GymClass
	if err := row.Scan(&c.ID, &c.Name, &c.Room, &c.StartsAt, &c.EndsAt, &c.Capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.GymClass{}, booking.ErrNotFound
		}
		return booking.GymClass{}, err
	}
	return c, nil
}

func (s *Store) Booking(ctx context.Context, id string) (booking.Booking, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, member_id, class_id, status, created_at, cancelled_at
FROM bookings WHERE id=$1`, id)
	var b booking.Booking
	var status string
	if err := row.Scan(&b.ID, &b.MemberID, &b.ClassID, &status, &b.CreatedAt, &b.CancelledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Booking{}, booking.ErrNotFound
		}
		return booking.Booking{}, err
	}
	b.Status = booking.BookingStatus(status)
	return b, nil
}

func (s *Store) HasConfirmed(ctx context.Context, memberID, classID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM bookings WHERE member_id=$1 AND class_id=$2 AND status='confirmed')`,
		memberID, classID).Scan(&exists)
	return exists, err
}

func (s *Store) ActiveBookings(ctx context.Context, memberID string, from time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
SELECT count(*)
FROM bookings b
JOIN classes c ON c.id = b.class_id
WHERE b.member_id=$1 AND b.status='confirmed' AND c.starts_at >= $2`,
		memberID, from).Scan(&n)
	return n, err
}

func (s *Store) Availability(ctx context.Context, classID string) (booking.Availability, error) {
	row := s.db.QueryRow(ctx, `
SELECT c.capacity,
       (SELECT count(*) FROM bookings b WHERE b.class_id=c.id AND b.status='confirmed'),
       (SELECT count(*) FROM waitlist w WHERE w.class_id=c.id)
FROM classes c WHERE c.id=$1`, classID)
	a := booking.Availability{ClassID: classID}
	if err := row.Scan(&a.Capacity, &a.Confirmed, &a.WaitlistLength); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Availability{}, booking.ErrNotFound
		}
		return booking.Availability{}, err
	}
	return a, nil
}

func (s *Store) EndedClasses(ctx context.Context, before time.Time) ([]booking.GymClass, error) {
	rows, err := s.db.Query(ctx, `
SELECT DISTINCT c.id, c.name, c.room, c.starts_at, c.ends_at, c.capacity
FROM classes c
JOIN bookings b ON b.class_id = c.id AND b.status='confirmed'
WHERE c.ends_at < $1
ORDER BY c.ends_at ASC`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.GymClass
	for rows.Next() {
		var c booking.GymClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Room, &c.StartsAt, &c.EndsAt, &c.Capacity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateClass(ctx context.Context, classID string, fn func(booking.ClassTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Row lock on the class serializes concurrent mutations per class.
	row := tx.QueryRow(ctx, `
SELECT id, name, room, starts_at, ends_at, capacity
FROM classes WHERE id=$1 FOR UPDATE`, classID)
	var c booking.GymClass
	if err := row.Scan(&c.ID, &c.Name, &c.Room, &c.StartsAt, &c.EndsAt, &c.Capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrNotFound
		}
		return err
	}

	if err := fn(&classTx{ctx: ctx, tx: tx, class: c}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type classTx struct {
	ctx   context.Context
	tx    pgx.Tx
	class booking.GymClass
}

func (t *classTx) Class() booking.GymClass { return t.class }

func (t *classTx) ConfirmedCount() (int, error) {
	var n int
	err := t.tx.QueryRow(t.ctx, `
SELECT count(*) FROM bookings WHERE class_id=$1 AND status='confirmed'`, t.class.ID).Scan(&n)
	return n, err
}

func (t *classTx) HasConfirmed(memberID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(t.ctx, `
SELECT EXISTS(SELECT 1 FROM bookings WHERE member_id=$1 AND class_id=$2 AND status='confirmed')`,
		memberID, t.class.ID).Scan(&exists)
	return exists, err
}

func (t *classTx) ConfirmedBookings() ([]booking.Booking, error) {
	rows, err := t.tx.Query(t.ctx, `
SELECT id, member_id, class_id, status, created_at, cancelled_at
FROM bookings WHERE class_id=$1 AND status='confirmed'
ORDER BY created_at ASC`, t.class.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		var b booking.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.MemberID, &b.ClassID, &status, &b.CreatedAt, &b.CancelledAt); err != nil {
			return nil, err
		}
		b.Status = booking.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (t *classTx) InsertBooking(b booking.Booking) error {
	_, err := t.tx.Exec(t.ctx, `
INSERT INTO bookings(id, member_id, class_id, status, created_at, cancelled_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.MemberID, b.ClassID, string(b.Status), b.CreatedAt, b.CancelledAt)
	return err
}

func (t *classTx) SetBookingStatus(bookingID string, status booking.BookingStatus, cancelledAt *time.Time) error {
	tag, err := t.tx.Exec(t.ctx, `
UPDATE bookings SET status=$2, cancelled_at=$3 WHERE id=$1`,
		bookingID, string(status), cancelledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (t *classTx) Waitlist() ([]booking.WaitlistEntry, error) {
	rows, err := t.tx.Query(t.ctx, `
SELECT member_id, class_id, priority, enqueued_at
FROM waitlist WHERE class_id=$1`, t.class.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.WaitlistEntry
	for rows.Next() {
		var e booking.WaitlistEntry
		if err := rows.Scan(&e.MemberID, &e.ClassID, &e.Priority, &e.EnqueuedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *classTx) AddWaitlistEntry(e booking.WaitlistEntry) error {
	_, err := t.tx.Exec(t.ctx, `
INSERT INTO waitlist(class_id, member_id, priority, enqueued_at)
VALUES ($1,$2,$3,$4)`,
		t.class.ID, e.MemberID, e.Priority, e.EnqueuedAt)
	return err
}

func (t *classTx) RemoveWaitlistEntry(memberID string) error {
	tag, err := t.tx.Exec(t.ctx, `
DELETE FROM waitlist WHERE class_id=$1 AND member_id=$2`, t.class.ID, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (t *classTx) Member(id string) (booking.Member, error) {
	row := t.tx.QueryRow(t.ctx, `
SELECT id, status, joined_at, completed_bookings, created_at, updated_at
FROM members WHERE id=$1`, id)
	return scanMember(row)
}

func (t *classTx) IncrementCompleted(memberID string) error {
	tag, err := t.tx.Exec(t.ctx, `
UPDATE members SET completed_bookings = completed_bookings + 1, updated_at = now()
WHERE id=$1`, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}
