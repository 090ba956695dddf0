// Package memstore is an in-memory booking.Store with the same transactional
// guarantees as the durable one: per-class serialization and no partially
// visible mutations. It backs the engine's tests and local development.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Drakn-Sub/energia-total/internal/booking"
)

type classState struct {
	// txMu serializes UpdateClass per class; different classes proceed in
	// parallel. Data itself is guarded by Store.mu.
	txMu     sync.Mutex
	class    booking.GymClass
	waitlist []booking.WaitlistEntry
}

type Store struct {
	mu       sync.RWMutex
	members  map[string]booking.Member
	classes  map[string]*classState
	bookings map[string]booking.Booking
}

func New() *Store {
	return &Store{
		members:  make(map[string]booking.Member),
		classes:  make(map[string]*classState),
		bookings: make(map[string]booking.Booking),
	}
}

// PutMember inserts or replaces a member. Seeding/test helper; the engine
// itself never creates members.
func (s *Store) PutMember(m booking.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

func (s *Store) PutClass(c booking.GymClass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.classes[c.ID]; ok {
		cs.class = c
		return
	}
	s.classes[c.ID] = &classState{class: c}
}

func (s *Store) Member(_ context.Context, id string) (booking.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return booking.Member{}, booking.ErrNotFound
	}
	return m, nil
}

func (s *Store) Class(_ context.Context, id string) (booking.GymClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.classes[id]
	if !ok {
		return booking.GymClass{}, booking.ErrNotFound
	}
	return cs.class, nil
}

func (s *Store) Booking(_ context.Context, id string) (booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (s *Store) HasConfirmed(_ context.Context, memberID, classID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasConfirmedLocked(memberID, classID), nil
}

func (s *Store) hasConfirmedLocked(memberID, classID string) bool {
	for _, b := range s.bookings {
		if b.MemberID == memberID && b.ClassID == classID && b.Status == booking.StatusConfirmed {
			return true
		}
	}
	return false
}

func (s *Store) ActiveBookings(_ context.Context, memberID string, from time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bookings {
		if b.MemberID != memberID || b.Status != booking.StatusConfirmed {
			continue
		}
		cs, ok := s.classes[b.ClassID]
		if !ok {
			continue
		}
		if !cs.class.StartsAt.Before(from) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Availability(_ context.Context, classID string) (booking.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.classes[classID]
	if !ok {
		return booking.Availability{}, booking.ErrNotFound
	}
	return booking.Availability{
		ClassID:        classID,
		Capacity:       cs.class.Capacity,
		Confirmed:      s.confirmedCountLocked(classID),
		WaitlistLength: len(cs.waitlist),
	}, nil
}

func (s *Store) confirmedCountLocked(classID string) int {
	n := 0
	for _, b := range s.bookings {
		if b.ClassID == classID && b.Status == booking.StatusConfirmed {
			n++
		}
	}
	return n
}

func (s *Store) EndedClasses(_ context.Context, before time.Time) ([]booking.GymClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.GymClass
	for id, cs := range s.classes {
		if cs.class.EndsAt.Before(before) && s.confirmedCountLocked(id) > 0 {
			out = append(out, cs.class)
		}
	}
	return out, nil
}

func (s *Store) UpdateClass(_ context.Context, classID string, fn func(booking.ClassTx) error) error {
	s.mu.RLock()
	cs, ok := s.classes[classID]
	s.mu.RUnlock()
	if !ok {
		return booking.ErrNotFound
	}

	cs.txMu.Lock()
	defer cs.txMu.Unlock()

	s.mu.RLock()
	tx := &classTx{
		store:     s,
		classID:   classID,
		class:     cs.class,
		waitlist:  append([]booking.WaitlistEntry(nil), cs.waitlist...),
		status:    make(map[string]statusChange),
		completed: make(map[string]int),
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	// Commit. Nothing staged escapes on error above.
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range tx.inserted {
		s.bookings[b.ID] = b
	}
	for id, ch := range tx.status {
		b := s.bookings[id]
		b.Status = ch.status
		b.CancelledAt = ch.cancelledAt
		s.bookings[id] = b
	}
	for memberID, n := range tx.completed {
		m := s.members[memberID]
		m.Completed += n
		s.members[memberID] = m
	}
	cs.waitlist = tx.waitlist
	return nil
}

type statusChange struct {
	status      booking.BookingStatus
	cancelledAt *time.Time
}

// classTx stages mutations for one class and applies them atomically on
// commit. Reads see the staged state.
type classTx struct {
	store   *Store
	classID string
	class   booking.GymClass

	inserted  []booking.Booking
	status    map[string]statusChange
	waitlist  []booking.WaitlistEntry
	completed map[string]int
}

func (tx *classTx) Class() booking.GymClass { return tx.class }

func (tx *classTx) bookingsView() []booking.Booking {
	tx.store.mu.RLock()
	var out []booking.Booking
	for _, b := range tx.store.bookings {
		if b.ClassID == tx.classID {
			out = append(out, b)
		}
	}
	tx.store.mu.RUnlock()
	for i, b := range out {
		if ch, ok := tx.status[b.ID]; ok {
			out[i].Status = ch.status
			out[i].CancelledAt = ch.cancelledAt
		}
	}
	out = append(out, tx.inserted...)
	return out
}

func (tx *classTx) ConfirmedCount() (int, error) {
	n := 0
	for _, b := range tx.bookingsView() {
		if b.Status == booking.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (tx *classTx) HasConfirmed(memberID string) (bool, error) {
	for _, b := range tx.bookingsView() {
		if b.MemberID == memberID && b.Status == booking.StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (tx *classTx) ConfirmedBookings() ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range tx.bookingsView() {
		if b.Status == booking.StatusConfirmed {
			out = append(out, b)
		}
	}
	return out, nil
}

func (tx *classTx) InsertBooking(b booking.Booking) error {
	if b.ClassID != tx.classID {
		return fmt.Errorf("booking %s targets class %s, tx holds %s", b.ID, b.ClassID, tx.classID)
	}
	tx.inserted = append(tx.inserted, b)
	return nil
}

func (tx *classTx) SetBookingStatus(bookingID string, status booking.BookingStatus, cancelledAt *time.Time) error {
	for _, b := range tx.bookingsView() {
		if b.ID == bookingID {
			tx.status[bookingID] = statusChange{status: status, cancelledAt: cancelledAt}
			return nil
		}
	}
	return booking.ErrNotFound
}

func (tx *classTx) Waitlist() ([]booking.WaitlistEntry, error) {
	return append([]booking.WaitlistEntry(nil), tx.waitlist...), nil
}

func (tx *classTx) AddWaitlistEntry(e booking.WaitlistEntry) error {
	for _, have := range tx.waitlist {
		if have.MemberID == e.MemberID {
			return fmt.Errorf("member %s already waitlisted for class %s", e.MemberID, tx.classID)
		}
	}
	tx.waitlist = append(tx.waitlist, e)
	return nil
}

func (tx *classTx) RemoveWaitlistEntry(memberID string) error {
	for i, e := range tx.waitlist {
		if e.MemberID == memberID {
			tx.waitlist = append(tx.waitlist[:i], tx.waitlist[i+1:]...)
			return nil
		}
	}
	return booking.ErrNotFound
}

func (tx *classTx) Member(id string) (booking.Member, error) {
	tx.store.mu.RLock()
	m, ok := tx.store.members[id]
	tx.store.mu.RUnlock()
	if !ok {
		return booking.Member{}, booking.ErrNotFound
	}
	m.Completed += tx.completed[id]
	return m, nil
}

func (tx *classTx) IncrementCompleted(memberID string) error {
	tx.store.mu.RLock()
	_, ok := tx.store.members[memberID]
	tx.store.mu.RUnlock()
	if !ok {
		return booking.ErrNotFound
	}
	tx.completed[memberID]++
	return nil
}
