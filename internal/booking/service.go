package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Drakn-Sub/energia-total/internal/clock"
)

// Config carries the booking rules a deployment tunes. Zero values fall back
// to the defaults of the original gym rules.
type Config struct {
	CancelWindow      time.Duration // refuse cancellation this close to start
	MaxActiveBookings int           // future CONFIRMED bookings per member, 0 = default, <0 = unlimited
	TenureWeight      int
	HistoryWeight     int
}

func (c Config) withDefaults() Config {
	if c.CancelWindow == 0 {
		c.CancelWindow = 2 * time.Hour
	}
	if c.MaxActiveBookings == 0 {
		c.MaxActiveBookings = 3
	}
	if c.TenureWeight == 0 && c.HistoryWeight == 0 {
		c.TenureWeight, c.HistoryWeight = 1, 10
	}
	return c
}

// Service is the single entry point for booking mutations. All Booking and
// WaitlistEntry writes in the system go through it.
type Service struct {
	store Store
	clock clock.Clock
	sink  NotificationSink
	log   *zap.Logger

	ledger   SeatLedger
	waitlist Waitlist

	bookChecks   Pipeline
	cancelChecks Pipeline
}

func NewService(store Store, clk clock.Clock, sink NotificationSink, cfg Config, log *zap.Logger) *Service {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:    store,
		clock:    clk,
		sink:     sink,
		log:      log,
		waitlist: Waitlist{TenureWeight: cfg.TenureWeight, HistoryWeight: cfg.HistoryWeight},
	}
	// Order matters: the deadline and capacity decisions assume the earlier
	// checks passed.
	s.bookChecks = Pipeline{
		membershipActive(),
		activeLimit(store, cfg.MaxActiveBookings),
		noDuplicate(store),
		withinBookingWindow(),
	}
	s.cancelChecks = Pipeline{
		cancelDeadline(cfg.CancelWindow),
	}
	return s
}

// Outcome reports how a booking request landed: a confirmed seat or a
// waitlist slot. Rejections come back as errors instead.
type Outcome struct {
	BookingID  string
	Waitlisted bool
	Position   int
}

// RequestBooking validates, then reserves a seat or falls back to the
// waitlist. The capacity and duplicate decisions are re-verified inside the
// per-class transaction; the pre-checks only fail fast.
func (s *Service) RequestBooking(ctx context.Context, memberID, classID string) (Outcome, error) {
	member, err := s.getMember(ctx, memberID)
	if err != nil {
		return Outcome{}, err
	}
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return Outcome{}, err
	}

	now := s.clock.Now()
	req := Request{Member: member, Class: class, Now: now}
	if err := s.bookChecks.Run(ctx, req); err != nil {
		return Outcome{}, err
	}

	var (
		out    Outcome
		events []Event
	)
	err = s.store.UpdateClass(ctx, classID, func(tx ClassTx) error {
		booked, err := tx.HasConfirmed(memberID)
		if err != nil {
			return err
		}
		if booked {
			return ErrAlreadyBooked
		}

		res, err := s.ledger.TryReserve(tx)
		if err != nil {
			return err
		}
		if res == Granted {
			b := Booking{
				ID:        uuid.NewString(),
				MemberID:  memberID,
				ClassID:   classID,
				Status:    StatusConfirmed,
				CreatedAt: now,
			}
			if err := tx.InsertBooking(b); err != nil {
				return err
			}
			out = Outcome{BookingID: b.ID}
			events = append(events, Event{Kind: EventBookingConfirmed, MemberID: memberID, ClassID: classID, BookingID: b.ID})
			return nil
		}

		// Full: join (or keep) the waitlist.
		entries, err := tx.Waitlist()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.MemberID == memberID {
				out = Outcome{Waitlisted: true, Position: Position(entries, e)}
				return nil
			}
		}
		e := WaitlistEntry{
			MemberID:   memberID,
			ClassID:    classID,
			Priority:   s.waitlist.Score(member, now),
			EnqueuedAt: now,
		}
		if err := tx.AddWaitlistEntry(e); err != nil {
			return err
		}
		out = Outcome{Waitlisted: true, Position: Position(entries, e)}
		return nil
	})
	if err != nil {
		if IsReject(err) {
			return Outcome{}, err
		}
		return Outcome{}, unavailable("request booking", err)
	}

	s.emit(ctx, events)
	if out.Waitlisted {
		s.log.Info("member waitlisted",
			zap.String("member_id", memberID), zap.String("class_id", classID), zap.Int("position", out.Position))
	} else {
		s.log.Info("booking confirmed",
			zap.String("member_id", memberID), zap.String("class_id", classID), zap.String("booking_id", out.BookingID))
	}
	return out, nil
}

// CancelBooking cancels a CONFIRMED booking owned by actingMemberID, frees
// the seat, and promotes from the waitlist within the same class-exclusive
// scope so a concurrent request cannot steal the freed seat.
func (s *Service) CancelBooking(ctx context.Context, bookingID, actingMemberID string) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.MemberID != actingMemberID {
		return ErrNotOwner
	}
	if b.Status != StatusConfirmed {
		return ErrNotFound
	}
	class, err := s.getClass(ctx, b.ClassID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.cancelChecks.Run(ctx, Request{Class: class, Now: now}); err != nil {
		return err
	}

	var events []Event
	err = s.store.UpdateClass(ctx, b.ClassID, func(tx ClassTx) error {
		confirmed, err := tx.ConfirmedBookings()
		if err != nil {
			return err
		}
		found := false
		for _, cb := range confirmed {
			if cb.ID == bookingID {
				found = true
				break
			}
		}
		if !found {
			// Lost a race with another cancellation of the same booking.
			return ErrNotFound
		}

		cancelledAt := now
		if err := tx.SetBookingStatus(bookingID, StatusCancelled, &cancelledAt); err != nil {
			return err
		}
		events = append(events, Event{Kind: EventBookingCancelled, MemberID: actingMemberID, ClassID: b.ClassID, BookingID: bookingID})

		free, err := s.ledger.Release(tx)
		if err != nil {
			return err
		}
		if free <= 0 {
			return nil
		}
		ev, err := s.promoteNext(tx, b.ClassID, now)
		if err != nil {
			return err
		}
		if ev != nil {
			events = append(events, *ev)
		}
		return nil
	})
	if err != nil {
		if IsReject(err) {
			return err
		}
		return unavailable("cancel booking", err)
	}

	s.emit(ctx, events)
	s.log.Info("booking cancelled",
		zap.String("member_id", actingMemberID), zap.String("class_id", b.ClassID), zap.String("booking_id", bookingID))
	return nil
}

// promoteNext fills one freed seat: highest score wins, ties go to the
// earliest enqueue. Entries whose member is no longer active are discarded
// (never re-queued) and the next entry is tried, so an inactive member can
// never receive a promoted seat.
func (s *Service) promoteNext(tx ClassTx, classID string, now time.Time) (*Event, error) {
	for {
		entries, err := tx.Waitlist()
		if err != nil {
			return nil, err
		}
		e, ok := Next(entries)
		if !ok {
			return nil, nil
		}
		if err := tx.RemoveWaitlistEntry(e.MemberID); err != nil {
			return nil, err
		}
		m, err := tx.Member(e.MemberID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !m.Active() {
			continue
		}
		nb := Booking{
			ID:        uuid.NewString(),
			MemberID:  e.MemberID,
			ClassID:   classID,
			Status:    StatusConfirmed,
			CreatedAt: now,
		}
		if err := tx.InsertBooking(nb); err != nil {
			return nil, err
		}
		return &Event{Kind: EventPromotedFromWaitlist, MemberID: e.MemberID, ClassID: classID, BookingID: nb.ID}, nil
	}
}

// WithdrawWaitlist removes the member's pending entry for a class.
func (s *Service) WithdrawWaitlist(ctx context.Context, memberID, classID string) error {
	err := s.store.UpdateClass(ctx, classID, func(tx ClassTx) error {
		entries, err := tx.Waitlist()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.MemberID == memberID {
				return tx.RemoveWaitlistEntry(memberID)
			}
		}
		return ErrNotFound
	})
	if err != nil {
		if IsReject(err) {
			return err
		}
		return unavailable("withdraw waitlist", err)
	}
	s.log.Info("waitlist withdrawn", zap.String("member_id", memberID), zap.String("class_id", classID))
	return nil
}

// Availability is a snapshot read; no locking beyond store consistency.
func (s *Service) Availability(ctx context.Context, classID string) (Availability, error) {
	a, err := s.store.Availability(ctx, classID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Availability{}, ErrNotFound
		}
		return Availability{}, unavailable("availability", err)
	}
	return a, nil
}

// MarkNoShow records non-attendance on a CONFIRMED booking. The seat is not
// released: the class has started, so there is nothing left to promote into.
func (s *Service) MarkNoShow(ctx context.Context, bookingID string) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	err = s.store.UpdateClass(ctx, b.ClassID, func(tx ClassTx) error {
		confirmed, err := tx.ConfirmedBookings()
		if err != nil {
			return err
		}
		for _, cb := range confirmed {
			if cb.ID == bookingID {
				return tx.SetBookingStatus(bookingID, StatusNoShow, nil)
			}
		}
		return ErrNotFound
	})
	if err != nil {
		if IsReject(err) {
			return err
		}
		return unavailable("mark no-show", err)
	}
	s.log.Info("no-show recorded", zap.String("booking_id", bookingID), zap.String("class_id", b.ClassID))
	return nil
}

// CompleteClass closes out a finished class: every booking still CONFIRMED
// becomes COMPLETED and counts toward its member's completed total, which
// feeds future waitlist priority.
func (s *Service) CompleteClass(ctx context.Context, classID string) error {
	err := s.store.UpdateClass(ctx, classID, func(tx ClassTx) error {
		confirmed, err := tx.ConfirmedBookings()
		if err != nil {
			return err
		}
		for _, cb := range confirmed {
			if err := tx.SetBookingStatus(cb.ID, StatusCompleted, nil); err != nil {
				return err
			}
			if err := tx.IncrementCompleted(cb.MemberID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if IsReject(err) {
			return err
		}
		return unavailable("complete class", err)
	}
	s.log.Info("class completed", zap.String("class_id", classID))
	return nil
}

func (s *Service) emit(ctx context.Context, events []Event) {
	if s.sink == nil {
		return
	}
	for _, ev := range events {
		if err := s.sink.Notify(ctx, ev); err != nil {
			s.log.Warn("notification delivery failed",
				zap.String("kind", string(ev.Kind)), zap.String("member_id", ev.MemberID), zap.Error(err))
		}
	}
}

func (s *Service) getMember(ctx context.Context, id string) (Member, error) {
	m, err := s.store.Member(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Member{}, ErrNotFound
		}
		return Member{}, unavailable("load member", err)
	}
	return m, nil
}

func (s *Service) getClass(ctx context.Context, id string) (GymClass, error) {
	c, err := s.store.Class(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return GymClass{}, ErrNotFound
		}
		return GymClass{}, unavailable("load class", err)
	}
	return c, nil
}

func (s *Service) getBooking(ctx context.Context, id string) (Booking, error) {
	b, err := s.store.Booking(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, unavailable("load booking", err)
	}
	return b, nil
}
