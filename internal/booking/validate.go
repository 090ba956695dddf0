package booking

import (
	"context"
	"time"
)

// Request is the snapshot a validation check sees: the member and class as
// read before locking, plus the evaluation instant.
type Request struct {
	Member Member
	Class  GymClass
	Now    time.Time
}

// Check validates one rule, returning nil or a reject sentinel. New rules
// append to a Pipeline; existing checks are never modified.
type Check func(ctx context.Context, req Request) error

// Pipeline runs checks in order and stops at the first rejection. Later
// checks may assume earlier ones passed, so order is part of the contract.
type Pipeline []Check

func (p Pipeline) Run(ctx context.Context, req Request) error {
	for _, check := range p {
		if err := check(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func membershipActive() Check {
	return func(_ context.Context, req Request) error {
		if !req.Member.Active() {
			return ErrMembershipInactive
		}
		return nil
	}
}

// activeLimit caps future CONFIRMED bookings per member. max <= 0 disables.
func activeLimit(store Store, max int) Check {
	return func(ctx context.Context, req Request) error {
		if max <= 0 {
			return nil
		}
		n, err := store.ActiveBookings(ctx, req.Member.ID, req.Now)
		if err != nil {
			return unavailable("active bookings", err)
		}
		if n >= max {
			return ErrLimitReached
		}
		return nil
	}
}

// noDuplicate is the pre-check read; the class transaction re-verifies it.
func noDuplicate(store Store) Check {
	return func(ctx context.Context, req Request) error {
		exists, err := store.HasConfirmed(ctx, req.Member.ID, req.Class.ID)
		if err != nil {
			return unavailable("duplicate check", err)
		}
		if exists {
			return ErrAlreadyBooked
		}
		return nil
	}
}

func withinBookingWindow() Check {
	return func(_ context.Context, req Request) error {
		if !req.Now.Before(req.Class.StartsAt) {
			return ErrOutsideWindow
		}
		return nil
	}
}

// cancelDeadline refuses cancellation inside the pre-class window.
func cancelDeadline(window time.Duration) Check {
	return func(_ context.Context, req Request) error {
		if req.Class.StartsAt.Sub(req.Now) < window {
			return ErrTooLateToCancel
		}
		return nil
	}
}
