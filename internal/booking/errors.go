package booking

import (
	"errors"
	"fmt"
)

// Business-rule rejections. These are the only errors callers should branch
// on; anything wrapping ErrUnavailable is an infrastructure failure and safe
// to retry.
var (
	ErrMembershipInactive = errors.New("membership inactive")
	ErrAlreadyBooked      = errors.New("already booked")
	ErrLimitReached       = errors.New("active booking limit reached")
	ErrOutsideWindow      = errors.New("class no longer open for booking")
	ErrTooLateToCancel    = errors.New("too late to cancel")
	ErrNotFound           = errors.New("not found")
	ErrNotOwner           = errors.New("booking belongs to another member")

	ErrUnavailable = errors.New("store unavailable")
)

// IsReject reports whether err is a business-rule rejection rather than an
// infrastructure failure.
func IsReject(err error) bool {
	for _, r := range []error{
		ErrMembershipInactive, ErrAlreadyBooked, ErrLimitReached,
		ErrOutsideWindow, ErrTooLateToCancel, ErrNotFound, ErrNotOwner,
	} {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
