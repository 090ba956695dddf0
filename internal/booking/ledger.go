package booking

// SeatLedger is the capacity arithmetic for one class, always exercised
// inside a ClassTx so the check and the grant are a single atomic step.
// The confirmed count is derived from CONFIRMED bookings; the ledger never
// stores a counter of its own.
type SeatLedger struct{}

type ReserveResult int

const (
	Granted ReserveResult = iota
	Full
)

// TryReserve checks confirmed < capacity under the class lock. Granted means
// the caller may insert exactly one CONFIRMED booking in the same ClassTx;
// Full has no side effects.
func (SeatLedger) TryReserve(tx ClassTx) (ReserveResult, error) {
	n, err := tx.ConfirmedCount()
	if err != nil {
		return Full, err
	}
	if n >= tx.Class().Capacity {
		return Full, nil
	}
	return Granted, nil
}

// Release reports seats free after a cancellation already applied in this
// ClassTx. The caller decides whether a waitlist promotion fills them.
func (SeatLedger) Release(tx ClassTx) (free int, err error) {
	n, err := tx.ConfirmedCount()
	if err != nil {
		return 0, err
	}
	free = tx.Class().Capacity - n
	if free < 0 {
		free = 0
	}
	return free, nil
}
