package booking

import (
	"sort"
	"time"
)

// Waitlist scores and orders pending members for a full class. Higher score
// wins; equal scores fall back to earliest enqueue time.
type Waitlist struct {
	TenureWeight  int
	HistoryWeight int
}

// Score computes the priority a member carries onto a waitlist. The score is
// fixed at enqueue time and stored on the entry.
func (w Waitlist) Score(m Member, now time.Time) int {
	return m.TenureDays(now)*w.TenureWeight + m.Completed*w.HistoryWeight
}

func entryLess(a, b WaitlistEntry) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.EnqueuedAt.Before(b.EnqueuedAt)
}

// Ordered returns entries sorted into promotion order.
func Ordered(entries []WaitlistEntry) []WaitlistEntry {
	out := make([]WaitlistEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return entryLess(out[i], out[j]) })
	return out
}

// Next picks the entry to promote, or false on an empty waitlist.
func Next(entries []WaitlistEntry) (WaitlistEntry, bool) {
	if len(entries) == 0 {
		return WaitlistEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if entryLess(e, best) {
			best = e
		}
	}
	return best, true
}

// Position is the 1-based promotion position entry would hold among entries.
func Position(entries []WaitlistEntry, e WaitlistEntry) int {
	pos := 1
	for _, other := range entries {
		if other.MemberID == e.MemberID {
			continue
		}
		if entryLess(other, e) {
			pos++
		}
	}
	return pos
}
