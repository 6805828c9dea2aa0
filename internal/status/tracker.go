// internal/status/tracker.go
package status

import "github.com/tamzrod/eg4-bank/internal/bms"

// Tracker owns the status snapshot transitions for one bank.
// It is driven by refresh outcomes and a 1 Hz tick. Not safe for
// concurrent use; the orchestrator goroutine owns it.
type Tracker struct {
	snap Snapshot

	// staleAfter is the number of ticks without a refresh outcome after
	// which an OK bank becomes stale. 0 disables staleness.
	staleAfter int
	quiet      int
}

func NewTracker(staleAfter int) *Tracker {
	return &Tracker{
		snap:       Snapshot{Health: HealthUnknown},
		staleAfter: staleAfter,
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe applies one refresh outcome. units is the number of units folded
// into the published pack (ignored on error). It reports whether the
// snapshot changed.
func (t *Tracker) Observe(err error, units int) bool {
	t.quiet = 0
	prev := t.snap

	if err == nil {
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.UnitsPresent = uint16(units)
	} else {
		t.snap.Health = HealthError
		t.snap.LastErrorCode = bms.ErrorCode(err)
		// seconds_in_error increments on the tick only
	}

	return prev != t.snap
}

// Tick advances one second. It reports whether the snapshot changed.
func (t *Tracker) Tick() bool {
	t.quiet++

	switch t.snap.Health {
	case HealthOK:
		if t.staleAfter > 0 && t.quiet > t.staleAfter {
			t.snap.Health = HealthStale
			return true
		}
		return false
	default:
		if t.snap.SecondsInError < MaxSeconds {
			t.snap.SecondsInError++
			return true
		}
		return false
	}
}
