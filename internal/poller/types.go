// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/eg4-bank/internal/bank"
	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Transport is the byte-level link to the chain.
// One call is one blocking round-trip; the transport performs no retries.
type Transport interface {
	Exchange(req []byte) ([]byte, error)
}

// Recorder receives per-request and per-cycle outcomes (metrics).
type Recorder interface {
	Request(addr bms.UnitAddress, kind bms.RequestKind, err error)
	Discovery(p bms.PresenceSet)
	Refresh(p bms.PackTelemetry, err error, took time.Duration)
}

// Config is the runtime config one polling session needs.
type Config struct {
	// Units is the static bank. Empty means auto-scan 1..16.
	Units []bms.UnitAddress

	StaticAttempts int
	ScanAttempts   int

	// RediscoverCycles is the number of refresh cycles between full
	// rediscoveries while the master is absent. <= 0 means every cycle.
	RediscoverCycles int
	// RecheckMissingCycles is the number of refresh cycles between rechecks of
	// candidates that did not answer discovery. 0 disables.
	RecheckMissingCycles int

	Interval time.Duration
	// Settle is the minimum gap between consecutive bus requests.
	Settle time.Duration

	Mode bank.Mode

	HexDump      bool
	StatusReport bool
}

// RefreshResult is the snapshot produced by one refresh cycle.
type RefreshResult struct {
	SessionID string
	At        time.Time

	// Pack is the newly published pack; zero when Err is set.
	Pack bms.PackTelemetry
	// Units counts the units that answered this cycle.
	Units int
	Err   error // non-nil means the cycle failed and nothing was published
}

type nopRecorder struct{}

func (nopRecorder) Request(bms.UnitAddress, bms.RequestKind, error) {}
func (nopRecorder) Discovery(bms.PresenceSet)                       {}
func (nopRecorder) Refresh(bms.PackTelemetry, error, time.Duration) {}
