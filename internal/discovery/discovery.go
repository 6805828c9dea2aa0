// internal/discovery/discovery.go
package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Attempt budgets. A statically configured bank expects every unit to be
// there, so one miss is enough; an auto-scan queries empty addresses.
const (
	DefaultStaticAttempts = 1
	DefaultScanAttempts   = 3
)

// Query issues one hardware-info request to addr.
// Any error counts as one failed attempt.
type Query func(ctx context.Context, addr bms.UnitAddress) (bms.HardwareInfo, error)

// Result is the outcome of one discovery pass.
type Result struct {
	Presence bms.PresenceSet
	Hardware map[bms.UnitAddress]bms.HardwareInfo
	Attempts map[bms.UnitAddress]int
}

// Discover queries each candidate up to maxAttempts times, stopping at the
// first success. It never fails; an empty presence set is a valid result.
// Candidates are queried strictly one after another.
func Discover(ctx context.Context, candidates []bms.UnitAddress, maxAttempts int, query Query, log *zap.Logger) Result {
	if log == nil {
		log = zap.NewNop()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	res := Result{
		Presence: make(bms.PresenceSet, len(candidates)),
		Hardware: make(map[bms.UnitAddress]bms.HardwareInfo),
		Attempts: make(map[bms.UnitAddress]int, len(candidates)),
	}

	for _, addr := range candidates {
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if ctx.Err() != nil {
				log.Info("discovery interrupted", zap.Error(ctx.Err()))
				return res
			}

			res.Attempts[addr] = attempt
			hw, err := query(ctx, addr)
			if err != nil {
				log.Debug("discovery attempt failed",
					zap.Stringer("unit", addr),
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", maxAttempts),
					zap.Error(err),
				)
				continue
			}

			res.Presence[addr] = true
			res.Hardware[addr] = hw
			break
		}
	}

	log.Info("connected to bms units",
		zap.Any("units", res.Presence.Present()),
		zap.Int("candidates", len(candidates)),
	)
	return res
}
