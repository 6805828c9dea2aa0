// internal/balance/balance.go
package balance

import (
	"math"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Thresholds used by the BMU firmware defaults.
// They are not read from the unit configuration block.
const (
	DeltaThreshold   = 0.40 // V, cell max - cell min
	VoltageThreshold = 3.40 // V, cell max
)

// Evaluate derives the balancing state of one unit.
//
// Precedence:
//  1. max > 3.40 and delta <= 0.40  -> Finished
//  2. delta >= 0.40 and max >= 3.40 -> Active
//  3. otherwise                     -> Off
func Evaluate(cellMax, cellMin float64) bms.BalancingState {
	delta := round3(cellMax - cellMin)

	if cellMax > VoltageThreshold && delta <= DeltaThreshold {
		return bms.BalancingFinished
	}
	if delta >= DeltaThreshold && cellMax >= VoltageThreshold {
		return bms.BalancingActive
	}
	return bms.BalancingOff
}

// Fold combines per-unit states into the pack state.
// Finished only when every unit is Finished; Active when any unit is;
// Off otherwise, including for an empty input.
func Fold(states []bms.BalancingState) bms.BalancingState {
	if len(states) == 0 {
		return bms.BalancingOff
	}

	finished := true
	active := false
	for _, s := range states {
		if s != bms.BalancingFinished {
			finished = false
		}
		if s == bms.BalancingActive {
			active = true
		}
	}

	switch {
	case finished:
		return bms.BalancingFinished
	case active:
		return bms.BalancingActive
	default:
		return bms.BalancingOff
	}
}

// round3 drops float noise below a millivolt so 3.45-3.05 compares as 0.40.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
