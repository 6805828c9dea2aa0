// internal/bank/aggregate.go
package bank

import (
	"fmt"
	"math"
	"sort"

	"github.com/tamzrod/eg4-bank/internal/balance"
	"github.com/tamzrod/eg4-bank/internal/bms"
	"github.com/tamzrod/eg4-bank/internal/fault"
)

// Mode selects how averaged fields fold across units.
type Mode string

const (
	// ModePairwise reproduces the legacy two-unit fold: each secondary is
	// averaged against the running value ((a+b)/2), and the pack cell array
	// is the master's first PackCellSlice cells. Exact for two units only.
	ModePairwise Mode = "pairwise"

	// ModeMean takes a true arithmetic mean over all present units and
	// publishes the master's full cell array.
	ModeMean Mode = "mean"
)

// PackCellSlice is the fixed number of master cells published in pairwise mode.
const PackCellSlice = 4

// ParseMode maps a config value to a Mode. Empty means pairwise.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePairwise:
		return ModePairwise, nil
	case ModeMean:
		return ModeMean, nil
	default:
		return "", fmt.Errorf("bank: unknown aggregation mode %q", s)
	}
}

// Aggregator folds per-unit telemetry into one pack record.
// It holds no state between calls.
type Aggregator struct {
	mode Mode
}

func New(mode Mode) *Aggregator {
	if mode == "" {
		mode = ModePairwise
	}
	return &Aggregator{mode: mode}
}

func (a *Aggregator) Mode() Mode { return a.mode }

// Aggregate merges perUnit into a pack record. A nil entry means the unit
// is absent this cycle. The master (16) seeds every field; the other
// present units fold in ascending address order.
//
// Failures:
//   - master absent                            -> ErrMasterMissing
//   - master has fewer cells than the pack uses -> ErrCellCountMismatch
func (a *Aggregator) Aggregate(perUnit map[bms.UnitAddress]*bms.UnitTelemetry) (bms.PackTelemetry, error) {
	master := perUnit[bms.MasterAddress]
	if master == nil {
		return bms.PackTelemetry{}, &bms.AggregationError{
			Err:    bms.ErrMasterMissing,
			Detail: fmt.Sprintf("%d other unit(s) present", countPresent(perUnit)),
		}
	}

	cells, err := a.packCells(master)
	if err != nil {
		return bms.PackTelemetry{}, err
	}

	units := []*bms.UnitTelemetry{master}
	for _, addr := range secondaries(perUnit) {
		units = append(units, perUnit[addr])
	}

	p := bms.PackTelemetry{
		Voltage:        master.CellSum,
		Current:        master.Current,
		CapacityRemain: master.CapacityRemain,
		Capacity:       master.Capacity,
		SoC:            master.SoC,
		SoH:            master.SoH,
		Cycles:         master.Cycles,
		Temp1:          master.Temp1,
		Temp2:          master.Temp2,
		TempMOS:        master.TempMOS,
		CellCount:      master.CellCount,
		Cells:          cells,
	}

	for _, u := range units[1:] {
		if a.mode == ModePairwise {
			p.Voltage = (p.Voltage + u.CellSum) / 2
			p.SoC = (p.SoC + u.SoC) / 2
			p.SoH = (p.SoH + u.SoH) / 2
		}
		p.Current = round2(p.Current + u.Current)
		p.CapacityRemain += u.CapacityRemain
		p.Capacity += u.Capacity
		p.Cycles = max(p.Cycles, u.Cycles)
		p.Temp1 = max(p.Temp1, u.Temp1)
		p.Temp2 = max(p.Temp2, u.Temp2)
		p.TempMOS = max(p.TempMOS, u.TempMOS)
	}

	if a.mode == ModeMean {
		var v, soc, soh float64
		for _, u := range units {
			v += u.CellSum
			soc += u.SoC
			soh += u.SoH
		}
		n := float64(len(units))
		p.Voltage = v / n
		p.SoC = soc / n
		p.SoH = soh / n
	}

	p.TempMax = max(p.Temp1, p.Temp2)
	p.TempMin = min(p.Temp1, p.Temp2)

	p.CellMax, p.CellMin = cells[0], cells[0]
	for _, v := range cells[1:] {
		p.CellMax = math.Max(p.CellMax, v)
		p.CellMin = math.Min(p.CellMin, v)
	}

	states := make([]bms.BalancingState, 0, len(units))
	var warn, prot, errs []uint16
	for _, u := range units {
		states = append(states, u.Balancing)
		warn = append(warn, u.WarningCode)
		prot = append(prot, u.ProtectionCode)
		errs = append(errs, u.ErrorCode)
		p.Units = append(p.Units, u.Address)
	}
	p.Balancing = balance.Fold(states)

	ws := fault.Summarize(fault.Warning, warn)
	ps := fault.Summarize(fault.Protection, prot)
	es := fault.Summarize(fault.Error, errs)
	p.Warnings = ws.Text()
	p.Protections = ps.Text()
	p.Errors = es.Text()
	p.Alarms.Merge(ws.Alarms)
	p.Alarms.Merge(ps.Alarms)

	return p, nil
}

func (a *Aggregator) packCells(master *bms.UnitTelemetry) ([]float64, error) {
	n := len(master.Cells)
	if a.mode == ModePairwise {
		n = PackCellSlice
	}
	if n == 0 || len(master.Cells) < n {
		return nil, &bms.AggregationError{
			Err:    bms.ErrCellCountMismatch,
			Detail: fmt.Sprintf("master has %d cells, pack needs %d", len(master.Cells), n),
		}
	}
	return append([]float64(nil), master.Cells[:n]...), nil
}

// ---- helpers ----

func secondaries(perUnit map[bms.UnitAddress]*bms.UnitTelemetry) []bms.UnitAddress {
	out := make([]bms.UnitAddress, 0, len(perUnit))
	for addr, u := range perUnit {
		if u != nil && !addr.IsMaster() {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func countPresent(perUnit map[bms.UnitAddress]*bms.UnitTelemetry) int {
	n := 0
	for _, u := range perUnit {
		if u != nil {
			n++
		}
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
