// internal/bms/telemetry.go
package bms

import "time"

// BalancingState is the derived cell equalization state of one unit or the pack.
// Numeric values match the legacy balancing codes (0 off, 1 active, 2 finished).
type BalancingState uint8

const (
	BalancingOff BalancingState = iota
	BalancingActive
	BalancingFinished
)

func (b BalancingState) String() string {
	switch b {
	case BalancingActive:
		return "Balancing"
	case BalancingFinished:
		return "Finished"
	default:
		return "Off"
	}
}

// HardwareInfo is the decoded hardware-info block of one unit.
type HardwareInfo struct {
	Address UnitAddress
	Make    string
	Version string
	Serial  string
}

// UnitTelemetry is one decoded cell-telemetry snapshot.
// It is built whole by the frame decoder and never mutated afterwards.
type UnitTelemetry struct {
	Address UnitAddress

	Voltage          float64 // V
	Current          float64 // A, negative = discharge
	CapacityRemain   float64 // raw remaining capacity
	Capacity         float64 // Ah
	MaxChargeCurrent float64
	SoC              float64 // %
	SoH              float64 // %
	Cycles           uint32

	Temp1   int // °C
	Temp2   int
	TempMOS int
	TempMax int
	TempMin int

	CellCount int
	Cells     []float64 // len == CellCount, V
	CellSum   float64
	CellMax   float64
	CellMin   float64

	StatusCode     uint16
	WarningCode    uint16
	ProtectionCode uint16
	ErrorCode      uint16
	HeaterCode     uint16

	Balancing BalancingState

	// UpdatedAt is when the session read this record; zero straight from
	// the decoder.
	UpdatedAt time.Time
}

// CellDelta is the spread between the highest and lowest cell.
func (u UnitTelemetry) CellDelta() float64 {
	return u.CellMax - u.CellMin
}

// Severity grades an elevated condition.
// Values match the legacy alarm levels (0 none, 1 warning, 2 protection).
type Severity uint8

const (
	SeverityNone Severity = iota
	SeveritySoft
	SeverityHard
)

func (s Severity) String() string {
	switch s {
	case SeveritySoft:
		return "warning"
	case SeverityHard:
		return "protection"
	default:
		return "ok"
	}
}

// Alarms carries the elevated-condition flags downstream charge control reads.
// This package only produces them.
type Alarms struct {
	VoltageHigh       Severity `json:"voltage_high"`
	VoltageCellHigh   Severity `json:"voltage_cell_high"`
	VoltageLow        Severity `json:"voltage_low"`
	VoltageCellLow    Severity `json:"voltage_cell_low"`
	CurrentOver       Severity `json:"current_over"`
	TempHighInternal  Severity `json:"temp_high_internal"`
	TempHighCharge    Severity `json:"temp_high_charge"`
	TempHighDischarge Severity `json:"temp_high_discharge"`
	TempLowCharge     Severity `json:"temp_low_charge"`
	SocLow            Severity `json:"soc_low"`
	InternalFailure   Severity `json:"internal_failure"`
}

// Merge raises every flag in a to at least the level in b.
func (a *Alarms) Merge(b Alarms) {
	raise(&a.VoltageHigh, b.VoltageHigh)
	raise(&a.VoltageCellHigh, b.VoltageCellHigh)
	raise(&a.VoltageLow, b.VoltageLow)
	raise(&a.VoltageCellLow, b.VoltageCellLow)
	raise(&a.CurrentOver, b.CurrentOver)
	raise(&a.TempHighInternal, b.TempHighInternal)
	raise(&a.TempHighCharge, b.TempHighCharge)
	raise(&a.TempHighDischarge, b.TempHighDischarge)
	raise(&a.TempLowCharge, b.TempLowCharge)
	raise(&a.SocLow, b.SocLow)
	raise(&a.InternalFailure, b.InternalFailure)
}

func raise(dst *Severity, v Severity) {
	if v > *dst {
		*dst = v
	}
}

// PackTelemetry is the bank-level view published once per refresh cycle.
type PackTelemetry struct {
	Voltage        float64
	Current        float64
	CapacityRemain float64
	Capacity       float64
	SoC            float64
	SoH            float64
	Cycles         uint32

	Temp1   int
	Temp2   int
	TempMOS int
	TempMax int
	TempMin int

	CellCount int
	Cells     []float64
	CellMax   float64
	CellMin   float64

	Balancing BalancingState

	Warnings    string
	Protections string
	Errors      string
	Alarms      Alarms

	// Units lists the addresses folded into this record, master first.
	Units     []UnitAddress
	UpdatedAt time.Time
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p PackTelemetry) Clone() PackTelemetry {
	out := p
	out.Cells = append([]float64(nil), p.Cells...)
	out.Units = append([]UnitAddress(nil), p.Units...)
	return out
}
