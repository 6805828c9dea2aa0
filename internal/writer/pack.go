// internal/writer/pack.go
package writer

import (
	"math"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Pack register block layout (offsets from Plan.BaseAddress).
// Scaled values are rounded; signed values are two's complement.
const (
	RegVoltage        = 0  // V x100
	RegCurrent        = 1  // A x100, signed
	RegSoC            = 2  // %
	RegSoH            = 3  // %
	RegCapacityRemain = 4  // raw
	RegCapacity       = 5  // Ah
	RegCyclesHi       = 6  // u32 high word
	RegCyclesLo       = 7  // u32 low word
	RegTemp1          = 8  // °C, signed
	RegTemp2          = 9  // °C, signed
	RegTempMOS        = 10 // °C, signed
	RegTempMax        = 11 // °C, signed
	RegTempMin        = 12 // °C, signed
	RegCellCount      = 13
	RegCellMax        = 14 // mV
	RegCellMin        = 15 // mV
	RegBalancing      = 16 // 0 off, 1 active, 2 finished
	RegUnits          = 17
	RegAlarmsStart    = 18 // 11 severities, order of bms.Alarms fields
	RegCellsStart     = 29 // up to 16 cells, mV

	AlarmRegisters = 11
	CellRegisters  = 16

	PackRegisters = RegCellsStart + CellRegisters
)

// EncodePack converts a pack into its register block. No IO.
func EncodePack(p bms.PackTelemetry) []uint16 {
	regs := make([]uint16, PackRegisters)

	regs[RegVoltage] = scaleU(p.Voltage, 100)
	regs[RegCurrent] = scaleS(p.Current, 100)
	regs[RegSoC] = scaleU(p.SoC, 1)
	regs[RegSoH] = scaleU(p.SoH, 1)
	regs[RegCapacityRemain] = scaleU(p.CapacityRemain, 1)
	regs[RegCapacity] = scaleU(p.Capacity, 1)
	regs[RegCyclesHi] = uint16(p.Cycles >> 16)
	regs[RegCyclesLo] = uint16(p.Cycles)
	regs[RegTemp1] = uint16(int16(p.Temp1))
	regs[RegTemp2] = uint16(int16(p.Temp2))
	regs[RegTempMOS] = uint16(int16(p.TempMOS))
	regs[RegTempMax] = uint16(int16(p.TempMax))
	regs[RegTempMin] = uint16(int16(p.TempMin))
	regs[RegCellCount] = uint16(p.CellCount)
	regs[RegCellMax] = scaleU(p.CellMax, 1000)
	regs[RegCellMin] = scaleU(p.CellMin, 1000)
	regs[RegBalancing] = uint16(p.Balancing)
	regs[RegUnits] = uint16(len(p.Units))

	a := p.Alarms
	alarms := [AlarmRegisters]bms.Severity{
		a.VoltageHigh, a.VoltageCellHigh, a.VoltageLow, a.VoltageCellLow,
		a.CurrentOver, a.TempHighInternal, a.TempHighCharge, a.TempHighDischarge,
		a.TempLowCharge, a.SocLow, a.InternalFailure,
	}
	for i, s := range alarms {
		regs[RegAlarmsStart+i] = uint16(s)
	}

	for i, v := range p.Cells {
		if i >= CellRegisters {
			break
		}
		regs[RegCellsStart+i] = scaleU(v, 1000)
	}

	return regs
}

func scaleU(v, k float64) uint16 {
	x := math.Round(v * k)
	if x < 0 {
		return 0
	}
	if x > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(x)
}

func scaleS(v, k float64) uint16 {
	x := math.Round(v * k)
	x = math.Max(math.MinInt16, math.Min(math.MaxInt16, x))
	return uint16(int16(x))
}
