// internal/fault/tables.go
package fault

import "github.com/tamzrod/eg4-bank/internal/bms"

// Category selects which code table a raw value is classified against.
type Category uint8

const (
	Warning Category = iota + 1
	Protection
	Error
)

func (c Category) String() string {
	switch c {
	case Warning:
		return "Warning"
	case Protection:
		return "Protection"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Tag is a stable machine-readable name for a fault condition.
type Tag string

const (
	TagNone                  Tag = "None"
	TagUnknown               Tag = "Unknown"
	TagPackOverVoltage       Tag = "PackOverVoltage"
	TagCellOverVoltage       Tag = "CellOverVoltage"
	TagPackUnderVoltage      Tag = "PackUnderVoltage"
	TagCellUnderVoltage      Tag = "CellUnderVoltage"
	TagChargeOverCurrent     Tag = "ChargeOverCurrent"
	TagDischargeOverCurrent  Tag = "DischargeOverCurrent"
	TagAmbientOverTemp       Tag = "AmbientOverTemp"
	TagMosfetOverTemp        Tag = "MosfetOverTemp"
	TagChargeOverTemp        Tag = "ChargeOverTemp"
	TagDischargeOverTemp     Tag = "DischargeOverTemp"
	TagChargeUnderTemp       Tag = "ChargeUnderTemp"
	TagDischargeUnderTemp    Tag = "DischargeUnderTemp"
	TagLowCapacity           Tag = "LowCapacity"
	TagFloatStopped          Tag = "FloatStopped"
	TagInternalFailure       Tag = "InternalFailure"
	TagDischargeShortCircuit Tag = "DischargeShortCircuit"
	TagVoltageError          Tag = "VoltageError"
	TagTemperatureError      Tag = "TemperatureError"
	TagCurrentFlowError      Tag = "CurrentFlowError"
	TagCellUnbalanced        Tag = "CellUnbalanced"
)

// flag names the elevated-condition slot a code raises.
type flag func(*bms.Alarms) *bms.Severity

var (
	flagVoltageHigh       flag = func(a *bms.Alarms) *bms.Severity { return &a.VoltageHigh }
	flagVoltageCellHigh   flag = func(a *bms.Alarms) *bms.Severity { return &a.VoltageCellHigh }
	flagVoltageLow        flag = func(a *bms.Alarms) *bms.Severity { return &a.VoltageLow }
	flagVoltageCellLow    flag = func(a *bms.Alarms) *bms.Severity { return &a.VoltageCellLow }
	flagCurrentOver       flag = func(a *bms.Alarms) *bms.Severity { return &a.CurrentOver }
	flagTempHighInternal  flag = func(a *bms.Alarms) *bms.Severity { return &a.TempHighInternal }
	flagTempHighCharge    flag = func(a *bms.Alarms) *bms.Severity { return &a.TempHighCharge }
	flagTempHighDischarge flag = func(a *bms.Alarms) *bms.Severity { return &a.TempHighDischarge }
	flagTempLowCharge     flag = func(a *bms.Alarms) *bms.Severity { return &a.TempLowCharge }
	flagSocLow            flag = func(a *bms.Alarms) *bms.Severity { return &a.SocLow }
	flagInternalFailure   flag = func(a *bms.Alarms) *bms.Severity { return &a.InternalFailure }
)

type entry struct {
	tag  Tag
	desc string
	flag flag // nil: no elevated condition
}

// ---- WARNING (soft) ----

var warningTable = map[uint16]entry{
	0x0001: {TagPackOverVoltage, "Pack Over Voltage", flagVoltageHigh},
	0x0002: {TagCellOverVoltage, "Cell Over Voltage", flagVoltageCellHigh},
	0x0004: {TagPackUnderVoltage, "Pack Under Voltage", flagVoltageLow},
	0x0008: {TagCellUnderVoltage, "Cell Under Voltage", flagVoltageCellLow},
	0x0010: {TagChargeOverCurrent, "Charge Over Current", flagCurrentOver},
	0x0020: {TagDischargeOverCurrent, "Discharge Over Current", flagCurrentOver},
	0x0040: {TagAmbientOverTemp, "Ambient High Temp", flagTempHighInternal},
	0x0080: {TagMosfetOverTemp, "Mosfets High Temp", flagTempHighInternal},
	0x0100: {TagChargeOverTemp, "Charge Over Temp", flagTempHighCharge},
	0x0200: {TagDischargeOverTemp, "Discharge Over Temp", flagTempHighDischarge},
	0x0400: {TagChargeUnderTemp, "Charge Under Temp", flagTempLowCharge},
	0x1000: {TagLowCapacity, "Low Capacity", flagSocLow},
	0x2000: {TagFloatStopped, "Float Stopped", nil},
	0x4000: {TagInternalFailure, "Internal Failure", flagInternalFailure},
}

// ---- PROTECTION (hard) ----

var protectionTable = map[uint16]entry{
	0x0001: {TagPackOverVoltage, "Pack Over Voltage", flagVoltageHigh},
	0x0002: {TagCellOverVoltage, "Cell Over Voltage", flagVoltageCellHigh},
	0x0004: {TagPackUnderVoltage, "Pack Under Voltage", flagVoltageLow},
	0x0008: {TagCellUnderVoltage, "Cell Under Voltage", flagVoltageCellLow},
	0x0010: {TagChargeOverCurrent, "Charge Over Current", flagCurrentOver},
	0x0020: {TagDischargeOverCurrent, "Discharge Over Current", flagCurrentOver},
	0x0040: {TagAmbientOverTemp, "High Ambient Temp", flagTempHighInternal},
	0x0080: {TagMosfetOverTemp, "Mosfets High Temp", flagTempHighInternal},
	0x0100: {TagChargeOverTemp, "Charge Over Temp", flagTempHighCharge},
	0x0200: {TagDischargeOverTemp, "Discharge Over Temp", flagTempHighDischarge},
	0x0400: {TagChargeUnderTemp, "Charge Under Temp", flagTempLowCharge},
	0x0800: {TagDischargeUnderTemp, "Discharge Under Temp", flagTempLowCharge},
	0x1000: {TagLowCapacity, "Low Capacity", flagSocLow},
	0x2000: {TagDischargeShortCircuit, "Discharge SC", nil},
}

// ---- ERROR ----

var errorTable = map[uint16]entry{
	0x0001: {TagVoltageError, "Voltage Error", nil},
	0x0002: {TagTemperatureError, "Temperature Error", nil},
	0x0004: {TagCurrentFlowError, "Current Flow Error", nil},
	0x0010: {TagCellUnbalanced, "Cell Unbalanced", nil},
}

func tableFor(c Category) map[uint16]entry {
	switch c {
	case Warning:
		return warningTable
	case Protection:
		return protectionTable
	case Error:
		return errorTable
	default:
		return nil
	}
}

// severityFor is the weight a known code carries in its category.
func severityFor(c Category) bms.Severity {
	switch c {
	case Warning:
		return bms.SeveritySoft
	case Protection, Error:
		return bms.SeverityHard
	default:
		return bms.SeverityNone
	}
}

// noneText is the summary used when every unit reports 0000.
var noneText = map[Category]string{
	Warning:    "No Warnings",
	Protection: "No Protection Events",
	Error:      "No Errors",
}
