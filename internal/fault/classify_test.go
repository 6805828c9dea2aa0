// internal/fault/classify_test.go
package fault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

func TestClassify_Total(t *testing.T) {
	for _, cat := range []Category{Warning, Protection, Error} {
		table := tableFor(cat)
		for v := 0; v <= 0xFFFF; v++ {
			code := uint16(v)
			c := Classify(code, cat)

			require.Equal(t, code, c.Code)
			switch {
			case code == 0:
				require.Equal(t, TagNone, c.Tag)
			case table[code].tag != "":
				require.Equal(t, table[code].tag, c.Tag, "cat=%s code=%04X", cat, code)
				require.True(t, c.Known)
			default:
				require.Equal(t, TagUnknown, c.Tag, "cat=%s code=%04X", cat, code)
				require.False(t, c.Known)
				require.Equal(t, bms.SeverityNone, c.Severity)
			}
		}
	}
}

func TestClassify_KnownTags(t *testing.T) {
	assert.Equal(t, TagPackOverVoltage, Classify(0x0001, Warning).Tag)
	assert.Equal(t, TagCellUnderVoltage, Classify(0x0008, Protection).Tag)
	assert.Equal(t, TagChargeOverTemp, Classify(0x0100, Warning).Tag)
	assert.Equal(t, TagLowCapacity, Classify(0x1000, Protection).Tag)
	assert.Equal(t, TagDischargeShortCircuit, Classify(0x2000, Protection).Tag)
	assert.Equal(t, TagCellUnbalanced, Classify(0x0010, Error).Tag)

	// Discharge under temp exists only as a protection.
	assert.Equal(t, TagUnknown, Classify(0x0800, Warning).Tag)
	assert.Equal(t, TagDischargeUnderTemp, Classify(0x0800, Protection).Tag)
}

func TestClassify_SeverityByCategory(t *testing.T) {
	w := Classify(0x0001, Warning)
	p := Classify(0x0001, Protection)

	assert.Equal(t, w.Tag, p.Tag)
	assert.Equal(t, bms.SeveritySoft, w.Severity)
	assert.Equal(t, bms.SeverityHard, p.Severity)

	assert.Equal(t, bms.SeveritySoft, w.Alarms().VoltageHigh)
	assert.Equal(t, bms.SeverityHard, p.Alarms().VoltageHigh)
}

func TestClassify_Text(t *testing.T) {
	assert.Equal(t, "No Warnings - 0000", Classify(0, Warning).Text())
	assert.Equal(t, "Warning: 0002 - Cell Over Voltage", Classify(2, Warning).Text())
	assert.Equal(t, "Protection: 8000 - UNKNOWN", Classify(0x8000, Protection).Text())
	assert.Equal(t, "Unknown(8000)", Classify(0x8000, Protection).Description)
}

func TestSummarize_DistinctInObservationOrder(t *testing.T) {
	s := Summarize(Warning, []uint16{0x0100, 0x0000, 0x0001, 0x0100})

	require.Len(t, s.Codes, 2)
	assert.Equal(t, uint16(0x0100), s.Codes[0].Code)
	assert.Equal(t, uint16(0x0001), s.Codes[1].Code)
	assert.Equal(t, "Warning: 0100 - Charge Over Temp; Warning: 0001 - Pack Over Voltage", s.Text())
	assert.True(t, s.Active())

	assert.Equal(t, bms.SeveritySoft, s.Alarms.TempHighCharge)
	assert.Equal(t, bms.SeveritySoft, s.Alarms.VoltageHigh)
	assert.Equal(t, bms.SeverityNone, s.Alarms.SocLow)
}

func TestSummarize_AllZero(t *testing.T) {
	s := Summarize(Error, []uint16{0, 0, 0})

	require.Len(t, s.Codes, 1)
	assert.Equal(t, "No Errors - 0000", s.Text())
	assert.False(t, s.Active())
}

func TestSummarize_UnknownKept(t *testing.T) {
	s := Summarize(Error, []uint16{0x0001, 0x0400})

	require.Len(t, s.Codes, 2)
	assert.Equal(t, TagUnknown, s.Codes[1].Tag)
	assert.Equal(t, "Error: 0001 - Voltage Error; Error: 0400 - UNKNOWN", s.Text())
}

func TestOperatingStatusAndHeater(t *testing.T) {
	assert.Equal(t, "Standby", OperatingStatus(0))
	assert.Equal(t, "Charging Limit", OperatingStatus(8))
	assert.Equal(t, "Unknown(10)", OperatingStatus(0x10))

	on, ok := HeaterOn(0x80)
	assert.True(t, on)
	assert.True(t, ok)

	_, ok = HeaterOn(0x01)
	assert.False(t, ok)
}
