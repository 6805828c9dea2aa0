// internal/writer/writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/eg4-bank/internal/bms"
	cfg "github.com/tamzrod/eg4-bank/internal/config"
	"github.com/tamzrod/eg4-bank/internal/poller"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes []writeCall
	failAt int // 1-based write index that fails; 0 => never
}

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		regs:   append([]uint16(nil), regs...),
	})
	if f.failAt == len(f.writes) {
		return errors.New("write failed")
	}
	return nil
}

func samplePack() bms.PackTelemetry {
	return bms.PackTelemetry{
		Voltage:   53.12,
		Current:   -19.76,
		SoC:       78,
		SoH:       100,
		Cycles:    70000,
		Temp1:     -3,
		TempMax:   24,
		TempMin:   -3,
		CellCount: 4,
		Cells:     []float64{3.320, 3.321, 3.318, 3.322},
		CellMax:   3.322,
		CellMin:   3.318,
		Balancing: bms.BalancingFinished,
		Alarms:    bms.Alarms{VoltageCellHigh: bms.SeveritySoft, InternalFailure: bms.SeverityHard},
		Units:     []bms.UnitAddress{16, 1},
	}
}

// ---- tests ----

func TestEncodePack(t *testing.T) {
	regs := EncodePack(samplePack())
	require.Len(t, regs, PackRegisters)

	assert.Equal(t, uint16(5312), regs[RegVoltage])
	assert.Equal(t, int16(-1976), int16(regs[RegCurrent]))
	assert.Equal(t, uint16(78), regs[RegSoC])
	assert.Equal(t, uint16(1), regs[RegCyclesHi])
	assert.Equal(t, uint16(70000-65536), regs[RegCyclesLo])
	assert.Equal(t, int16(-3), int16(regs[RegTemp1]))
	assert.Equal(t, uint16(3322), regs[RegCellMax])
	assert.Equal(t, uint16(2), regs[RegBalancing])
	assert.Equal(t, uint16(2), regs[RegUnits])
	assert.Equal(t, uint16(1), regs[RegAlarmsStart+1])
	assert.Equal(t, uint16(2), regs[RegAlarmsStart+AlarmRegisters-1])
	assert.Equal(t, []uint16{3320, 3321, 3318, 3322, 0}, regs[RegCellsStart:RegCellsStart+5])
}

func TestEncodePack_Clamps(t *testing.T) {
	p := bms.PackTelemetry{Voltage: -1, Current: 1000}
	regs := EncodePack(p)
	assert.Zero(t, regs[RegVoltage])
	assert.Equal(t, int16(32767), int16(regs[RegCurrent]))
}

func TestWriter_WritesPackAtBase(t *testing.T) {
	fake := &fakeEndpointClient{}
	w := New(Plan{Endpoint: "ep1", UnitID: 7, BaseAddress: 100}, fake)

	require.NoError(t, w.Write(poller.RefreshResult{Pack: samplePack()}))
	require.Len(t, fake.writes, 1)
	assert.Equal(t, uint8(7), fake.writes[0].unitID)
	assert.Equal(t, uint16(100), fake.writes[0].addr)
	assert.Len(t, fake.writes[0].regs, PackRegisters)
}

func TestWriter_SkipsFailedRefresh(t *testing.T) {
	fake := &fakeEndpointClient{}
	w := New(Plan{Endpoint: "ep1"}, fake)

	require.NoError(t, w.Write(poller.RefreshResult{Err: bms.ErrMasterMissing}))
	assert.Empty(t, fake.writes)
}

func TestWriter_PropagatesClientError(t *testing.T) {
	fake := &fakeEndpointClient{failAt: 1}
	w := New(Plan{Endpoint: "ep1"}, fake)
	assert.Error(t, w.Write(poller.RefreshResult{Pack: samplePack()}))
}

func TestBuildPlan(t *testing.T) {
	slot := uint16(10) // status block [200,220)
	p, err := BuildPlan(&cfg.MirrorConfig{Endpoint: "ep", UnitID: 2, BaseAddress: 0, StatusSlot: &slot, DeviceName: "bank"})
	require.NoError(t, err)
	require.NotNil(t, p.Status)
	assert.Equal(t, uint16(10), p.Status.BaseSlot)
	assert.Equal(t, "bank", p.Status.DeviceName)

	p, err = BuildPlan(&cfg.MirrorConfig{Endpoint: "ep"})
	require.NoError(t, err)
	assert.Nil(t, p.Status)
}

func TestBuildPlan_Overlap(t *testing.T) {
	slot := uint16(1) // status block [20,40) vs pack block [0,45)
	_, err := BuildPlan(&cfg.MirrorConfig{Endpoint: "ep", StatusSlot: &slot})
	assert.Error(t, err)

	_, err = BuildPlan(&cfg.MirrorConfig{Endpoint: "ep", BaseAddress: 0xFFF0})
	assert.Error(t, err)

	_, err = BuildPlan(nil)
	assert.Error(t, err)
}
