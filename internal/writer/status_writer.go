// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/eg4-bank/internal/status"
)

// StatusWriter is the delivery-only contract for bank status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter writes the status block, using per-slot delta writes
// after the first full block.
type deviceStatusWriter struct {
	plan   *StatusPlan
	unitID uint8
	cli    endpointClient

	needFull bool
	last     status.Snapshot
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer if the plan enables it.
// If plan.Status is nil, status is disabled.
func NewDeviceStatusWriter(plan Plan, cli endpointClient) (StatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	return &deviceStatusWriter{
		plan:     plan.Status,
		unitID:   plan.UnitID,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
		nameRegs: status.EncodeDeviceName(plan.Status.DeviceName),
	}, true
}

// WriteStatus delivers a status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return errors.New("status writer: missing client")
	}

	baseAddr := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.unitID, baseAddr, sw.fullBlockRegs(s)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	slots := []struct {
		name string
		slot uint16
		old  *uint16
		val  uint16
	}{
		{"health", status.SlotHealthCode, &sw.last.Health, s.Health},
		{"last_error", status.SlotLastErrorCode, &sw.last.LastErrorCode, s.LastErrorCode},
		{"seconds", status.SlotSecondsInError, &sw.last.SecondsInError, s.SecondsInError},
		{"units", status.SlotUnitsPresent, &sw.last.UnitsPresent, s.UnitsPresent},
	}

	for _, sl := range slots {
		if *sl.old == sl.val {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.unitID, baseAddr+sl.slot, []uint16{sl.val}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", sl.slot, sl.name, err))
			continue
		}
		*sl.old = sl.val
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each device owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

func (sw *deviceStatusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)

	// Reserved slots stay zero. Device name always lives at the end of the block.
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], sw.nameRegs)

	return regs
}
