// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/eg4-bank/internal/config"
	"github.com/tamzrod/eg4-bank/internal/status"
	wmodbus "github.com/tamzrod/eg4-bank/internal/writer/modbus"
)

var errNoClient = errors.New("writer: no client")

// BuildPlan converts the mirror config into a Plan.
// The pack block and the status block must not overlap.
func BuildPlan(m *cfg.MirrorConfig) (Plan, error) {
	if m == nil {
		return Plan{}, errors.New("writer: mirror config required")
	}
	if m.Endpoint == "" {
		return Plan{}, errors.New("writer: mirror.endpoint required")
	}

	packEnd := int(m.BaseAddress) + PackRegisters
	if packEnd > 0x10000 {
		return Plan{}, fmt.Errorf("writer: pack block [%d,%d) exceeds register space", m.BaseAddress, packEnd)
	}

	plan := Plan{
		Endpoint:    m.Endpoint,
		UnitID:      m.UnitID,
		BaseAddress: m.BaseAddress,
	}

	if m.StatusSlot != nil {
		start := int(*m.StatusSlot) * status.SlotsPerDevice
		end := start + status.SlotsPerDevice
		if end > 0x10000 {
			return Plan{}, fmt.Errorf("writer: status slot %d exceeds register space", *m.StatusSlot)
		}
		if start < packEnd && int(m.BaseAddress) < end {
			return Plan{}, fmt.Errorf(
				"writer: status block [%d,%d) overlaps pack block [%d,%d)",
				start, end, m.BaseAddress, packEnd,
			)
		}
		plan.Status = &StatusPlan{
			BaseSlot:   *m.StatusSlot,
			DeviceName: m.DeviceName,
		}
	}

	return plan, nil
}

// BuildEndpointClient connects the single TCP client the mirror uses.
func BuildEndpointClient(m *cfg.MirrorConfig) (*wmodbus.EndpointClient, error) {
	if m == nil {
		return nil, errNoClient
	}
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: m.Endpoint,
		Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
	})
}
