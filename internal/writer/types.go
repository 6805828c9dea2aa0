// internal/writer/types.go
package writer

import "github.com/tamzrod/eg4-bank/internal/poller"

// StatusPlan places the device status block for this bank.
type StatusPlan struct {
	BaseSlot   uint16 // block starts at BaseSlot * status.SlotsPerDevice
	DeviceName string
}

// Plan is the fully-built mirror plan for one bank.
type Plan struct {
	Endpoint    string
	UnitID      uint8
	BaseAddress uint16 // first holding register of the pack block

	Status *StatusPlan // nil => status block disabled
}

// Writer mirrors refresh results into holding registers.
type Writer interface {
	Write(res poller.RefreshResult) error
}
