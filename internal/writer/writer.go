// internal/writer/writer.go
package writer

import (
	"fmt"

	"github.com/tamzrod/eg4-bank/internal/poller"
)

// endpointClient is the exact contract the writers use.
// IMPORTANT: There must be NO other version of this interface anywhere.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type packWriter struct {
	plan Plan
	cli  endpointClient
}

func New(plan Plan, cli endpointClient) Writer {
	return &packWriter{
		plan: plan,
		cli:  cli,
	}
}

// Write mirrors a successful refresh. Failed refreshes write nothing:
// the mirror keeps the previous pack, like the session does.
func (w *packWriter) Write(res poller.RefreshResult) error {
	if res.Err != nil {
		return nil
	}
	if w.cli == nil {
		return fmt.Errorf("writer: missing client for endpoint %s", w.plan.Endpoint)
	}

	regs := EncodePack(res.Pack)
	if err := w.cli.WriteRegisters(w.plan.UnitID, w.plan.BaseAddress, regs); err != nil {
		return fmt.Errorf(
			"writer: ep=%s unit=%d addr=%d err=%w",
			w.plan.Endpoint, w.plan.UnitID, w.plan.BaseAddress, err,
		)
	}
	return nil
}
