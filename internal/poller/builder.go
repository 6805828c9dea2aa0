// internal/poller/builder.go
package poller

import (
	"go.uber.org/zap"

	"github.com/tamzrod/eg4-bank/internal/bank"
	"github.com/tamzrod/eg4-bank/internal/bms"
	cfg "github.com/tamzrod/eg4-bank/internal/config"
	pmodbus "github.com/tamzrod/eg4-bank/internal/poller/modbus"
)

// Build opens the serial link and constructs a Session over it.
// Config must already be validated and normalized.
func Build(c *cfg.Config, log *zap.Logger, rec Recorder) (*Session, func() error, error) {
	b := c.Bank

	linkCfg := pmodbus.Config{
		Port:     b.Port,
		BaudRate: b.BaudRate,
		DataBits: b.DataBits,
		StopBits: b.StopBits,
		Parity:   b.Parity,
		Timeout:  b.Timeout(),
	}
	if c.Logging.HexDump && log != nil {
		linkCfg.Logger = log
	}

	// fail fast at startup
	link, err := pmodbus.New(linkCfg)
	if err != nil {
		return nil, nil, err
	}

	mode, err := bank.ParseMode(b.Aggregation)
	if err != nil {
		_ = link.Close()
		return nil, nil, err
	}

	var recheckMissing int
	if p := b.Discovery.RecheckMissingCycles; p != nil {
		recheckMissing = *p
	}

	units := make([]bms.UnitAddress, 0, len(b.Units))
	for _, u := range b.Units {
		units = append(units, bms.UnitAddress(u))
	}

	s, err := New(
		Config{
			Units:          units,
			StaticAttempts: b.Discovery.StaticAttempts,
			ScanAttempts:   b.Discovery.ScanAttempts,

			RediscoverCycles:     b.Discovery.RediscoverCycles,
			RecheckMissingCycles: recheckMissing,
			Interval:             b.Interval(),
			Settle:               b.Settle(),
			Mode:                 mode,
			HexDump:              c.Logging.HexDump,
			StatusReport:         c.Logging.StatusReport,
		},
		link,
		WithLogger(log),
		WithRecorder(rec),
	)
	if err != nil {
		_ = link.Close()
		return nil, nil, err
	}

	return s, link.Close, nil
}
