// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/eg4-bank/internal/bank"
	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}
	b := cfg.Bank

	// ------------------------------------------------------------
	// SERIAL LINK
	// ------------------------------------------------------------

	if b.Port == "" {
		return errors.New("bank.port is required")
	}
	if b.BaudRate < 0 {
		return fmt.Errorf("bank.baud_rate %d must be >= 0", b.BaudRate)
	}
	if b.DataBits != 0 && (b.DataBits < 5 || b.DataBits > 8) {
		return fmt.Errorf("bank.data_bits %d must be 5..8", b.DataBits)
	}
	switch strings.ToUpper(b.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("bank.parity %q must be N, E or O", b.Parity)
	}
	if b.StopBits != 0 && b.StopBits != 1 && b.StopBits != 2 {
		return fmt.Errorf("bank.stop_bits %d must be 1 or 2", b.StopBits)
	}
	if b.TimeoutMs < 0 {
		return fmt.Errorf("bank.timeout_ms %d must be >= 0", b.TimeoutMs)
	}

	// ------------------------------------------------------------
	// UNITS (static bank must contain the master)
	// ------------------------------------------------------------

	if len(b.Units) > 0 {
		seen := make(map[uint8]bool, len(b.Units))
		for _, u := range b.Units {
			if !bms.UnitAddress(u).Valid() {
				return fmt.Errorf("bank.units: address %d out of range 1..16", u)
			}
			if seen[u] {
				return fmt.Errorf("bank.units: address %d listed twice", u)
			}
			seen[u] = true
		}
		if !seen[uint8(bms.MasterAddress)] {
			return fmt.Errorf("bank.units: master address %d must be listed", bms.MasterAddress)
		}
	}

	if b.Discovery.StaticAttempts < 0 || b.Discovery.ScanAttempts < 0 {
		return errors.New("bank.discovery attempts must be >= 0")
	}
	if b.Discovery.RediscoverCycles < 0 {
		return fmt.Errorf("bank.discovery.rediscover_cycles %d must be >= 0", b.Discovery.RediscoverCycles)
	}
	if p := b.Discovery.RecheckMissingCycles; p != nil && *p < 0 {
		return fmt.Errorf("bank.discovery.recheck_missing_cycles %d must be >= 0", *p)
	}
	if b.Poll.IntervalMs < 0 {
		return fmt.Errorf("bank.poll.interval_ms %d must be >= 0", b.Poll.IntervalMs)
	}
	if b.Poll.SettleMs != nil && *b.Poll.SettleMs < 0 {
		return fmt.Errorf("bank.poll.settle_ms %d must be >= 0", *b.Poll.SettleMs)
	}
	if _, err := bank.ParseMode(b.Aggregation); err != nil {
		return fmt.Errorf("bank.aggregation: %w", err)
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q unknown", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", cfg.Logging.Format)
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.Mirror; m != nil {
		if m.Endpoint == "" {
			return errors.New("mirror.endpoint is required when mirror is set")
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("mirror.timeout_ms %d must be >= 0", m.TimeoutMs)
		}
		// device_name sanity (ASCII only)
		for i := 0; i < len(m.DeviceName); i++ {
			if m.DeviceName[i] > 0x7F {
				return errors.New("mirror.device_name must contain ASCII characters only")
			}
		}
	}

	return nil
}
