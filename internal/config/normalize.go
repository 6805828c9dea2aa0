// internal/config/normalize.go
package config

import (
	"strings"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultBaudRate   = 9600
	DefaultDataBits   = 8
	DefaultParity     = "N"
	DefaultStopBits   = 1
	DefaultTimeoutMs  = 1000
	DefaultIntervalMs = 1000
	DefaultSettleMs   = 200

	DefaultStaticAttempts       = 1
	DefaultScanAttempts         = 3
	DefaultRediscoverCycles     = 1
	DefaultRecheckMissingCycles = 30

	DeviceNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bank

	if b.BaudRate == 0 {
		b.BaudRate = DefaultBaudRate
	}
	if b.DataBits == 0 {
		b.DataBits = DefaultDataBits
	}
	if b.Parity == "" {
		b.Parity = DefaultParity
	}
	b.Parity = strings.ToUpper(b.Parity)
	if b.StopBits == 0 {
		b.StopBits = DefaultStopBits
	}
	if b.TimeoutMs == 0 {
		b.TimeoutMs = DefaultTimeoutMs
	}
	if b.Discovery.StaticAttempts == 0 {
		b.Discovery.StaticAttempts = DefaultStaticAttempts
	}
	if b.Discovery.ScanAttempts == 0 {
		b.Discovery.ScanAttempts = DefaultScanAttempts
	}
	if b.Discovery.RediscoverCycles == 0 {
		b.Discovery.RediscoverCycles = DefaultRediscoverCycles
	}
	if b.Discovery.RecheckMissingCycles == nil {
		v := DefaultRecheckMissingCycles
		b.Discovery.RecheckMissingCycles = &v
	}
	if b.Poll.IntervalMs == 0 {
		b.Poll.IntervalMs = DefaultIntervalMs
	}
	if b.Poll.SettleMs == nil {
		v := DefaultSettleMs
		b.Poll.SettleMs = &v
	}
	if b.Aggregation == "" {
		b.Aggregation = "pairwise"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// ------------------------------------------------------------
	// MIRROR NORMALIZATION (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.Mirror; m != nil {
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultTimeoutMs
		}
		// Truncate device_name to max 16 characters (ASCII already validated)
		if len(m.DeviceName) > DeviceNameMaxChars {
			m.DeviceName = m.DeviceName[:DeviceNameMaxChars]
		}
	}
}

// Timeout is the serial read timeout.
func (b BankConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

func (b BankConfig) Interval() time.Duration {
	return time.Duration(b.Poll.IntervalMs) * time.Millisecond
}

func (b BankConfig) Settle() time.Duration {
	if b.Poll.SettleMs == nil {
		return DefaultSettleMs * time.Millisecond
	}
	return time.Duration(*b.Poll.SettleMs) * time.Millisecond
}
