// internal/config/validate_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a minimal valid config quickly
func base() *Config {
	return &Config{
		Bank: BankConfig{Port: "/dev/ttyUSB0"},
	}
}

// ---- tests ----

func TestValidate_MinimalConfig(t *testing.T) {
	require.NoError(t, Validate(base()))
}

func TestValidate_PortRequired(t *testing.T) {
	cfg := base()
	cfg.Bank.Port = ""
	assert.Error(t, Validate(cfg))
}

func TestValidate_StaticUnits(t *testing.T) {
	cases := []struct {
		name  string
		units []uint8
		ok    bool
	}{
		{"master only", []uint8{16}, true},
		{"master and one", []uint8{16, 1}, true},
		{"missing master", []uint8{1, 2}, false},
		{"zero address", []uint8{16, 0}, false},
		{"above range", []uint8{16, 17}, false},
		{"duplicate", []uint8{16, 1, 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			cfg.Bank.Units = tc.units
			err := Validate(cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_SerialFields(t *testing.T) {
	cfg := base()
	cfg.Bank.Parity = "x"
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Bank.StopBits = 3
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Bank.DataBits = 9
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Bank.Parity = "e"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_NegativeSettle(t *testing.T) {
	cfg := base()
	v := -1
	cfg.Bank.Poll.SettleMs = &v
	assert.Error(t, Validate(cfg))
}

func TestValidate_Aggregation(t *testing.T) {
	cfg := base()
	cfg.Bank.Aggregation = "mean"
	assert.NoError(t, Validate(cfg))

	cfg.Bank.Aggregation = "median"
	assert.Error(t, Validate(cfg))
}

func TestValidate_Logging(t *testing.T) {
	cfg := base()
	cfg.Logging.Level = "trace"
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Logging.Format = "xml"
	assert.Error(t, Validate(cfg))
}

func TestValidate_Mirror(t *testing.T) {
	cfg := base()
	cfg.Mirror = &MirrorConfig{}
	assert.Error(t, Validate(cfg), "endpoint required")

	cfg.Mirror = &MirrorConfig{Endpoint: "127.0.0.1:502", DeviceName: "bänk"}
	assert.Error(t, Validate(cfg), "non-ascii device name")

	cfg.Mirror = &MirrorConfig{Endpoint: "127.0.0.1:502", DeviceName: "bank-a"}
	assert.NoError(t, Validate(cfg))
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := base()
	cfg.Mirror = &MirrorConfig{Endpoint: "127.0.0.1:502", DeviceName: "a-very-long-device-name"}
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	b := cfg.Bank
	assert.Equal(t, DefaultBaudRate, b.BaudRate)
	assert.Equal(t, DefaultDataBits, b.DataBits)
	assert.Equal(t, "N", b.Parity)
	assert.Equal(t, DefaultStopBits, b.StopBits)
	assert.Equal(t, DefaultStaticAttempts, b.Discovery.StaticAttempts)
	assert.Equal(t, DefaultScanAttempts, b.Discovery.ScanAttempts)
	assert.Equal(t, DefaultRediscoverCycles, b.Discovery.RediscoverCycles)
	require.NotNil(t, b.Discovery.RecheckMissingCycles)
	assert.Equal(t, DefaultRecheckMissingCycles, *b.Discovery.RecheckMissingCycles)
	assert.Equal(t, "pairwise", b.Aggregation)
	assert.Equal(t, 1000, int(b.Interval().Milliseconds()))
	assert.Equal(t, 200, int(b.Settle().Milliseconds()))
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Len(t, cfg.Mirror.DeviceName, DeviceNameMaxChars)
}

func TestNormalize_ZeroSettleKept(t *testing.T) {
	cfg := base()
	zero := 0
	cfg.Bank.Poll.SettleMs = &zero
	Normalize(cfg)
	assert.Zero(t, cfg.Bank.Settle())
}

func TestParse(t *testing.T) {
	raw := []byte(`
bank:
  port: /dev/ttyUSB0
  baud_rate: 9600
  units: [16, 1]
  poll:
    interval_ms: 2000
    settle_ms: 150
  aggregation: mean
logging:
  level: debug
  hex_dump: true
mirror:
  endpoint: 127.0.0.1:502
  unit_id: 3
  status_slot: 2
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, []uint8{16, 1}, cfg.Bank.Units)
	assert.Equal(t, 2000, cfg.Bank.Poll.IntervalMs)
	require.NotNil(t, cfg.Bank.Poll.SettleMs)
	assert.Equal(t, 150, *cfg.Bank.Poll.SettleMs)
	assert.True(t, cfg.Logging.HexDump)
	require.NotNil(t, cfg.Mirror)
	require.NotNil(t, cfg.Mirror.StatusSlot)
	assert.Equal(t, uint16(2), *cfg.Mirror.StatusSlot)
	assert.Equal(t, uint8(3), cfg.Mirror.UnitID)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("bank:\n  port: x\n  bogus: 1\n"))
	assert.Error(t, err)
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load("../../config.example.yaml")
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)
	assert.Empty(t, cfg.Bank.Units)
	assert.True(t, cfg.Metrics.Enable)
	assert.Nil(t, cfg.Mirror)
}

func TestValidate_DiscoveryCycles(t *testing.T) {
	cfg := base()
	cfg.Bank.Discovery.RediscoverCycles = -1
	assert.Error(t, Validate(cfg))

	cfg = base()
	neg := -2
	cfg.Bank.Discovery.RecheckMissingCycles = &neg
	assert.Error(t, Validate(cfg))

	cfg = base()
	zero := 0
	cfg.Bank.Discovery.RecheckMissingCycles = &zero
	require.NoError(t, Validate(cfg))
	Normalize(cfg)
	assert.Zero(t, *cfg.Bank.Discovery.RecheckMissingCycles, "explicit 0 disables rechecks")
}
