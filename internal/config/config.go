// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bank    BankConfig    `yaml:"bank"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	API     APIConfig     `yaml:"api"`

	// Register mirror (optional, opt-in)
	Mirror *MirrorConfig `yaml:"mirror"`
}

// ---- BANK ----

type BankConfig struct {
	Port      string `yaml:"port"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// Static bank. Empty => auto-scan 1..16.
	Units []uint8 `yaml:"units"`

	Discovery   DiscoveryConfig `yaml:"discovery"`
	Poll        PollConfig      `yaml:"poll"`
	Aggregation string          `yaml:"aggregation"` // pairwise | mean
}

type DiscoveryConfig struct {
	StaticAttempts int `yaml:"static_attempts"`
	ScanAttempts   int `yaml:"scan_attempts"`

	// Cycles between full rediscoveries while the master is missing.
	RediscoverCycles int `yaml:"rediscover_cycles"`
	// Cycles between rechecks of absent units. nil => default; 0 disables.
	RecheckMissingCycles *int `yaml:"recheck_missing_cycles"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int  `yaml:"interval_ms"`
	SettleMs   *int `yaml:"settle_ms"` // nil => default; 0 disables
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level   string     `yaml:"level"`
	Format  string     `yaml:"format"` // json | console
	HexDump bool       `yaml:"hex_dump"`
	File    FileConfig `yaml:"file"`

	// StatusReport logs a per-unit summary after every refresh.
	StatusReport bool `yaml:"status_report"`
}

type FileConfig struct {
	Filename   string `yaml:"filename"` // empty => stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ---- METRICS / API ----

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

type APIConfig struct {
	Addr string `yaml:"addr"` // empty => disabled
}

// ---- MIRROR ----

type MirrorConfig struct {
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	BaseAddress uint16 `yaml:"base_address"`
	TimeoutMs   int    `yaml:"timeout_ms"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// Load reads a YAML config file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML config bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}
