// internal/command/table.go
package command

import (
	"fmt"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Register geometry per request kind.
// These values define the protocol and MUST NOT be configurable.
const (
	HardwareStart uint16 = 0x0069
	HardwareCount uint16 = 0x0017

	CellStart uint16 = 0x0000
	CellCount uint16 = 0x0027

	ConfigStart uint16 = 0x002D
	ConfigCount uint16 = 0x005B
)

// FrameSize is the fixed request length: addr, fc, start(2), count(2), crc(2).
const FrameSize = 8

// Frame is one precomputed request. Checksums are part of the literal
// table below and are never recomputed at runtime.
type Frame [FrameSize]byte

// Bytes returns a copy the transport may keep or mutate.
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

func (f Frame) Address() bms.UnitAddress { return bms.UnitAddress(f[0]) }
func (f Frame) Function() byte           { return f[1] }
func (f Frame) Start() uint16            { return uint16(f[2])<<8 | uint16(f[3]) }
func (f Frame) Count() uint16            { return uint16(f[4])<<8 | uint16(f[5]) }

// ResponseLength is the full RTU reply size for this read (header + data + crc).
func (f Frame) ResponseLength() int {
	return 3 + 2*int(f.Count()) + 2
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", f[:])
}

const fc = modbus.FuncCodeReadHoldingRegisters

var table = map[bms.UnitAddress]map[bms.RequestKind]Frame{
	16: {
		bms.KindHardware: {0x10, fc, 0x00, 0x69, 0x00, 0x17, 0xD6, 0x99},
		bms.KindCell:     {0x10, fc, 0x00, 0x00, 0x00, 0x27, 0x06, 0x91},
		bms.KindConfig:   {0x10, fc, 0x00, 0x2D, 0x00, 0x5B, 0x97, 0x79},
	},
	1: {
		bms.KindHardware: {0x01, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0xD8},
		bms.KindCell:     {0x01, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0xD0},
	},
	2: {
		bms.KindHardware: {0x02, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0xEB},
		bms.KindCell:     {0x02, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0xE3},
	},
	3: {
		bms.KindHardware: {0x03, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0x3A},
		bms.KindCell:     {0x03, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0x32},
	},
	4: {
		bms.KindHardware: {0x04, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0x8D},
		bms.KindCell:     {0x04, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0x85},
	},
	5: {
		bms.KindHardware: {0x05, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0x5C},
		bms.KindCell:     {0x05, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0x54},
	},
	6: {
		bms.KindHardware: {0x06, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0x6F},
		bms.KindCell:     {0x06, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0x67},
	},
	7: {
		bms.KindHardware: {0x07, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0xBE},
		bms.KindCell:     {0x07, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0xB6},
	},
	8: {
		bms.KindHardware: {0x08, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0x41},
		bms.KindCell:     {0x08, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0x49},
	},
	9: {
		bms.KindHardware: {0x09, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0x90},
		bms.KindCell:     {0x09, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0x98},
	},
	10: {
		bms.KindHardware: {0x0A, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0xA3},
		bms.KindCell:     {0x0A, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0xAB},
	},
	11: {
		bms.KindHardware: {0x0B, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0x72},
		bms.KindCell:     {0x0B, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0x7A},
	},
	12: {
		bms.KindHardware: {0x0C, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0xC5},
		bms.KindCell:     {0x0C, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0xCD},
	},
	13: {
		bms.KindHardware: {0x0D, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0x14},
		bms.KindCell:     {0x0D, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0x1C},
	},
	14: {
		bms.KindHardware: {0x0E, fc, 0x00, 0x69, 0x00, 0x17, 0xD5, 0x27},
		bms.KindCell:     {0x0E, fc, 0x00, 0x00, 0x00, 0x27, 0x05, 0x2F},
	},
	15: {
		bms.KindHardware: {0x0F, fc, 0x00, 0x69, 0x00, 0x17, 0xD4, 0xF6},
		bms.KindCell:     {0x0F, fc, 0x00, 0x00, 0x00, 0x27, 0x04, 0xFE},
	},
}

// Lookup returns the request frame for (addr, kind).
// Unknown pairs fail with *bms.ConfigError; they are never retried.
func Lookup(addr bms.UnitAddress, kind bms.RequestKind) (Frame, error) {
	if kinds, ok := table[addr]; ok {
		if f, ok := kinds[kind]; ok {
			return f, nil
		}
	}
	return Frame{}, &bms.ConfigError{Address: addr, Kind: kind}
}

// KindOf maps a frame back to its request kind by register start.
// Used for log lines about failed requests.
func KindOf(f Frame) bms.RequestKind {
	switch f.Start() {
	case HardwareStart:
		return bms.KindHardware
	case CellStart:
		return bms.KindCell
	case ConfigStart:
		return bms.KindConfig
	default:
		return 0
	}
}
