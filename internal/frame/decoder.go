// internal/frame/decoder.go
package frame

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/eg4-bank/internal/balance"
	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Header is the four leading bytes of a BMU reply.
type Header struct {
	Address bms.UnitAddress
	Type    byte // function-type; 0x03 on a successful read
	Length  int  // declared payload byte count
	Command byte // first payload byte, kept for diagnostics
}

// PayloadEnd is the offset one past the last declared payload byte.
func (h Header) PayloadEnd() int {
	return OffPayload + h.Length
}

// DecodeHeader validates the header shape.
//
// Every decode path goes through here, so every reply is checked for:
//   - at least MinHeaderSize bytes
//   - function-type equal to Read Holding Registers
//   - declared length not exceeding the bytes actually received
//
// Trailing bytes beyond the declared payload (the RTU checksum) are allowed.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < MinHeaderSize {
		return Header{}, &bms.DecodeError{
			Field: "header",
			Err:   fmt.Errorf("%w: got=%d want>=%d", bms.ErrShortBuffer, len(buf), MinHeaderSize),
		}
	}

	h := Header{
		Address: bms.UnitAddress(buf[OffAddress]),
		Type:    buf[OffType],
		Length:  int(buf[OffLength]),
		Command: buf[OffPayload],
	}

	if h.Type != modbus.FuncCodeReadHoldingRegisters {
		err := bms.ErrUnexpectedFunctionType
		if h.Type&0x80 != 0 {
			err = fmt.Errorf("%w: %v", err, &modbus.ModbusError{
				FunctionCode:  h.Type,
				ExceptionCode: buf[OffLength],
			})
		}
		return Header{}, &bms.ProtocolError{Function: h.Type, Length: h.Length, Err: err}
	}

	if h.PayloadEnd() > len(buf) {
		return Header{}, &bms.ProtocolError{
			Function: h.Type,
			Length:   h.Length,
			Err:      fmt.Errorf("%w: declared=%d received=%d", bms.ErrDeclaredLength, h.Length, len(buf)-OffPayload),
		}
	}

	return h, nil
}

// DecodeHardwareInfo extracts make, version and serial from a hardware-info reply.
// The serial is suffixed with "_<address>" so chained units stay distinct.
func DecodeHardwareInfo(buf []byte) (bms.HardwareInfo, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return bms.HardwareInfo{}, err
	}
	if err := requireRegion(h, "hardware", MinHWFrameEnd); err != nil {
		return bms.HardwareInfo{}, err
	}

	mk, err := text(buf, "hw_make", OffHWMake, EndHWMake)
	if err != nil {
		return bms.HardwareInfo{}, err
	}
	version, err := text(buf, "hw_version", OffHWVersion, EndHWVersion)
	if err != nil {
		return bms.HardwareInfo{}, err
	}
	serial, err := text(buf, "hw_serial", OffHWSerial, EndHWSerial)
	if err != nil {
		return bms.HardwareInfo{}, err
	}

	return bms.HardwareInfo{
		Address: h.Address,
		Make:    mk,
		Version: version,
		Serial:  serial + "_" + strconv.Itoa(int(h.Address)),
	}, nil
}

// DecodeTelemetry decodes a cell-telemetry reply.
// It is pure and all-or-nothing: on error the returned value is zero.
func DecodeTelemetry(buf []byte) (bms.UnitTelemetry, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return bms.UnitTelemetry{}, err
	}
	if err := requireRegion(h, "telemetry", MinCellFrameEnd); err != nil {
		return bms.UnitTelemetry{}, err
	}

	cellCount := int(u16(buf, OffCellCount))
	if cellCount < 1 || cellCount > MaxCells {
		return bms.UnitTelemetry{}, &bms.DecodeError{
			Field: "cell_count",
			Err:   fmt.Errorf("%w: %d not in [1,%d]", bms.ErrCellCount, cellCount, MaxCells),
		}
	}

	cells := make([]float64, cellCount)
	var sum float64
	cellMax, cellMin := math.Inf(-1), math.Inf(1)
	for i := range cells {
		v := float64(u16(buf, OffCells+2*i)) / 1000
		cells[i] = v
		sum += v
		cellMax = math.Max(cellMax, v)
		cellMin = math.Min(cellMin, v)
	}

	temp1 := int(int16(u16(buf, OffTemp1)))
	temp2 := int(int8(buf[OffTemp2]))

	u := bms.UnitTelemetry{
		Address: h.Address,

		Voltage:          float64(u16(buf, OffVoltage)) / 100,
		Current:          float64(int16(u16(buf, OffCurrent))) / 100,
		CapacityRemain:   float64(u16(buf, OffCapacityRemain)),
		Capacity:         float64(u32(buf, OffCapacity)) / 3600 / 1000,
		MaxChargeCurrent: float64(u16(buf, OffMaxChargeCurrent)),
		SoC:              float64(u16(buf, OffSoC)),
		SoH:              float64(u16(buf, OffSoH)),
		Cycles:           u32(buf, OffCycles),

		Temp1:   temp1,
		Temp2:   temp2,
		TempMOS: int(int8(buf[OffTempMOS])),
		TempMax: max(temp1, temp2),
		TempMin: min(temp1, temp2),

		CellCount: cellCount,
		Cells:     cells,
		CellSum:   math.Round(sum*1000) / 1000,
		CellMax:   cellMax,
		CellMin:   cellMin,

		HeaterCode:     uint16(buf[OffHeater]),
		StatusCode:     uint16(buf[OffStatus]),
		WarningCode:    u16(buf, OffWarning),
		ProtectionCode: u16(buf, OffProtection),
		ErrorCode:      u16(buf, OffError),

		Balancing: balance.Evaluate(cellMax, cellMin),
	}

	return u, nil
}

// ---- helpers ----

// requireRegion checks the declared payload covers every fixed offset read.
// DecodeHeader has already proven the declared payload was received.
func requireRegion(h Header, field string, end int) error {
	if h.PayloadEnd() < end {
		return &bms.DecodeError{
			Field: field,
			Err:   fmt.Errorf("%w: payload ends at %d, need %d", bms.ErrShortBuffer, h.PayloadEnd(), end),
		}
	}
	return nil
}

// text decodes a fixed-width byte range, trimming NUL padding and spaces.
func text(buf []byte, field string, from, to int) (string, error) {
	raw := buf[from:to]
	if !utf8.Valid(raw) {
		return "", &bms.DecodeError{Field: field, Err: bms.ErrInvalidText}
	}
	return strings.TrimFunc(string(raw), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	}), nil
}

func u16(b []byte, off int) uint16 {
	return binary.BigEndian.Uint16(b[off : off+2])
}

func u32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}
