// internal/frame/frametest/frametest.go

// Package frametest builds synthetic BMU replies for tests.
package frametest

import (
	"encoding/binary"
	"math"

	"github.com/sigurn/crc16"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Cell describes one cell-telemetry reply in engineering units.
type Cell struct {
	Voltage          float64
	Current          float64
	Cells            []float64
	Temp1            int
	Temp2            int
	TempMOS          int
	CapacityRemain   uint16
	CapacityAh       float64
	MaxChargeCurrent uint16
	SoC              uint16
	SoH              uint16
	Cycles           uint32
	Heater           uint8
	Status           uint8
	Warning          uint16
	Protection       uint16
	Error            uint16
}

// Healthy returns a plausible 4-cell 12V unit.
func Healthy() Cell {
	return Cell{
		Voltage:          13.28,
		Current:          -12.5,
		Cells:            []float64{3.320, 3.321, 3.318, 3.322},
		Temp1:            24,
		Temp2:            23,
		TempMOS:          27,
		CapacityRemain:   310,
		CapacityAh:       400,
		MaxChargeCurrent: 200,
		SoC:              78,
		SoH:              100,
		Cycles:           42,
	}
}

// CellFrame encodes c as a full 0x0000 x 39 register reply for addr.
func CellFrame(addr bms.UnitAddress, c Cell) []byte {
	const payload = 2 * 0x27
	buf := make([]byte, 3+payload)
	buf[0] = byte(addr)
	buf[1] = 0x03
	buf[2] = payload

	binary.BigEndian.PutUint16(buf[3:], uint16(math.Round(c.Voltage*100)))
	binary.BigEndian.PutUint16(buf[5:], uint16(int16(math.Round(c.Current*100))))
	for i, v := range c.Cells {
		binary.BigEndian.PutUint16(buf[7+2*i:], uint16(math.Round(v*1000)))
	}
	binary.BigEndian.PutUint16(buf[39:], uint16(int16(c.Temp1)))
	binary.BigEndian.PutUint16(buf[45:], c.CapacityRemain)
	binary.BigEndian.PutUint16(buf[47:], c.MaxChargeCurrent)
	binary.BigEndian.PutUint16(buf[49:], c.SoH)
	binary.BigEndian.PutUint16(buf[51:], c.SoC)
	buf[53] = c.Heater
	buf[54] = c.Status
	binary.BigEndian.PutUint16(buf[55:], c.Warning)
	binary.BigEndian.PutUint16(buf[57:], c.Protection)
	binary.BigEndian.PutUint16(buf[59:], c.Error)
	binary.BigEndian.PutUint32(buf[61:], c.Cycles)
	binary.BigEndian.PutUint32(buf[65:], uint32(math.Round(c.CapacityAh*3600*1000)))
	buf[69] = byte(int8(c.Temp2))
	buf[70] = byte(int8(c.TempMOS))
	binary.BigEndian.PutUint16(buf[75:], uint16(len(c.Cells)))

	return withCRC(buf)
}

// HardwareFrame encodes a 0x0069 x 23 register reply.
// Text fields are NUL padded to their fixed widths.
func HardwareFrame(addr bms.UnitAddress, model, version, serial string) []byte {
	const payload = 2 * 0x17
	buf := make([]byte, 3+payload)
	buf[0] = byte(addr)
	buf[1] = 0x03
	buf[2] = payload

	copy(buf[3:25], model)
	copy(buf[27:33], version)
	copy(buf[33:48], serial)

	return withCRC(buf)
}

// Exception builds an RTU exception reply for function 0x03.
func Exception(addr bms.UnitAddress, code byte) []byte {
	return withCRC([]byte{byte(addr), 0x83, code})
}

func withCRC(b []byte) []byte {
	sum := crc16.Checksum(b, crcTable)
	return append(b, byte(sum), byte(sum>>8))
}
