// internal/frame/layout.go
package frame

// Response layout constants (absolute byte offsets into the raw reply,
// header included). These values define the protocol revision; any change
// here must land together with updated fixtures in decoder_test.go.

// ---- HEADER ----

const (
	OffAddress = 0
	OffType    = 1
	OffLength  = 2
	OffPayload = 3

	// MinHeaderSize matches the four bytes the BMU header is read as.
	MinHeaderSize = 4
)

// ---- HARDWARE INFO (0x0069 x 23 regs) ----

const (
	OffHWMake     = 3
	EndHWMake     = 25
	OffHWVersion  = 27
	EndHWVersion  = 33
	OffHWSerial   = 33
	EndHWSerial   = 48
	MinHWFrameEnd = EndHWSerial
)

// ---- CELL TELEMETRY (0x0000 x 39 regs) ----

const (
	OffVoltage          = 3  // u16 /100
	OffCurrent          = 5  // i16 /100
	OffCells            = 7  // u16 /1000 each
	OffTemp1            = 39 // i16
	OffCapacityRemain   = 45 // u16
	OffMaxChargeCurrent = 47 // u16
	OffSoH              = 49 // u16
	OffSoC              = 51 // u16
	OffHeater           = 53 // u8
	OffStatus           = 54 // u8
	OffWarning          = 55 // u16
	OffProtection       = 57 // u16
	OffError            = 59 // u16
	OffCycles           = 61 // u32
	OffCapacity         = 65 // u32 /3600/1000
	OffTemp2            = 69 // i8
	OffTempMOS          = 70 // i8
	OffCellCount        = 75 // u16

	// MinCellFrameEnd is the end of the fixed region (cell count included).
	MinCellFrameEnd = OffCellCount + 2

	// MaxCells is bounded by the fixed region: cell 17 would overlap temp1.
	MaxCells = (OffTemp1 - OffCells) / 2
)
