// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the mirror protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per device.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the bank health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error class (see bms.ErrorCode).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the bank has been in error.
const SlotSecondsInError = 2

// SlotUnitsPresent holds the number of units folded into the last pack.
const SlotUnitsPresent = 3

// ---- RESERVED RANGE ----

// Slots 4-10 are reserved.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// MaxSeconds caps seconds_in_error; the counter never wraps.
const MaxSeconds = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state before the first refresh.
const HealthUnknown uint16 = 0

// HealthOK represents a bank whose last refresh published a pack.
const HealthOK uint16 = 1

// HealthError represents a failed refresh (previous pack retained).
const HealthError uint16 = 2

// HealthStale represents a healthy bank with no refresh for too long.
const HealthStale uint16 = 3

// HealthDisabled represents a disabled bank.
const HealthDisabled uint16 = 4
