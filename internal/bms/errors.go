// internal/bms/errors.go
package bms

import (
	"errors"
	"fmt"
)

// Error codes carried into the status block (last_error_code slot).
const (
	CodeTransport   uint16 = 1
	CodeProtocol    uint16 = 2
	CodeDecode      uint16 = 3
	CodeConfig      uint16 = 4
	CodeAggregation uint16 = 5
)

var (
	ErrUnexpectedFunctionType = errors.New("unexpected function type")
	ErrDeclaredLength         = errors.New("declared length inconsistent with buffer")
	ErrAddressMismatch        = errors.New("reply from unexpected unit address")
	ErrShortBuffer            = errors.New("buffer too short")
	ErrInvalidText            = errors.New("invalid text field")
	ErrCellCount              = errors.New("cell count out of range")
	ErrUnknownCommand         = errors.New("no command for address and kind")
	ErrMasterMissing          = errors.New("master unit telemetry missing")
	ErrCellCountMismatch      = errors.New("master cell array shorter than pack slice")
)

// TransportError is a failed round-trip: no reply, timeout, bad framing.
type TransportError struct {
	Address UnitAddress
	Kind    RequestKind
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Address, e.Kind, e.Err)
}
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Code() uint16  { return CodeTransport }

// ProtocolError is a reply whose header does not match a successful read.
type ProtocolError struct {
	Function byte
	Length   int
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: fc=0x%02X len=%d: %v", e.Function, e.Length, e.Err)
}
func (e *ProtocolError) Unwrap() error { return e.Err }
func (e *ProtocolError) Code() uint16  { return CodeProtocol }

// DecodeError is a reply too short, or otherwise unusable, for the fields read from it.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %s: %v", e.Field, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Code() uint16  { return CodeDecode }

// ConfigError is a request for an (address, kind) pair with no table entry.
type ConfigError struct {
	Address UnitAddress
	Kind    RequestKind
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s: %v", e.Address, e.Kind, ErrUnknownCommand)
}
func (e *ConfigError) Unwrap() error { return ErrUnknownCommand }
func (e *ConfigError) Code() uint16  { return CodeConfig }

// AggregationError fails one refresh cycle; the previous pack stays published.
type AggregationError struct {
	Err    error
	Detail string
}

func (e *AggregationError) Error() string {
	if e.Detail == "" {
		return "aggregate: " + e.Err.Error()
	}
	return fmt.Sprintf("aggregate: %v (%s)", e.Err, e.Detail)
}
func (e *AggregationError) Unwrap() error { return e.Err }
func (e *AggregationError) Code() uint16  { return CodeAggregation }

// ErrorCode extracts a status-block code from err. Unknown errors map to 1.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}
	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
