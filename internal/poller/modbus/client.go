// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
	"go.uber.org/zap"
)

// Client implements poller.Transport over a serial RS485 line.
// It sends pre-framed RTU requests verbatim and returns the raw reply.
// Framing knowledge beyond the CRC stays with the caller.
type Client struct {
	mu      sync.Mutex
	handler *modbus.RTUClientHandler
}

// Config is minimal serial link config.
type Config struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // N | E | O
	Timeout  time.Duration

	// IdleTimeout closes the port after inactivity; the next request reopens it.
	IdleTimeout time.Duration

	// Logger, when set, receives goburrow's raw frame trace.
	Logger *zap.Logger
}

// New opens the serial port.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		return nil, errors.New("modbus client: port required")
	}

	h := modbus.NewRTUClientHandler(cfg.Port)
	h.Config = serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	}
	if cfg.IdleTimeout > 0 {
		h.IdleTimeout = cfg.IdleTimeout
	}
	if cfg.Logger != nil {
		h.Logger = zap.NewStdLog(cfg.Logger.Named("rtu"))
	}

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{handler: h}, nil
}

// Close closes the serial port.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ---- poller.Transport interface ----

// Exchange writes req and reads one reply. The reply length is derived by
// goburrow from the request's register count (or the 5-byte exception form).
// Replies with a bad CRC are rejected here.
func (c *Client) Exchange(req []byte) ([]byte, error) {
	if c == nil || c.handler == nil {
		return nil, errors.New("modbus client: not connected")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.handler.Send(req)
	if err != nil {
		return nil, err
	}
	if _, err := c.handler.Decode(resp); err != nil {
		return nil, err
	}
	return resp, nil
}
