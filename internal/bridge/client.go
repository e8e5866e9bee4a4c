// internal/bridge/client.go
package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Client implements lidar.Transactor against an I2C register bridge
// reached over Modbus RTU. The bridge projects the party line into
// Modbus address space; this adapter is geometry only, no semantics.
//
// Mapping:
//   holding register (i2c_addr << 8 | reg)  <->  one device register,
//     byte value in the low byte, word value big-endian in the register
//   discrete input  (i2c_addr)              <->  ACK probe for the address
//   coil            (channel)               <->  per-channel power rail
type Client struct {
	mu      sync.Mutex
	cli     modbus.Client
	handler *modbus.RTUClientHandler
}

// Config is minimal transport config for the serial link to the bridge.
type Config struct {
	Device   string
	Baud     int
	SlaveID  byte
	Timeout  time.Duration
}

// New opens the serial link and returns a connected bridge client.
func New(cfg Config) (*Client, error) {
	if cfg.Device == "" {
		return nil, errors.New("bridge: serial device required")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = 115200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 200 * time.Millisecond
	}

	h := modbus.NewRTUClientHandler(cfg.Device)
	h.BaudRate = cfg.Baud
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.SlaveId = cfg.SlaveID
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("bridge: connect %s: %w", cfg.Device, err)
	}

	return &Client{
		cli:     modbus.NewClient(h),
		handler: h,
	}, nil
}

// NewWithClient wraps an existing Modbus client. Used by tests and by
// setups that share one serial handler across devices.
func NewWithClient(cli modbus.Client) *Client {
	return &Client{cli: cli}
}

// Close closes the serial link.
func (c *Client) Close() error {
	if c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

func regAddr(addr, reg byte) uint16 {
	return uint16(addr)<<8 | uint16(reg)
}

// ---- lidar.Transactor ----

// WriteRegister writes one device register through the bridge.
func (c *Client) WriteRegister(addr, reg, value byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.cli.WriteSingleRegister(regAddr(addr, reg), uint16(value))
	return err
}

// ReadByte reads one device register; the value is the low byte.
func (c *Client) ReadByte(addr, reg byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := c.cli.ReadHoldingRegisters(regAddr(addr, reg), 1)
	if err != nil {
		return 0, err
	}
	if len(raw) < 2 {
		return 0, errors.New("bridge: short register payload")
	}
	return raw[1], nil
}

// ReadWord reads one device register word, big-endian composed.
func (c *Client) ReadWord(addr, reg byte) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := c.cli.ReadHoldingRegisters(regAddr(addr, reg), 1)
	if err != nil {
		return 0, err
	}
	if len(raw) < 2 {
		return 0, errors.New("bridge: short register payload")
	}
	return uint16(raw[0])<<8 | uint16(raw[1]), nil
}

// IsOnline probes the bridge's ACK map for the given address. A failed
// probe transaction counts as offline: the caller cannot distinguish a
// dead bridge from a dead sensor, and does not need to.
func (c *Client) IsOnline(addr byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := c.cli.ReadDiscreteInputs(uint16(addr), 1)
	if err != nil || len(raw) < 1 {
		return false
	}
	return raw[0]&0x01 != 0
}
