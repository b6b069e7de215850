// Package maestro implements the Pololu Maestro servo controller compact
// serial protocol. It is the hardware transport behind the kinematics
// engine's ServoController capability.
//
// See https://www.pololu.com/docs/pdf/0J40/maestro.pdf
package maestro

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	cmdSetTarget          = 0x84
	cmdSetSpeed           = 0x87
	cmdSetAcceleration    = 0x89
	cmdGetPosition        = 0x90
	cmdGetMovingState     = 0x93
	cmdSetMultipleTargets = 0x9f
	cmdGetErrors          = 0xa1
	cmdGoHome             = 0xa2
)

// controllerError converts the Maestro error bitmap into a go error.
func controllerError(val uint16) error {
	bits := []string{
		"serial signal error",          // bit 0
		"serial overrun error",         // bit 1
		"serial buffer full",           // bit 2
		"serial crc error",             // bit 3
		"serial protocol error",        // bit 4
		"serial timeout",               // bit 5
		"script stack error",           // bit 6
		"script call stack error",      // bit 7
		"script program counter error", // bit 8
	}
	var s []string
	for i, msg := range bits {
		if val&(1<<i) != 0 {
			s = append(s, msg)
		}
	}
	if len(s) == 0 {
		return nil
	}
	return fmt.Errorf("maestro: %s", strings.Join(s, ", "))
}

// Controller drives a Maestro over a serial port using the compact
// protocol (single device on the bus). Safe for concurrent use; each
// command frame is written atomically under the lock.
type Controller struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

// Open opens the serial device and returns a controller.
func Open(device string, baudRate int) (*Controller, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Controller{port: port}, nil
}

// NewController wraps an already-open port. Used by tests with an
// in-memory port.
func NewController(port io.ReadWriteCloser) *Controller {
	return &Controller{port: port}
}

// Close closes the underlying port.
func (c *Controller) Close() error {
	return c.port.Close()
}

// Data values are sent as two 7-bit bytes, low bits first.
func lo(x uint16) byte { return byte(x & 0x7f) }
func hi(x uint16) byte { return byte((x >> 7) & 0x7f) }

func (c *Controller) write(cmd []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.port.Write(cmd); err != nil {
		return fmt.Errorf("maestro write: %w", err)
	}
	return nil
}

func (c *Controller) query(cmd []byte, n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.port.Write(cmd); err != nil {
		return nil, fmt.Errorf("maestro write: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.port, buf); err != nil {
		return nil, fmt.Errorf("maestro read: %w", err)
	}
	return buf, nil
}

// SetTarget commands a servo to a pulse target in quarter-microseconds.
// A target of 0 turns the servo off.
func (c *Controller) SetTarget(channel uint8, target uint16) error {
	return c.write([]byte{cmdSetTarget, channel, lo(target), hi(target)})
}

// SetSpeed sets the servo speed limit (0 = unlimited).
func (c *Controller) SetSpeed(channel uint8, speed uint16) error {
	return c.write([]byte{cmdSetSpeed, channel, lo(speed), hi(speed)})
}

// SetAcceleration sets the servo acceleration limit (0 = unlimited).
func (c *Controller) SetAcceleration(channel uint8, accel uint16) error {
	return c.write([]byte{cmdSetAcceleration, channel, lo(accel), hi(accel)})
}

// SetMultipleTargets commands a contiguous block of channels starting at
// first in a single frame.
func (c *Controller) SetMultipleTargets(first uint8, targets []uint16) error {
	cmd := make([]byte, 0, 3+2*len(targets))
	cmd = append(cmd, cmdSetMultipleTargets, byte(len(targets)), first)
	for _, t := range targets {
		cmd = append(cmd, lo(t), hi(t))
	}
	return c.write(cmd)
}

// GetPosition returns the current pulse position of a servo.
func (c *Controller) GetPosition(channel uint8) (uint16, error) {
	buf, err := c.query([]byte{cmdGetPosition, channel}, 2)
	if err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

// GetMovingState reports whether any servo is still moving.
func (c *Controller) GetMovingState() (bool, error) {
	buf, err := c.query([]byte{cmdGetMovingState}, 1)
	if err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

// GetErrors reads and clears the controller error bitmap, returned as a
// go error (nil when clear).
func (c *Controller) GetErrors() error {
	buf, err := c.query([]byte{cmdGetErrors}, 2)
	if err != nil {
		return err
	}
	return controllerError(uint16(buf[0])&0x7f | (uint16(buf[1])&0x7f)<<8)
}

// GoHome sends all servos to their home positions.
func (c *Controller) GoHome() error {
	return c.write([]byte{cmdGoHome})
}
