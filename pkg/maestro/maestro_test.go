package maestro

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory serial port: writes are captured, reads are
// scripted.
type fakePort struct {
	wrote bytes.Buffer
	reads bytes.Buffer
}

func (f *fakePort) Write(p []byte) (int, error) { return f.wrote.Write(p) }
func (f *fakePort) Read(p []byte) (int, error)  { return f.reads.Read(p) }
func (f *fakePort) Close() error                { return nil }

func TestSetTargetFrame(t *testing.T) {
	port := &fakePort{}
	c := NewController(port)

	require.NoError(t, c.SetTarget(5, 6000))
	// 6000 = 0x2e<<7 | 0x70
	assert.Equal(t, []byte{0x84, 0x05, 0x70, 0x2e}, port.wrote.Bytes())
}

func TestSetSpeedAndAccelerationFrames(t *testing.T) {
	port := &fakePort{}
	c := NewController(port)

	require.NoError(t, c.SetSpeed(2, 140))
	require.NoError(t, c.SetAcceleration(2, 5))
	assert.Equal(t, []byte{
		0x87, 0x02, 140 & 0x7f, 140 >> 7,
		0x89, 0x02, 0x05, 0x00,
	}, port.wrote.Bytes())
}

func TestSetMultipleTargetsFrame(t *testing.T) {
	port := &fakePort{}
	c := NewController(port)

	require.NoError(t, c.SetMultipleTargets(3, []uint16{1500, 6000}))
	assert.Equal(t, []byte{
		0x9f, 0x02, 0x03,
		0x5c, 0x0b, // 1500
		0x70, 0x2e, // 6000
	}, port.wrote.Bytes())
}

func TestGetPosition(t *testing.T) {
	port := &fakePort{}
	port.reads.Write([]byte{0xd0, 0x07}) // 2000 little-endian
	c := NewController(port)

	pos, err := c.GetPosition(9)
	require.NoError(t, err)
	assert.Equal(t, uint16(2000), pos)
	assert.Equal(t, []byte{0x90, 0x09}, port.wrote.Bytes())
}

func TestGetMovingState(t *testing.T) {
	port := &fakePort{}
	port.reads.Write([]byte{0x01, 0x00})
	c := NewController(port)

	moving, err := c.GetMovingState()
	require.NoError(t, err)
	assert.True(t, moving)

	moving, err = c.GetMovingState()
	require.NoError(t, err)
	assert.False(t, moving)

	assert.Equal(t, []byte{0x93, 0x93}, port.wrote.Bytes())
}

func TestGetErrors(t *testing.T) {
	port := &fakePort{}
	port.reads.Write([]byte{0x00, 0x00}) // clear
	port.reads.Write([]byte{0x30, 0x00}) // crc + protocol
	c := NewController(port)

	require.NoError(t, c.GetErrors())

	err := c.GetErrors()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial protocol error")
	assert.Contains(t, err.Error(), "serial timeout")
}

func TestGoHomeFrame(t *testing.T) {
	port := &fakePort{}
	c := NewController(port)

	require.NoError(t, c.GoHome())
	assert.Equal(t, []byte{0xa2}, port.wrote.Bytes())
}

func TestReadPastScriptFails(t *testing.T) {
	port := &fakePort{}
	c := NewController(port)

	_, err := c.GetPosition(0)
	require.Error(t, err)
}
