package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30.0, cfg.Coxa.Length)
	assert.Equal(t, 100.0, cfg.Femur.Length)
	assert.Equal(t, 150.0, cfg.Tibia.Length)
	assert.Equal(t, uint8(7), cfg.FemurChannels[2])
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexapod.yaml")
	data := `
serial:
  port: /dev/ttyUSB3
hexagon_side_length: 140
tibia:
  length: 160
  angle_min: -165
  angle_max: -15
  servo_min: 3968
  servo_max: 8000
speed_percent: 50
web_addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Port)
	assert.Equal(t, 140.0, cfg.HexagonSideLength)
	assert.Equal(t, 160.0, cfg.Tibia.Length)
	assert.Equal(t, 50, cfg.SpeedPercent)
	assert.Equal(t, ":9090", cfg.WebAddr)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Femur, cfg.Femur)
	assert.Equal(t, Default().Serial.Baud, cfg.Serial.Baud)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexapod.yaml")
	data := `
femur:
  length: -5
  angle_min: -60
  angle_max: 90
  servo_min: 3968
  servo_max: 8000
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "femur")
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.SpeedPercent = 150
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Coxa.AngleMin = 45
	cfg.Coxa.AngleMax = -45
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Tibia.ServoMin = 8000
	cfg.Tibia.ServoMax = 3968
	require.Error(t, cfg.Validate())
}

func TestSerialPortEnvOverride(t *testing.T) {
	t.Setenv("HEXAPOD_SERIAL", "/dev/ttyACM7")
	cfg := Default()
	assert.Equal(t, "/dev/ttyACM7", cfg.SerialPort())

	t.Setenv("HEXAPOD_SERIAL", "")
	assert.Equal(t, DefaultSerialPort, cfg.SerialPort())
}

func TestHexapodParams(t *testing.T) {
	cfg := Default()
	cfg.EndEffectorOffset.Z = -12

	p := cfg.HexapodParams()
	assert.Equal(t, cfg.HexagonSideLength, p.HexagonSideLength)
	assert.Equal(t, cfg.Tibia.Length, p.Tibia.Length)
	assert.Equal(t, cfg.CoxaChannels, p.CoxaChannels)
	assert.Equal(t, -12.0, p.EndEffectorOffset.Z)
	assert.Equal(t, 25, p.SpeedPercent)
}
