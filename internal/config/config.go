// Package config provides configuration for the hexapod daemon.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
)

// Defaults.
const (
	DefaultSerialPort = "/dev/ttyACM0"
	DefaultBaudRate   = 9600
	DefaultWebAddr    = ":8080"
)

// JointConfig describes one joint class shared by all six legs.
// Lengths are millimetres, angles degrees, servo pulses
// quarter-microseconds.
type JointConfig struct {
	Length   float64 `yaml:"length"`
	AngleMin float64 `yaml:"angle_min"`
	AngleMax float64 `yaml:"angle_max"`
	ServoMin uint16  `yaml:"servo_min"`
	ServoMax uint16  `yaml:"servo_max"`
}

// SerialConfig selects the Maestro serial device.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// Config is the daemon configuration, loadable from YAML.
type Config struct {
	Serial SerialConfig `yaml:"serial"`

	HexagonSideLength float64     `yaml:"hexagon_side_length"`
	Coxa              JointConfig `yaml:"coxa"`
	Femur             JointConfig `yaml:"femur"`
	Tibia             JointConfig `yaml:"tibia"`

	CoxaChannels  [6]uint8 `yaml:"coxa_channels"`
	FemurChannels [6]uint8 `yaml:"femur_channels"`
	TibiaChannels [6]uint8 `yaml:"tibia_channels"`

	EndEffectorOffset struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
		Z float64 `yaml:"z"`
	} `yaml:"end_effector_offset"`

	SpeedPercent int `yaml:"speed_percent"`
	AccelPercent int `yaml:"accel_percent"`

	CalibrationFile string `yaml:"calibration_file"`
	WebAddr         string `yaml:"web_addr"`
	LogLevel        string `yaml:"log_level"`
}

// Default returns the configuration for the reference build: 30mm coxa,
// 100mm femur, 150mm tibia, servos on channels 0-17 grouped per leg.
func Default() *Config {
	cfg := &Config{
		Serial:            SerialConfig{Port: DefaultSerialPort, Baud: DefaultBaudRate},
		HexagonSideLength: 125,
		Coxa:              JointConfig{Length: 30, AngleMin: -45, AngleMax: 45, ServoMin: 3968, ServoMax: 8000},
		Femur:             JointConfig{Length: 100, AngleMin: -60, AngleMax: 90, ServoMin: 3968, ServoMax: 8000},
		Tibia:             JointConfig{Length: 150, AngleMin: -165, AngleMax: -15, ServoMin: 3968, ServoMax: 8000},
		SpeedPercent:      25,
		AccelPercent:      10,
		CalibrationFile:   "calibration.json",
		WebAddr:           DefaultWebAddr,
		LogLevel:          "info",
	}
	for i := 0; i < 6; i++ {
		cfg.CoxaChannels[i] = uint8(3 * i)
		cfg.FemurChannels[i] = uint8(3*i + 1)
		cfg.TibiaChannels[i] = uint8(3*i + 2)
	}
	return cfg
}

// Load reads YAML from path on top of the defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SerialPort returns the serial device, with the HEXAPOD_SERIAL env var
// taking precedence over the file.
func (c *Config) SerialPort() string {
	if port := os.Getenv("HEXAPOD_SERIAL"); port != "" {
		return port
	}
	return c.Serial.Port
}

// Validate checks the ranges the kinematics engine relies on.
func (c *Config) Validate() error {
	for name, j := range map[string]JointConfig{"coxa": c.Coxa, "femur": c.Femur, "tibia": c.Tibia} {
		if j.Length <= 0 {
			return fmt.Errorf("%s: length must be positive", name)
		}
		if j.AngleMin >= j.AngleMax {
			return fmt.Errorf("%s: angle_min must be below angle_max", name)
		}
		if j.ServoMin >= j.ServoMax {
			return fmt.Errorf("%s: servo_min must be below servo_max", name)
		}
	}
	if c.HexagonSideLength <= 0 {
		return fmt.Errorf("hexagon_side_length must be positive")
	}
	if c.SpeedPercent < 0 || c.SpeedPercent > 100 {
		return fmt.Errorf("speed_percent must be within 0-100")
	}
	if c.AccelPercent < 0 || c.AccelPercent > 100 {
		return fmt.Errorf("accel_percent must be within 0-100")
	}
	return nil
}

func jointParams(j JointConfig) hexapod.JointParams {
	return hexapod.JointParams{
		Length:   j.Length,
		AngleMin: j.AngleMin,
		AngleMax: j.AngleMax,
		ServoMin: j.ServoMin,
		ServoMax: j.ServoMax,
	}
}

// HexapodParams converts the configuration into kinematics parameters.
func (c *Config) HexapodParams() hexapod.Params {
	p := hexapod.Params{
		HexagonSideLength: c.HexagonSideLength,
		Coxa:              jointParams(c.Coxa),
		Femur:             jointParams(c.Femur),
		Tibia:             jointParams(c.Tibia),
		CoxaChannels:      c.CoxaChannels,
		FemurChannels:     c.FemurChannels,
		TibiaChannels:     c.TibiaChannels,
		SpeedPercent:      c.SpeedPercent,
		AccelPercent:      c.AccelPercent,
	}
	p.EndEffectorOffset.X = c.EndEffectorOffset.X
	p.EndEffectorOffset.Y = c.EndEffectorOffset.Y
	p.EndEffectorOffset.Z = c.EndEffectorOffset.Z
	return p
}
