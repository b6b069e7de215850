package hexapod

import (
	"encoding/json"
	"fmt"
	"os"
)

// JointCalibration holds per-servo calibration: an angle trim in degrees
// and an optional pulse-range override measured for that servo.
type JointCalibration struct {
	Offset   float64 `json:"offset"`
	ServoMin uint16  `json:"servo_min,omitempty"`
	ServoMax uint16  `json:"servo_max,omitempty"`
}

// Calibration maps "<leg>.<joint>" keys (e.g. "3.femur") to per-servo
// calibration records. Missing entries mean zero offset and the configured
// default pulse range.
type Calibration map[string]JointCalibration

// LoadCalibration reads calibration data from a JSON file. A missing file
// is not an error: the robot runs uncalibrated with zero offsets.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Calibration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}
	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}
	return cal, nil
}

// ForJoint returns the calibration record for one joint of one leg, or a
// zero record when none was measured.
func (c Calibration) ForJoint(leg int, joint string) JointCalibration {
	return c[fmt.Sprintf("%d.%s", leg, joint)]
}

func (c Calibration) apply(l *Leg) {
	for name, j := range map[string]*Joint{"coxa": l.Coxa, "femur": l.Femur, "tibia": l.Tibia} {
		rec := c.ForJoint(l.Index, name)
		j.CalibrationOffset = rec.Offset
		if rec.ServoMin != 0 {
			j.ServoMin = rec.ServoMin
		}
		if rec.ServoMax != 0 {
			j.ServoMax = rec.ServoMax
		}
	}
}
