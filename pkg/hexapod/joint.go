package hexapod

import (
	"fmt"
	"math"
)

// Default servo motion settings, in Maestro device units.
const (
	DefaultSpeed uint16 = 32
	DefaultAccel uint16 = 5
)

// JointParams holds the static configuration for one joint.
type JointParams struct {
	Channel  uint8
	Length   float64 // link length in mm
	AngleMin float64 // degrees
	AngleMax float64 // degrees
	ServoMin uint16  // pulse target in quarter-microseconds
	ServoMax uint16
}

// Joint is a single actuated degree of freedom. It owns the angle limits,
// the angle-to-pulse mapping and the calibration offset for one servo
// channel. Joints are created by their Leg and are immutable afterwards,
// except for the calibration offset.
type Joint struct {
	ctrl ServoController
	name string

	Channel  uint8
	Length   float64
	AngleMin float64
	AngleMax float64
	ServoMin uint16
	ServoMax uint16

	// CalibrationOffset is a per-servo trim in degrees, applied after limit
	// validation and before the pulse mapping.
	CalibrationOffset float64

	speed uint16
	accel uint16
}

func newJoint(ctrl ServoController, name string, p JointParams) *Joint {
	return &Joint{
		ctrl:     ctrl,
		name:     name,
		Channel:  p.Channel,
		Length:   p.Length,
		AngleMin: p.AngleMin,
		AngleMax: p.AngleMax,
		ServoMin: p.ServoMin,
		ServoMax: p.ServoMax,
		speed:    DefaultSpeed,
		accel:    DefaultAccel,
	}
}

// SetMotionProfile overrides the speed and acceleration used for subsequent
// SetAngle commands (device units, 0 = unlimited).
func (j *Joint) SetMotionProfile(speed, accel uint16) {
	j.speed = speed
	j.accel = accel
}

// ServoTarget maps a joint angle to a servo pulse target by linear
// interpolation over the joint's angle and pulse ranges. It is pure: no
// command is issued. The angle is validated against the joint limits and
// never clamped; the resulting pulse is clamped to the measured servo
// range, since the calibration offset can push a near-limit angle past
// the mapped span.
func (j *Joint) ServoTarget(angle float64) (uint16, error) {
	if angle < j.AngleMin || angle > j.AngleMax {
		return 0, &OutOfRangeError{
			Joint:    j.name,
			Angle:    angle,
			AngleMin: j.AngleMin,
			AngleMax: j.AngleMax,
		}
	}
	calibrated := angle + j.CalibrationOffset
	span := j.AngleMax - j.AngleMin
	target := float64(j.ServoMin) +
		float64(j.ServoMax-j.ServoMin)*(calibrated-j.AngleMin)/span
	if target < float64(j.ServoMin) {
		target = float64(j.ServoMin)
	}
	if target > float64(j.ServoMax) {
		target = float64(j.ServoMax)
	}
	return uint16(math.Round(target)), nil
}

// SetAngle validates the angle, maps it to a pulse target and commands the
// servo with the joint's speed and acceleration settings. On a limit
// violation nothing is sent to the transport.
func (j *Joint) SetAngle(angle float64) error {
	target, err := j.ServoTarget(angle)
	if err != nil {
		return err
	}
	if err := j.ctrl.SetSpeed(j.Channel, j.speed); err != nil {
		return fmt.Errorf("set speed on channel %d: %w", j.Channel, err)
	}
	if err := j.ctrl.SetAcceleration(j.Channel, j.accel); err != nil {
		return fmt.Errorf("set acceleration on channel %d: %w", j.Channel, err)
	}
	if err := j.ctrl.SetTarget(j.Channel, target); err != nil {
		return fmt.Errorf("set target on channel %d: %w", j.Channel, err)
	}
	return nil
}
