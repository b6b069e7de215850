// Package hexapod implements the kinematics engine for a six-legged robot:
// joint angle/pulse mapping, per-leg inverse and forward kinematics, and
// body-level pose resolution across all six legs.
//
// The package never talks to hardware directly. All servo commands go
// through the ServoController capability, so the engine can be driven
// against the Maestro UART driver on the robot or a mock in tests.
package hexapod

// ServoController is the transport capability the engine issues commands
// through. Implementations: pkg/maestro (Pololu Maestro over UART) and test
// mocks. Failures are hardware errors; the engine does not retry.
type ServoController interface {
	// SetSpeed limits the servo speed on a channel (0 = unlimited).
	SetSpeed(channel uint8, speed uint16) error

	// SetAcceleration limits the servo acceleration on a channel (0 = unlimited).
	SetAcceleration(channel uint8, accel uint16) error

	// SetTarget commands a servo to a pulse target in quarter-microseconds.
	SetTarget(channel uint8, target uint16) error

	// GetPosition returns the current pulse position of a servo.
	GetPosition(channel uint8) (uint16, error)

	// GetMovingState reports whether any servo is still moving toward its
	// target.
	GetMovingState() (bool, error)

	// SetMultipleTargets commands a contiguous block of channels starting at
	// first in a single frame.
	SetMultipleTargets(first uint8, targets []uint16) error

	// GoHome sends all servos to their home positions.
	GoHome() error
}
