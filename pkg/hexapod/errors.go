package hexapod

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kinematics engine. Callers match with errors.Is;
// the concrete error types below carry the offending values.
var (
	// ErrOutOfRange is returned when a commanded angle violates a joint's
	// limits. The angle is never clamped.
	ErrOutOfRange = errors.New("angle out of range")

	// ErrUnreachable is returned when a foot target lies outside a leg's
	// geometric workspace.
	ErrUnreachable = errors.New("target unreachable")

	// ErrInvalidIndex is returned for leg indices outside 0..5.
	ErrInvalidIndex = errors.New("invalid leg index")

	// ErrCancelled is returned when a wait observes its stop signal before
	// the motion finished.
	ErrCancelled = errors.New("cancelled")

	// ErrUnknownPosition is returned when a named position is not in the
	// predefined tables.
	ErrUnknownPosition = errors.New("unknown predefined position")
)

// OutOfRangeError reports an angle command that violated a joint limit.
type OutOfRangeError struct {
	Joint    string
	Angle    float64
	AngleMin float64
	AngleMax float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s angle %.2f° out of limits (%.2f° to %.2f°)",
		e.Joint, e.Angle, e.AngleMin, e.AngleMax)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// UnreachableError reports a foot target outside the leg workspace.
type UnreachableError struct {
	X, Y, Z  float64
	Distance float64
	MinReach float64
	MaxReach float64
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("target (%.1f, %.1f, %.1f) unreachable: distance %.2f outside [%.2f, %.2f]",
		e.X, e.Y, e.Z, e.Distance, e.MinReach, e.MaxReach)
}

func (e *UnreachableError) Unwrap() error { return ErrUnreachable }
