package hexapod

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// LegAngles is a coxa/femur/tibia angle triple in degrees.
//
// Conventions: coxa 0° points along the leg's local X axis, femur is
// measured above the horizontal, and tibia is measured relative to the
// femur direction with the knee-down bend, so tibia angles are negative
// (0° would be a fully extended leg).
type LegAngles struct {
	Coxa  float64
	Femur float64
	Tibia float64
}

// MountPose is the fixed position and orientation of a leg's coxa joint
// relative to the body center. Yaw is in radians.
type MountPose struct {
	Position r3.Vector
	Yaw      float64
}

// Leg is one kinematic chain of three joints. Foot targets are expressed in
// the leg's local frame with the origin at the coxa joint, X pointing away
// from the body along the mount direction and Z up.
type Leg struct {
	Index int
	Coxa  *Joint
	Femur *Joint
	Tibia *Joint

	// EndEffectorOffset shifts the foot contact point relative to the tibia
	// tip. It is added to targets before IK and removed again by FK.
	EndEffectorOffset r3.Vector

	Mount MountPose
}

// NewLeg builds a leg from per-joint parameters. Calibration offsets are
// applied by the Hexapod after construction.
func NewLeg(ctrl ServoController, index int, coxa, femur, tibia JointParams, endEffectorOffset r3.Vector, mount MountPose) *Leg {
	return &Leg{
		Index:             index,
		Coxa:              newJoint(ctrl, fmt.Sprintf("leg %d coxa", index), coxa),
		Femur:             newJoint(ctrl, fmt.Sprintf("leg %d femur", index), femur),
		Tibia:             newJoint(ctrl, fmt.Sprintf("leg %d tibia", index), tibia),
		EndEffectorOffset: endEffectorOffset,
		Mount:             mount,
	}
}

// InverseKinematics computes the joint angles placing the foot at target,
// a position in the leg's local frame. Targets outside the workspace return
// an UnreachableError; nothing is ever clamped. Of the two geometric
// solutions the knee-down one (tibia bending below the femur) is always
// chosen.
func (l *Leg) InverseKinematics(target r3.Vector) (LegAngles, error) {
	p := target.Add(l.EndEffectorOffset)

	thetaCoxa := math.Atan2(p.Y, p.X)

	// Two-link problem in the vertical plane through the foot.
	r := math.Hypot(p.X, p.Y) - l.Coxa.Length
	d := math.Hypot(r, p.Z)

	lf, lt := l.Femur.Length, l.Tibia.Length
	minReach := math.Abs(lf - lt)
	maxReach := lf + lt
	if d < minReach || d > maxReach {
		return LegAngles{}, &UnreachableError{
			X: target.X, Y: target.Y, Z: target.Z,
			Distance: d, MinReach: minReach, MaxReach: maxReach,
		}
	}

	// Law of cosines. The arguments are clamped only to absorb float error
	// at the workspace boundary; reachability was already decided above.
	alpha := math.Acos(clampUnit((lf*lf + d*d - lt*lt) / (2 * lf * d)))
	beta := math.Acos(clampUnit((lf*lf + lt*lt - d*d) / (2 * lf * lt)))
	gamma := math.Atan2(p.Z, r)

	return LegAngles{
		Coxa:  degrees(thetaCoxa),
		Femur: degrees(gamma + alpha),
		Tibia: degrees(beta) - 180,
	}, nil
}

// ForwardKinematics composes the three joint rotations and link lengths
// into a foot position in the leg's local frame. It is the exact algebraic
// inverse of InverseKinematics for any angle triple with a knee-down tibia.
func (l *Leg) ForwardKinematics(a LegAngles) r3.Vector {
	tc := radians(a.Coxa)
	tf := radians(a.Femur)
	tt := radians(a.Tibia)

	radial := l.Coxa.Length + l.Femur.Length*math.Cos(tf) + l.Tibia.Length*math.Cos(tf+tt)
	z := l.Femur.Length*math.Sin(tf) + l.Tibia.Length*math.Sin(tf+tt)

	foot := r3.Vector{
		X: radial * math.Cos(tc),
		Y: radial * math.Sin(tc),
		Z: z,
	}
	return foot.Sub(l.EndEffectorOffset)
}

// servoTargets validates all three angles and returns their pulse targets
// without commanding anything. Used for atomic multi-joint dispatch.
func (l *Leg) servoTargets(a LegAngles) (coxa, femur, tibia uint16, err error) {
	if coxa, err = l.Coxa.ServoTarget(a.Coxa); err != nil {
		return 0, 0, 0, err
	}
	if femur, err = l.Femur.ServoTarget(a.Femur); err != nil {
		return 0, 0, 0, err
	}
	if tibia, err = l.Tibia.ServoTarget(a.Tibia); err != nil {
		return 0, 0, 0, err
	}
	return coxa, femur, tibia, nil
}

// MoveToAngles commands all three joints to the given angles. All angles
// are validated before any joint is commanded, so a limit violation moves
// nothing.
func (l *Leg) MoveToAngles(a LegAngles) error {
	if _, _, _, err := l.servoTargets(a); err != nil {
		return err
	}
	if err := l.Coxa.SetAngle(a.Coxa); err != nil {
		return err
	}
	if err := l.Femur.SetAngle(a.Femur); err != nil {
		return err
	}
	return l.Tibia.SetAngle(a.Tibia)
}

// MoveTo computes IK for the target and commands the joints.
func (l *Leg) MoveTo(target r3.Vector) (LegAngles, error) {
	angles, err := l.InverseKinematics(target)
	if err != nil {
		return LegAngles{}, err
	}
	if err := l.MoveToAngles(angles); err != nil {
		return LegAngles{}, err
	}
	return angles, nil
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }
