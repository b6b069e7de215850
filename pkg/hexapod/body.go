package hexapod

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// mat3 is a row-major 3x3 rotation matrix.
type mat3 [3][3]float64

func (m mat3) mulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// rotationZYX builds Rz(yaw)*Ry(pitch)*Rx(roll) from degrees.
func rotationZYX(roll, pitch, yaw float64) mat3 {
	r, p, y := radians(roll), radians(pitch), radians(yaw)
	sr, cr := math.Sincos(r)
	sp, cp := math.Sincos(p)
	sy, cy := math.Sincos(y)
	return mat3{
		{cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr},
		{sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr},
		{-sp, cp * sr, cp * cr},
	}
}

// restFootWorld returns the neutral world-frame foot position for the leg
// at the given mount yaw: feet on the end-effector circle with the tibia
// pointing straight down.
func (h *Hexapod) restFootWorld(yaw float64) r3.Vector {
	return r3.Vector{
		X: h.endEffectorRadius * math.Cos(yaw),
		Y: h.endEffectorRadius * math.Sin(yaw),
		Z: -h.params.Tibia.Length,
	}
}

// bodyDeltas resolves a body transform into per-leg foot deltas, first in
// the world frame and then rotated into each leg's local frame.
func (h *Hexapod) bodyDeltas(tx, ty, tz, roll, pitch, yaw float64) [NumLegs]r3.Vector {
	rot := rotationZYX(roll, pitch, yaw)
	// The translation moves the body, so the planted feet shift the
	// opposite way: positive tx slides the body forward (feet -x),
	// positive tz raises it (feet down).
	trans := r3.Vector{X: -tx, Y: -ty, Z: -tz}

	var deltas [NumLegs]r3.Vector
	for i, leg := range h.legs {
		rest := h.restFootWorld(leg.Mount.Yaw)
		moved := rot.mulVec(rest).Add(trans)
		world := moved.Sub(rest)

		// Rotate the world delta into the leg frame (local X points
		// outward along the mount yaw).
		sinM, cosM := math.Sincos(leg.Mount.Yaw)
		deltas[i] = r3.Vector{
			X: cosM*world.X + sinM*world.Y,
			Y: -sinM*world.X + cosM*world.Y,
			Z: world.Z,
		}
	}
	return deltas
}

// MoveBody applies a body translation (mm) and rotation (degrees) by
// resolving it into six foot targets relative to the current stance and
// dispatching them through MoveAllLegs. This is the single place a body
// pose becomes leg targets, so it inherits MoveAllLegs' reachability and
// atomicity contract: if any leg cannot realize the pose, no leg moves.
func (h *Hexapod) MoveBody(tx, ty, tz, roll, pitch, yaw float64) error {
	deltas := h.bodyDeltas(tx, ty, tz, roll, pitch, yaw)

	current := h.CurrentLegPositions()
	var targets [NumLegs]r3.Vector
	for i := range targets {
		targets[i] = current[i].Add(deltas[i])
	}

	if err := h.MoveAllLegs(targets); err != nil {
		return fmt.Errorf("move body (tx=%.1f ty=%.1f tz=%.1f roll=%.1f pitch=%.1f yaw=%.1f): %w",
			tx, ty, tz, roll, pitch, yaw, err)
	}
	return nil
}
