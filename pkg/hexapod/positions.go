package hexapod

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/hexapod-robotics/hexapod/internal/log"
)

// Position names a predefined foot-position stance.
type Position string

// AnglePosition names a predefined joint-angle stance.
type AnglePosition string

// Predefined stances. Low profile folds the body close to the ground;
// upright is the ready/standing stance.
const (
	PositionLowProfile Position = "low_profile"
	PositionUpright    Position = "upright"

	AngleLowProfile AnglePosition = "low_profile"
	AngleUpright    AnglePosition = "upright"
)

// Static per-leg angle stances. The same triple applies to all six legs;
// foot-position stances are derived from these through FK at construction,
// which keeps both tables consistent with the configured geometry.
var predefinedAngles = map[AnglePosition]LegAngles{
	AngleLowProfile: {Coxa: 0, Femur: 60, Tibia: -155},
	AngleUpright:    {Coxa: 0, Femur: 20, Tibia: -110},
}

func (h *Hexapod) buildPredefinedPositions() {
	h.anglePositions = make(map[AnglePosition][NumLegs]LegAngles, len(predefinedAngles))
	h.positions = make(map[Position][NumLegs]r3.Vector, len(predefinedAngles))

	for name, a := range predefinedAngles {
		var angles [NumLegs]LegAngles
		var feet [NumLegs]r3.Vector
		for i := range angles {
			angles[i] = a
			feet[i] = h.legs[i].ForwardKinematics(a)
		}
		h.anglePositions[name] = angles
		h.positions[Position(name)] = feet
	}
}

// StanceFeet returns the foot positions of a predefined stance.
func (h *Hexapod) StanceFeet(name Position) ([NumLegs]r3.Vector, bool) {
	feet, ok := h.positions[name]
	return feet, ok
}

// StanceAngles returns the joint angles of a predefined stance.
func (h *Hexapod) StanceAngles(name AnglePosition) ([NumLegs]LegAngles, bool) {
	angles, ok := h.anglePositions[name]
	return angles, ok
}

// MoveToPosition moves all legs to a predefined foot-position stance.
func (h *Hexapod) MoveToPosition(name Position) error {
	feet, ok := h.positions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPosition, name)
	}
	log.Info("moving to predefined position", "position", string(name))
	return h.MoveAllLegs(feet)
}

// MoveToAnglesPosition moves all legs to a predefined joint-angle stance.
func (h *Hexapod) MoveToAnglesPosition(name AnglePosition) error {
	angles, ok := h.anglePositions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPosition, name)
	}
	log.Info("moving to predefined angle position", "position", string(name))
	return h.MoveAllLegsAngles(angles)
}
