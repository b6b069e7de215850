package hexapod

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/hexapod-robotics/hexapod/internal/log"
)

// NumLegs is the number of legs on the robot.
const NumLegs = 6

// controllerChannels is the number of channels on the servo controller.
// Multi-target frames always cover the full block; unused channels are
// commanded to 0 (servo off).
const controllerChannels = 24

// Params is the static geometry and channel wiring of the robot, loaded
// once at construction and immutable afterwards.
type Params struct {
	HexagonSideLength float64

	// Per-joint templates. Channel is ignored here and taken from the
	// channel maps below for each leg.
	Coxa  JointParams
	Femur JointParams
	Tibia JointParams

	CoxaChannels  [NumLegs]uint8
	FemurChannels [NumLegs]uint8
	TibiaChannels [NumLegs]uint8

	EndEffectorOffset r3.Vector

	// Default speed and acceleration in percent (1-100, 0 = unlimited).
	SpeedPercent int
	AccelPercent int
}

// Hexapod is the six-legged body: it owns the legs, resolves body-level
// poses into per-leg targets, dispatches commands atomically and tracks
// the commanded stance.
type Hexapod struct {
	ctrl   ServoController
	params Params
	legs   [NumLegs]*Leg

	endEffectorRadius float64

	positions      map[Position][NumLegs]r3.Vector
	anglePositions map[AnglePosition][NumLegs]LegAngles

	mu           sync.RWMutex
	curPositions [NumLegs]r3.Vector
	curAngles    [NumLegs]LegAngles

	pollInterval     time.Duration
	motionStartGrace time.Duration
}

// New builds the hexapod from geometry parameters and calibration data and
// applies the default speed/acceleration to every servo. It does not move
// the robot; the first stance command is up to the caller.
func New(ctrl ServoController, p Params, cal Calibration) (*Hexapod, error) {
	h := &Hexapod{
		ctrl:              ctrl,
		params:            p,
		endEffectorRadius: p.HexagonSideLength + p.Coxa.Length + p.Femur.Length,
		pollInterval:      100 * time.Millisecond,
		motionStartGrace:  time.Second,
	}

	for i := 0; i < NumLegs; i++ {
		yaw := float64(i) * 60 * math.Pi / 180
		mount := MountPose{
			// Regular hexagon: circumradius equals the side length.
			Position: r3.Vector{
				X: p.HexagonSideLength * math.Cos(yaw),
				Y: p.HexagonSideLength * math.Sin(yaw),
			},
			Yaw: yaw,
		}

		coxa, femur, tibia := p.Coxa, p.Femur, p.Tibia
		coxa.Channel = p.CoxaChannels[i]
		femur.Channel = p.FemurChannels[i]
		tibia.Channel = p.TibiaChannels[i]

		leg := NewLeg(ctrl, i, coxa, femur, tibia, p.EndEffectorOffset, mount)
		cal.apply(leg)
		h.legs[i] = leg
	}

	h.buildPredefinedPositions()

	if err := h.SetAllServosSpeed(p.SpeedPercent); err != nil {
		return nil, err
	}
	if err := h.SetAllServosAccel(p.AccelPercent); err != nil {
		return nil, err
	}

	// Assume the low-profile stance until the first commanded move.
	h.curAngles = h.anglePositions[AngleLowProfile]
	for i, a := range h.curAngles {
		h.curPositions[i] = h.legs[i].ForwardKinematics(a)
	}

	log.Info("hexapod initialized",
		"hexagon_side", p.HexagonSideLength,
		"speed_percent", p.SpeedPercent,
		"accel_percent", p.AccelPercent)
	return h, nil
}

// Leg returns the leg at the given index.
func (h *Hexapod) Leg(i int) (*Leg, error) {
	if i < 0 || i >= NumLegs {
		return nil, fmt.Errorf("leg %d: %w", i, ErrInvalidIndex)
	}
	return h.legs[i], nil
}

// CurrentLegPositions returns a snapshot of the last commanded foot
// positions, per leg, in each leg's local frame.
func (h *Hexapod) CurrentLegPositions() [NumLegs]r3.Vector {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.curPositions
}

// CurrentLegAngles returns a snapshot of the last commanded joint angles.
func (h *Hexapod) CurrentLegAngles() [NumLegs]LegAngles {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.curAngles
}

// mapPercent converts a 1-100 percent value to the controller's 1-255
// range. 0 passes through as "unlimited".
func mapPercent(pct int) uint16 {
	if pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}
	return uint16(1 + (pct-1)*254/99)
}

// SetAllServosSpeed sets the speed limit for every joint servo.
// pct is 1-100, or 0 for unlimited.
func (h *Hexapod) SetAllServosSpeed(pct int) error {
	v := mapPercent(pct)
	if v == 0 {
		log.Warn("setting all servos speed to unlimited")
	} else {
		log.Info("setting all servos speed", "percent", pct)
	}
	for _, leg := range h.legs {
		for _, j := range []*Joint{leg.Coxa, leg.Femur, leg.Tibia} {
			if err := h.ctrl.SetSpeed(j.Channel, v); err != nil {
				return fmt.Errorf("set speed on channel %d: %w", j.Channel, err)
			}
			j.speed = v
		}
	}
	return nil
}

// SetAllServosAccel sets the acceleration limit for every joint servo.
// pct is 1-100, or 0 for unlimited.
func (h *Hexapod) SetAllServosAccel(pct int) error {
	v := mapPercent(pct)
	if v == 0 {
		log.Warn("setting all servos acceleration to unlimited")
	} else {
		log.Info("setting all servos acceleration", "percent", pct)
	}
	for _, leg := range h.legs {
		for _, j := range []*Joint{leg.Coxa, leg.Femur, leg.Tibia} {
			if err := h.ctrl.SetAcceleration(j.Channel, v); err != nil {
				return fmt.Errorf("set acceleration on channel %d: %w", j.Channel, err)
			}
			j.accel = v
		}
	}
	return nil
}

// MoveLeg moves a single leg's foot to target in the leg's local frame.
func (h *Hexapod) MoveLeg(i int, target r3.Vector) error {
	leg, err := h.Leg(i)
	if err != nil {
		return err
	}
	angles, err := leg.MoveTo(target)
	if err != nil {
		return fmt.Errorf("leg %d: %w", i, err)
	}
	h.mu.Lock()
	h.curPositions[i] = target
	h.curAngles[i] = angles
	h.mu.Unlock()
	log.Debug("leg moved", "leg", i, "x", target.X, "y", target.Y, "z", target.Z)
	return nil
}

// MoveLegAngles moves a single leg to explicit joint angles.
func (h *Hexapod) MoveLegAngles(i int, angles LegAngles) error {
	leg, err := h.Leg(i)
	if err != nil {
		return err
	}
	if err := leg.MoveToAngles(angles); err != nil {
		return fmt.Errorf("leg %d: %w", i, err)
	}
	h.mu.Lock()
	h.curAngles[i] = angles
	h.curPositions[i] = leg.ForwardKinematics(angles)
	h.mu.Unlock()
	return nil
}

// MoveAllLegs moves all six feet to the given targets. IK and joint limits
// are validated for every leg before anything is dispatched: either all 18
// joints are commanded in a single multi-target frame, or none are, and the
// error names the first leg that failed.
func (h *Hexapod) MoveAllLegs(positions [NumLegs]r3.Vector) error {
	var angles [NumLegs]LegAngles
	for i, leg := range h.legs {
		a, err := leg.InverseKinematics(positions[i])
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
		angles[i] = a
	}
	if err := h.dispatchAngles(angles); err != nil {
		return err
	}
	h.mu.Lock()
	h.curPositions = positions
	h.curAngles = angles
	h.mu.Unlock()
	log.Debug("all legs moved")
	return nil
}

// MoveAllLegsAngles moves all six legs to explicit joint angles with the
// same validate-everything-then-dispatch contract as MoveAllLegs.
func (h *Hexapod) MoveAllLegsAngles(angles [NumLegs]LegAngles) error {
	if err := h.dispatchAngles(angles); err != nil {
		return err
	}
	h.mu.Lock()
	h.curAngles = angles
	for i, a := range angles {
		h.curPositions[i] = h.legs[i].ForwardKinematics(a)
	}
	h.mu.Unlock()
	return nil
}

// dispatchAngles validates every joint target and sends one multi-target
// frame covering the whole channel block. Unused channels get 0 (off).
func (h *Hexapod) dispatchAngles(angles [NumLegs]LegAngles) error {
	var frame [controllerChannels]uint16
	for i, leg := range h.legs {
		coxa, femur, tibia, err := leg.servoTargets(angles[i])
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
		frame[leg.Coxa.Channel] = coxa
		frame[leg.Femur.Channel] = femur
		frame[leg.Tibia.Channel] = tibia
	}
	if err := h.ctrl.SetMultipleTargets(0, frame[:]); err != nil {
		return fmt.Errorf("dispatch targets: %w", err)
	}
	return nil
}

// DeactivateAllServos parks the robot in the low-profile stance, waits for
// the motion to finish, then turns every servo off.
func (h *Hexapod) DeactivateAllServos(stop <-chan struct{}) error {
	log.Info("moving to low-profile stance before deactivating servos")
	if err := h.MoveToPosition(PositionLowProfile); err != nil {
		return err
	}
	if err := h.WaitUntilMotionComplete(stop); err != nil {
		return err
	}
	var frame [controllerChannels]uint16
	if err := h.ctrl.SetMultipleTargets(0, frame[:]); err != nil {
		return fmt.Errorf("deactivate servos: %w", err)
	}
	log.Info("all servos deactivated")
	return nil
}

// WaitUntilMotionComplete blocks until every commanded servo reports
// arrival, or until stop is closed, whichever comes first. A short grace
// period covers the controller's reporting delay before motion starts.
// This is the only blocking point exposed to control tasks; it returns
// ErrCancelled when stop wins.
func (h *Hexapod) WaitUntilMotionComplete(stop <-chan struct{}) error {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	// Wait briefly for the controller to report motion at all.
	start := time.Now()
	for time.Since(start) < h.motionStartGrace {
		moving, err := h.ctrl.GetMovingState()
		if err != nil {
			return fmt.Errorf("query moving state: %w", err)
		}
		if moving {
			break
		}
		select {
		case <-stop:
			return ErrCancelled
		case <-ticker.C:
		}
	}

	for {
		moving, err := h.ctrl.GetMovingState()
		if err != nil {
			return fmt.Errorf("query moving state: %w", err)
		}
		if !moving {
			log.Debug("motion complete")
			return nil
		}
		select {
		case <-stop:
			return ErrCancelled
		case <-ticker.C:
		}
	}
}
