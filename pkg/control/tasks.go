package control

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
	"github.com/hexapod-robotics/hexapod/pkg/lights"
)

// Intent names accepted by the dispatcher.
const (
	IntentStop       = "stop"
	IntentIdleStance = "idle_stance"
	IntentSayHello   = "say_hello"
	IntentDance      = "dance"
	IntentShowOff    = "show_off"
	IntentWakeUp     = "wake_up"
	IntentSleep      = "sleep"
	IntentMarch      = "march_in_place"
	IntentHelix      = "helix"
	IntentMove       = "move"
	IntentRotate     = "rotate"
)

// Movement directions for the move and rotate intents.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
	DirectionLeft     = "left"
	DirectionRight    = "right"
)

// Routines builds the task routines against a robot and its LED strip.
type Routines struct {
	hex    *hexapod.Hexapod
	lights lights.Handler
}

// NewRoutines wires the behaviour library to the hardware.
func NewRoutines(h *hexapod.Hexapod, l lights.Handler) *Routines {
	return &Routines{hex: h, lights: l}
}

// wait blocks until the servos report motion complete, honouring the
// task's stop request.
func (r *Routines) wait(t *Task) error {
	return r.hex.WaitUntilMotionComplete(t.StopChan())
}

// pause sleeps for d unless the task is stopped first.
func pause(t *Task, d time.Duration) error {
	select {
	case <-t.StopChan():
		return hexapod.ErrCancelled
	case <-time.After(d):
		return nil
	}
}

// uprightAngles looks up the upright stance table that the gait and
// gesture routines build on. A missing table is a configuration fault,
// not a silent zero stance.
func (r *Routines) uprightAngles() ([hexapod.NumLegs]hexapod.LegAngles, error) {
	angles, ok := r.hex.StanceAngles(hexapod.AngleUpright)
	if !ok {
		return angles, fmt.Errorf("%w: %q", hexapod.ErrUnknownPosition, hexapod.AngleUpright)
	}
	return angles, nil
}

// moveAndWait is the common dispatch-then-settle step.
func (r *Routines) moveAndWait(t *Task, angles [hexapod.NumLegs]hexapod.LegAngles) error {
	if err := r.hex.MoveAllLegsAngles(angles); err != nil {
		return err
	}
	return r.wait(t)
}

// IdleStance returns the robot to the upright ready stance.
func (r *Routines) IdleStance() Routine {
	return func(t *Task) error {
		if err := r.hex.MoveToAnglesPosition(hexapod.AngleUpright); err != nil {
			return err
		}
		return r.wait(t)
	}
}

// WakeUp raises the robot from the folded stance and lights it up.
func (r *Routines) WakeUp() Routine {
	return func(t *Task) error {
		r.lights.SetBrightness(60)
		r.lights.Rainbow()
		if err := r.hex.MoveToAnglesPosition(hexapod.AngleLowProfile); err != nil {
			return err
		}
		if err := r.wait(t); err != nil {
			return err
		}
		if err := r.hex.MoveToAnglesPosition(hexapod.AngleUpright); err != nil {
			return err
		}
		return r.wait(t)
	}
}

// Sleep folds the robot down and turns the lights off.
func (r *Routines) Sleep() Routine {
	return func(t *Task) error {
		if err := r.hex.MoveToAnglesPosition(hexapod.AngleLowProfile); err != nil {
			return err
		}
		if err := r.wait(t); err != nil {
			return err
		}
		r.lights.Off()
		return nil
	}
}

// Stop folds the robot down and releases all servos. It ignores the
// task's stop request: a stop must always run to completion.
func (r *Routines) Stop() Routine {
	return func(t *Task) error {
		defer r.lights.Off()
		// Never-closed channel: the shutdown sequence is not cancellable.
		if err := r.hex.DeactivateAllServos(make(chan struct{})); err != nil {
			return err
		}
		return nil
	}
}

// SayHello lifts the front-right leg and waves it.
func (r *Routines) SayHello() Routine {
	return func(t *Task) error {
		r.lights.Listen()
		upright, err := r.uprightAngles()
		if err != nil {
			return err
		}

		raised := hexapod.LegAngles{Coxa: 0, Femur: 80, Tibia: -30}
		if err := r.hex.MoveLegAngles(0, raised); err != nil {
			return err
		}
		if err := r.wait(t); err != nil {
			return err
		}

		for i := 0; i < 3; i++ {
			for _, tibia := range []float64{-70, -30} {
				wave := raised
				wave.Tibia = tibia
				if err := r.hex.MoveLegAngles(0, wave); err != nil {
					return err
				}
				if err := r.wait(t); err != nil {
					return err
				}
			}
		}

		if err := r.hex.MoveLegAngles(0, upright[0]); err != nil {
			return err
		}
		return r.wait(t)
	}
}

// Dance sways the body side to side and bounces it to a fixed beat.
func (r *Routines) Dance() Routine {
	return func(t *Task) error {
		r.lights.Police()
		defer r.lights.Rainbow()

		if err := r.hex.MoveToAnglesPosition(hexapod.AngleUpright); err != nil {
			return err
		}
		if err := r.wait(t); err != nil {
			return err
		}

		type pose struct{ tx, ty, tz, roll, pitch, yaw float64 }
		steps := []pose{
			{ty: 25},
			{ty: -50},
			{ty: 25, tz: -20},
			{tz: 40},
			{tz: -20, roll: 8},
			{roll: -16},
			{roll: 8},
		}
		for cycle := 0; cycle < 2; cycle++ {
			for _, s := range steps {
				if err := r.hex.MoveBody(s.tx, s.ty, s.tz, s.roll, s.pitch, s.yaw); err != nil {
					return err
				}
				if err := r.wait(t); err != nil {
					return err
				}
				if err := pause(t, 150*time.Millisecond); err != nil {
					return err
				}
			}
		}
		return r.IdleStance()(t)
	}
}

// ShowOff runs the full body-pose repertoire: rolls, pitches and a yaw
// sweep.
func (r *Routines) ShowOff() Routine {
	return func(t *Task) error {
		r.lights.Rainbow()

		if err := r.hex.MoveToAnglesPosition(hexapod.AngleUpright); err != nil {
			return err
		}
		if err := r.wait(t); err != nil {
			return err
		}

		type pose struct{ tx, ty, tz, roll, pitch, yaw float64 }
		steps := []pose{
			{roll: 12}, {roll: -24}, {roll: 12},
			{pitch: 12}, {pitch: -24}, {pitch: 12},
			{yaw: 15}, {yaw: -30}, {yaw: 15},
			{tz: 35}, {tz: -55}, {tz: 20},
		}
		for _, s := range steps {
			if err := r.hex.MoveBody(s.tx, s.ty, s.tz, s.roll, s.pitch, s.yaw); err != nil {
				return err
			}
			if err := r.wait(t); err != nil {
				return err
			}
		}
		return r.IdleStance()(t)
	}
}

// MarchInPlace lifts alternating leg tripods without any stride.
func (r *Routines) MarchInPlace(cycles int) Routine {
	return func(t *Task) error {
		r.lights.Think()
		upright, err := r.uprightAngles()
		if err != nil {
			return err
		}

		lift := func(group [3]int) [hexapod.NumLegs]hexapod.LegAngles {
			angles := upright
			for _, i := range group {
				angles[i].Femur += 35
				angles[i].Tibia += 25
			}
			return angles
		}

		for c := 0; c < cycles; c++ {
			for _, group := range [][3]int{{0, 2, 4}, {1, 3, 5}} {
				if err := r.moveAndWait(t, lift(group)); err != nil {
					return err
				}
				if err := r.moveAndWait(t, upright); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// Helix twists all coxa joints one way and then the other, like the
// robot looking over each shoulder.
func (r *Routines) Helix() Routine {
	return func(t *Task) error {
		r.lights.Rainbow()
		upright, err := r.uprightAngles()
		if err != nil {
			return err
		}

		twist := func(coxa float64) [hexapod.NumLegs]hexapod.LegAngles {
			angles := upright
			for i := range angles {
				angles[i].Coxa = coxa
			}
			return angles
		}

		for cycle := 0; cycle < 2; cycle++ {
			for _, coxa := range []float64{-20, 20} {
				if err := r.moveAndWait(t, twist(coxa)); err != nil {
					return err
				}
			}
		}
		return r.moveAndWait(t, upright)
	}
}

// directionVector maps a named direction onto a unit vector in the body
// frame (X towards leg 0, Y 90 degrees counter-clockwise from it).
func directionVector(direction string) (r3.Vector, error) {
	switch direction {
	case DirectionForward:
		return r3.Vector{X: 1}, nil
	case DirectionBackward:
		return r3.Vector{X: -1}, nil
	case DirectionLeft:
		return r3.Vector{Y: 1}, nil
	case DirectionRight:
		return r3.Vector{Y: -1}, nil
	default:
		return r3.Vector{}, fmt.Errorf("unknown direction %q", direction)
	}
}

// legFrameDelta rotates a body-frame stride into the leg's local frame.
func (r *Routines) legFrameDelta(i int, d r3.Vector) (r3.Vector, error) {
	leg, err := r.hex.Leg(i)
	if err != nil {
		return r3.Vector{}, err
	}
	sinM, cosM := math.Sincos(leg.Mount.Yaw)
	return r3.Vector{
		X: cosM*d.X + sinM*d.Y,
		Y: -sinM*d.X + cosM*d.Y,
		Z: d.Z,
	}, nil
}

// Move walks the robot with a tripod gait: one tripod swings through the
// air to its forward landing point while the other pushes the body along
// the ground.
func (r *Routines) Move(direction string, cycles int) Routine {
	const (
		stride = 40.0 // mm per half step
		lift   = 45.0 // swing clearance, mm
	)

	return func(t *Task) error {
		dir, err := directionVector(direction)
		if err != nil {
			return err
		}
		r.lights.Think()

		rest, ok := r.hex.StanceFeet(hexapod.PositionUpright)
		if !ok {
			return fmt.Errorf("%w: %q", hexapod.ErrUnknownPosition, hexapod.PositionUpright)
		}
		var delta [hexapod.NumLegs]r3.Vector
		for i := range delta {
			if delta[i], err = r.legFrameDelta(i, dir.Mul(stride)); err != nil {
				return err
			}
		}

		if err := r.hex.MoveAllLegs(rest); err != nil {
			return err
		}
		if err := r.wait(t); err != nil {
			return err
		}

		halfStep := func(swing, stance [3]int) error {
			feet := r.hex.CurrentLegPositions()

			// Lift the swing tripod straight up.
			for _, i := range swing {
				feet[i].Z += lift
			}
			if err := r.hex.MoveAllLegs(feet); err != nil {
				return err
			}
			if err := r.wait(t); err != nil {
				return err
			}

			// Swing forward through the air while the stance tripod
			// pushes the body along the stride.
			for _, i := range swing {
				feet[i] = rest[i].Add(delta[i])
				feet[i].Z += lift
			}
			for _, i := range stance {
				feet[i] = rest[i].Sub(delta[i])
			}
			if err := r.hex.MoveAllLegs(feet); err != nil {
				return err
			}
			if err := r.wait(t); err != nil {
				return err
			}

			// Plant the swing tripod.
			for _, i := range swing {
				feet[i] = rest[i].Add(delta[i])
			}
			if err := r.hex.MoveAllLegs(feet); err != nil {
				return err
			}
			return r.wait(t)
		}

		for c := 0; c < cycles; c++ {
			if err := halfStep([3]int{0, 2, 4}, [3]int{1, 3, 5}); err != nil {
				return err
			}
			if err := halfStep([3]int{1, 3, 5}, [3]int{0, 2, 4}); err != nil {
				return err
			}
		}

		return r.moveAllLegsHome(t, rest)
	}
}

// Rotate turns the robot in place with a tripod gait driven purely by
// coxa swings.
func (r *Routines) Rotate(direction string, cycles int) Routine {
	const swing = 18.0 // coxa degrees per half step

	return func(t *Task) error {
		var sign float64
		switch direction {
		case DirectionLeft:
			sign = 1
		case DirectionRight:
			sign = -1
		default:
			return fmt.Errorf("unknown rotation direction %q", direction)
		}
		r.lights.Think()

		upright, err := r.uprightAngles()
		if err != nil {
			return err
		}

		halfStep := func(air, ground [3]int) error {
			angles := upright

			// Lift one tripod and swing its coxa joints against the
			// direction of rotation.
			for _, i := range air {
				angles[i].Femur += 35
				angles[i].Tibia += 25
				angles[i].Coxa = -sign * swing
			}
			if err := r.moveAndWait(t, angles); err != nil {
				return err
			}

			// Plant it, then drive every coxa towards neutral: the
			// grounded legs sweep the body around.
			for _, i := range air {
				angles[i].Femur = upright[i].Femur
				angles[i].Tibia = upright[i].Tibia
			}
			if err := r.moveAndWait(t, angles); err != nil {
				return err
			}
			for _, i := range ground {
				angles[i].Coxa = sign * swing
			}
			return r.moveAndWait(t, angles)
		}

		for c := 0; c < cycles; c++ {
			if err := halfStep([3]int{0, 2, 4}, [3]int{1, 3, 5}); err != nil {
				return err
			}
			if err := halfStep([3]int{1, 3, 5}, [3]int{0, 2, 4}); err != nil {
				return err
			}
		}
		return r.moveAndWait(t, upright)
	}
}

func (r *Routines) moveAllLegsHome(t *Task, rest [hexapod.NumLegs]r3.Vector) error {
	if err := r.hex.MoveAllLegs(rest); err != nil {
		return err
	}
	return r.wait(t)
}
