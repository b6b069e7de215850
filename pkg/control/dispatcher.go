package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/hexapod-robotics/hexapod/internal/log"
	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
	"github.com/hexapod-robotics/hexapod/pkg/lights"
)

// ErrNotAdmissible is returned when the state machine rejects an intent.
var ErrNotAdmissible = fmt.Errorf("intent not admissible in current state")

// stopTimeout bounds how long the dispatcher waits for the previous task
// to acknowledge its stop request.
const stopTimeout = 5 * time.Second

// Dispatcher turns intents into tasks. At most one task runs at a time:
// dispatching a new intent stops the previous task first.
type Dispatcher struct {
	routines *Routines
	states   *StateManager

	// dispatchMu serializes Dispatch and Stop; slotMu guards the active
	// slot and is the only lock task callbacks take.
	dispatchMu sync.Mutex
	slotMu     sync.Mutex
	current    *Task
}

// NewDispatcher builds a dispatcher over the given robot.
func NewDispatcher(h *hexapod.Hexapod, l lights.Handler) *Dispatcher {
	return &Dispatcher{
		routines: NewRoutines(h, l),
		states:   NewStateManager(),
	}
}

// State exposes the robot state, for status reporting.
func (d *Dispatcher) State() RobotState {
	return d.states.State()
}

// ActiveTask returns the running task's name, or "" when idle.
func (d *Dispatcher) ActiveTask() string {
	d.slotMu.Lock()
	defer d.slotMu.Unlock()
	if d.current == nil {
		return ""
	}
	return d.current.Name()
}

// routineFor maps an intent to its routine and the state the robot is in
// while the routine runs.
func (d *Dispatcher) routineFor(intent, direction string) (Routine, RobotState, error) {
	switch intent {
	case IntentStop:
		return d.routines.Stop(), StateIdle, nil
	case IntentIdleStance:
		return d.routines.IdleStance(), StateIdle, nil
	case IntentSayHello:
		return d.routines.SayHello(), StateIdle, nil
	case IntentDance:
		return d.routines.Dance(), StateIdle, nil
	case IntentShowOff:
		return d.routines.ShowOff(), StateIdle, nil
	case IntentWakeUp:
		return d.routines.WakeUp(), StateChangingMode, nil
	case IntentSleep:
		return d.routines.Sleep(), StateChangingMode, nil
	case IntentMarch:
		return d.routines.MarchInPlace(4), StateMoving, nil
	case IntentHelix:
		return d.routines.Helix(), StateIdle, nil
	case IntentMove:
		if direction == "" {
			direction = DirectionForward
		}
		return d.routines.Move(direction, 3), StateMoving, nil
	case IntentRotate:
		if direction == "" {
			direction = DirectionLeft
		}
		return d.routines.Rotate(direction, 3), StateTurning, nil
	default:
		return nil, StateIdle, fmt.Errorf("unknown intent %q", intent)
	}
}

// Dispatch runs an intent. It consults the state machine for admission,
// cancels any task still running, and starts the new one. The returned
// task's Done channel closes when the behaviour finishes.
func (d *Dispatcher) Dispatch(intent, direction string) (*Task, error) {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	if !d.states.CanExecute(intent) {
		return nil, fmt.Errorf("%w: %s while %s", ErrNotAdmissible, intent, d.states.State())
	}

	routine, runState, err := d.routineFor(intent, direction)
	if err != nil {
		return nil, err
	}

	d.stopCurrent()

	task := NewTask(intent, routine, func(t *Task, outcome Outcome, err error) {
		if err != nil {
			log.Error("task failed", "task", t.Name(), "err", err)
		}
		d.finish(t)
	})

	d.slotMu.Lock()
	d.current = task
	d.slotMu.Unlock()

	d.states.SetState(runState)
	log.Info("dispatching intent", "intent", intent, "direction", direction, "state", runState.String())
	task.Start()
	return task, nil
}

// finish clears the active slot and returns the robot to idle, unless a
// newer task has already taken the slot.
func (d *Dispatcher) finish(t *Task) {
	d.slotMu.Lock()
	defer d.slotMu.Unlock()
	if d.current == t {
		d.current = nil
		d.states.SetState(StateIdle)
	}
}

// stopCurrent cancels the active task and waits for it to wind down.
// Callers hold dispatchMu but never slotMu.
func (d *Dispatcher) stopCurrent() {
	d.slotMu.Lock()
	task := d.current
	d.slotMu.Unlock()
	if task == nil {
		return
	}
	task.Stop()
	select {
	case <-task.Done():
	case <-time.After(stopTimeout):
		log.Warn("task did not stop in time", "task", task.Name(), "id", task.ID().String())
	}
}

// Stop cancels the active task, if any, without starting a new one.
func (d *Dispatcher) Stop() {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()
	d.stopCurrent()
}
