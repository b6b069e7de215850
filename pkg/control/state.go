// Package control orchestrates robot behaviours: a state machine that
// admits or rejects intents, cancellable background tasks, and the
// routines those tasks run.
package control

import (
	"sync"

	"github.com/hexapod-robotics/hexapod/internal/log"
)

// RobotState is the coarse activity state of the robot.
type RobotState int

const (
	StateIdle RobotState = iota
	StateMoving
	StateTurning
	StateChangingMode
)

func (s RobotState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateTurning:
		return "turning"
	case StateChangingMode:
		return "changing_mode"
	default:
		return "unknown"
	}
}

// StateManager tracks the robot state and decides which intents are
// admissible in the current state. Safe for concurrent use.
type StateManager struct {
	mu    sync.RWMutex
	state RobotState
}

// NewStateManager starts in the idle state.
func NewStateManager() *StateManager {
	return &StateManager{state: StateIdle}
}

// State returns the current state.
func (m *StateManager) State() RobotState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SetState transitions to the given state.
func (m *StateManager) SetState(s RobotState) {
	m.mu.Lock()
	old := m.state
	m.state = s
	m.mu.Unlock()
	if old != s {
		log.Debug("state transition", "from", old.String(), "to", s.String())
	}
}

// CanExecute reports whether an intent is admissible right now.
func (m *StateManager) CanExecute(intent string) bool {
	return canExecute(m.State(), intent)
}

// canExecute is the admission table. Idle admits everything; while
// moving only a stop is accepted.
//
// TODO: turning and changing_mode currently admit every intent; they
// should be restricted to stop the same way moving is.
func canExecute(state RobotState, intent string) bool {
	switch state {
	case StateIdle:
		return true
	case StateMoving:
		return intent == IntentStop
	default:
		return true
	}
}
