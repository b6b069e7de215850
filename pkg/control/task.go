package control

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hexapod-robotics/hexapod/internal/log"
	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
)

// Outcome is how a task finished.
type Outcome int

const (
	Completed Outcome = iota
	Failed
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Routine is the body of a task. It should select on Task.StopChan at
// every blocking point and return hexapod.ErrCancelled when asked to
// stop.
type Routine func(t *Task) error

// Callback is invoked exactly once when a task finishes, from the task
// goroutine.
type Callback func(t *Task, outcome Outcome, err error)

// Task is a cancellable unit of robot behaviour running on its own
// goroutine.
type Task struct {
	id       uuid.UUID
	name     string
	routine  Routine
	callback Callback

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewTask wraps a routine. The callback may be nil.
func NewTask(name string, routine Routine, callback Callback) *Task {
	return &Task{
		id:       uuid.New(),
		name:     name,
		routine:  routine,
		callback: callback,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the task id.
func (t *Task) ID() uuid.UUID { return t.id }

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// StopChan is closed when the task has been asked to stop. Routines
// select on it at blocking points.
func (t *Task) StopChan() <-chan struct{} { return t.stop }

// Done is closed once the task has finished and its callback has run.
func (t *Task) Done() <-chan struct{} { return t.done }

// Stop requests cancellation. It does not wait; use Done for that.
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Stopped reports whether cancellation has been requested.
func (t *Task) Stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// Start runs the routine on a new goroutine. The callback fires exactly
// once with the outcome: Cancelled when the routine quit on a stop
// request, Failed on any other error or panic, Completed otherwise.
func (t *Task) Start() {
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %s panicked: %v", t.name, r)
			}
			outcome := Completed
			switch {
			case errors.Is(err, hexapod.ErrCancelled):
				outcome = Cancelled
				err = nil
			case err != nil:
				outcome = Failed
			}
			log.Debug("task finished", "task", t.name, "id", t.id.String(), "outcome", outcome.String(), "err", err)
			if t.callback != nil {
				t.callback(t, outcome, err)
			}
			close(t.done)
		}()

		if t.Stopped() {
			err = hexapod.ErrCancelled
			return
		}
		log.Debug("task started", "task", t.name, "id", t.id.String())
		err = t.routine(t)
	}()
}
