package control

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
)

// waitDone fails the test if the task does not finish quickly.
func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestTaskCompletes(t *testing.T) {
	var calls atomic.Int32
	var gotOutcome Outcome
	var gotErr error

	task := NewTask("noop", func(*Task) error { return nil },
		func(_ *Task, outcome Outcome, err error) {
			calls.Add(1)
			gotOutcome = outcome
			gotErr = err
		})
	task.Start()
	waitDone(t, task)

	if n := calls.Load(); n != 1 {
		t.Fatalf("callback ran %d times, want 1", n)
	}
	if gotOutcome != Completed || gotErr != nil {
		t.Errorf("outcome = %v err = %v, want completed nil", gotOutcome, gotErr)
	}
}

func TestTaskFails(t *testing.T) {
	boom := errors.New("boom")
	var gotOutcome Outcome
	var gotErr error

	task := NewTask("failing", func(*Task) error { return fmt.Errorf("step 2: %w", boom) },
		func(_ *Task, outcome Outcome, err error) {
			gotOutcome = outcome
			gotErr = err
		})
	task.Start()
	waitDone(t, task)

	if gotOutcome != Failed {
		t.Errorf("outcome = %v, want failed", gotOutcome)
	}
	if !errors.Is(gotErr, boom) {
		t.Errorf("err = %v, want wrapped boom", gotErr)
	}
}

func TestTaskCancelledMidRun(t *testing.T) {
	started := make(chan struct{})
	var gotOutcome Outcome
	var gotErr error

	task := NewTask("blocking", func(task *Task) error {
		close(started)
		<-task.StopChan()
		return fmt.Errorf("wave: %w", hexapod.ErrCancelled)
	}, func(_ *Task, outcome Outcome, err error) {
		gotOutcome = outcome
		gotErr = err
	})
	task.Start()

	<-started
	task.Stop()
	waitDone(t, task)

	if gotOutcome != Cancelled {
		t.Errorf("outcome = %v, want cancelled", gotOutcome)
	}
	if gotErr != nil {
		t.Errorf("cancelled task reported err = %v", gotErr)
	}
}

func TestTaskStoppedBeforeStart(t *testing.T) {
	ran := false
	var gotOutcome Outcome

	task := NewTask("never", func(*Task) error { ran = true; return nil },
		func(_ *Task, outcome Outcome, _ error) { gotOutcome = outcome })
	task.Stop()
	task.Start()
	waitDone(t, task)

	if ran {
		t.Error("routine ran despite pre-start stop")
	}
	if gotOutcome != Cancelled {
		t.Errorf("outcome = %v, want cancelled", gotOutcome)
	}
}

func TestTaskRecoversPanic(t *testing.T) {
	var gotOutcome Outcome
	var gotErr error

	task := NewTask("panicking", func(*Task) error { panic("kaboom") },
		func(_ *Task, outcome Outcome, err error) {
			gotOutcome = outcome
			gotErr = err
		})
	task.Start()
	waitDone(t, task)

	if gotOutcome != Failed {
		t.Errorf("outcome = %v, want failed", gotOutcome)
	}
	if gotErr == nil {
		t.Fatal("panicking task reported nil error")
	}
}

func TestTaskStopIsIdempotent(t *testing.T) {
	task := NewTask("noop", func(*Task) error { return nil }, nil)
	task.Stop()
	task.Stop() // must not panic on double close
	task.Start()
	waitDone(t, task)

	if !task.Stopped() {
		t.Error("Stopped() = false after Stop")
	}
}
