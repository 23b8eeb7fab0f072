package drive

import (
	"context"
	"errors"
	"sync"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/pkg/metrics"
	"cloupeer.io/bcicar/pkg/log"
)

// ErrClosed is returned by Dispatch once the arbiter has been closed.
var ErrClosed = errors.New("command arbiter is closed")

// execution is the handle to the one running action.
type execution struct {
	action Action
	cancel context.CancelFunc
	done   chan struct{}
}

func (x *execution) running() bool {
	select {
	case <-x.done:
		return false
	default:
		return true
	}
}

// Arbiter guarantees that at most one action executes at a time. A new
// command cancels the running one and waits for its compensating ramp to
// finish before the new action touches the motors.
type Arbiter struct {
	engine   *Engine
	signaler core.Signaler

	mu      sync.Mutex
	current *execution
	closed  bool
}

func NewArbiter(engine *Engine, signaler core.Signaler) *Arbiter {
	return &Arbiter{engine: engine, signaler: signaler}
}

// Dispatch acknowledges the command on the indicator, supersedes any running
// execution and starts action on its own goroutine. It returns once the new
// execution has been started, not when it finishes.
func (a *Arbiter) Dispatch(ctx context.Context, action Action) error {
	if a.signaler != nil {
		a.signaler.Signal(ctx, core.EventCommandReceived)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	if a.current != nil && a.current.running() {
		log.Info("Superseding running action", "running", a.current.action, "next", action)
	}
	a.drainLocked()

	// The execution outlives the request that dispatched it.
	execCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	x := &execution{action: action, cancel: cancel, done: make(chan struct{})}
	a.current = x
	metrics.CommandsTotal.WithLabelValues(string(action)).Inc()

	go a.run(execCtx, x)
	return nil
}

func (a *Arbiter) run(ctx context.Context, x *execution) {
	defer close(x.done)
	defer x.cancel()

	if err := a.engine.Execute(ctx, x.action); err != nil {
		log.Error(err, "Execution failed", "action", x.action)
	}
}

// drainLocked cancels the current execution and blocks until its cleanup
// has run. The caller holds a.mu.
func (a *Arbiter) drainLocked() {
	if a.current == nil {
		return
	}
	a.current.cancel()
	<-a.current.done
	a.current = nil
}

// Active returns the action of the running execution, if any.
func (a *Arbiter) Active() (Action, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil || !a.current.running() {
		return "", false
	}
	return a.current.action, true
}

// State returns the engine's execution snapshot.
func (a *Arbiter) State() ExecutionState {
	return a.engine.State()
}

// Close drains the running execution, hard-stops the motors and refuses
// further dispatches. It is safe to call more than once.
func (a *Arbiter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	a.drainLocked()
	a.engine.HardStop()
	log.Info("Command arbiter closed, motors stopped")
}
