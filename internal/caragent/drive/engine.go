package drive

import (
	"context"
	"fmt"
	"sync"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"cloupeer.io/bcicar/internal/pkg/metrics"
	fsmutil "cloupeer.io/bcicar/internal/pkg/util/fsm"
	"cloupeer.io/bcicar/internal/pkg/util/sleeper"
	"cloupeer.io/bcicar/pkg/log"
)

// Profile holds the tunables of a motion.
type Profile struct {
	// Speed is the cruise duty.
	Speed int `json:"speed" mapstructure:"speed"`
	// MinDuty is where the start ramp begins, just above the motor's stall duty.
	MinDuty int `json:"min-duty" mapstructure:"min-duty"`
	// Steps is the number of intervals in every ramp.
	Steps int `json:"ramp-steps" mapstructure:"ramp-steps"`

	StartDuration      time.Duration `json:"start-duration" mapstructure:"start-duration"`
	StopDuration       time.Duration `json:"stop-duration" mapstructure:"stop-duration"`
	StopActionDuration time.Duration `json:"stop-action-duration" mapstructure:"stop-action-duration"`
	CancelDuration     time.Duration `json:"cancel-duration" mapstructure:"cancel-duration"`
	ForwardDuration    time.Duration `json:"forward-duration" mapstructure:"forward-duration"`
	TurnDuration       time.Duration `json:"turn-duration" mapstructure:"turn-duration"`
}

// DefaultProfile returns the tuning of the reference car.
func DefaultProfile() Profile {
	return Profile{
		Speed:              750,
		MinDuty:            100,
		Steps:              20,
		StartDuration:      500 * time.Millisecond,
		StopDuration:       300 * time.Millisecond,
		StopActionDuration: 300 * time.Millisecond,
		CancelDuration:     200 * time.Millisecond,
		ForwardDuration:    800 * time.Millisecond,
		TurnDuration:       50 * time.Millisecond,
	}
}

// Validate checks the ranges of p.
func (p Profile) Validate() error {
	var errs []error
	if p.Speed <= 0 || p.Speed > MaxDuty {
		errs = append(errs, fmt.Errorf("speed must be in (0, %d], got %d", MaxDuty, p.Speed))
	}
	if p.MinDuty < 0 || p.MinDuty > p.Speed {
		errs = append(errs, fmt.Errorf("min-duty must be in [0, speed], got %d", p.MinDuty))
	}
	if p.Steps <= 0 {
		errs = append(errs, fmt.Errorf("ramp-steps must be positive, got %d", p.Steps))
	}
	for name, d := range map[string]time.Duration{
		"start-duration":       p.StartDuration,
		"stop-duration":        p.StopDuration,
		"stop-action-duration": p.StopActionDuration,
		"cancel-duration":      p.CancelDuration,
		"forward-duration":     p.ForwardDuration,
		"turn-duration":        p.TurnDuration,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	return utilerrors.NewAggregate(errs)
}

// HoldFor returns how long a motion action cruises.
func (p Profile) HoldFor(a Action) time.Duration {
	if a.IsTurn() {
		return p.TurnDuration
	}
	return p.ForwardDuration
}

// ExecutionState is a snapshot of what the engine is doing.
// Action is empty while Idle.
type ExecutionState struct {
	Action Action `json:"action,omitempty"`
	Phase  Phase  `json:"phase"`
}

// Idle reports whether no action is running.
func (s ExecutionState) Idle() bool {
	return s.Phase == PhaseIdle
}

// StateObserver is called on every phase change. It runs on the execution
// goroutine and must not block.
type StateObserver func(ExecutionState)

// Engine runs one action at a time against a Pair. It is not safe to call
// Execute concurrently; the Arbiter serializes executions.
type Engine struct {
	pair    *Pair
	ramp    *Ramp
	sleeper sleeper.Sleeper
	machine *phaseMachine

	mu        sync.RWMutex
	profile   Profile
	state     ExecutionState
	observers []StateObserver
}

func NewEngine(pair *Pair, s sleeper.Sleeper, profile Profile) *Engine {
	e := &Engine{
		pair:    pair,
		ramp:    NewRamp(s),
		sleeper: s,
		profile: profile,
		state:   ExecutionState{Phase: PhaseIdle},
	}
	e.machine = newPhaseMachine(e.onEnterPhase)
	metrics.SetPhase(string(PhaseIdle), Phases())
	return e
}

// OnStateChange registers fn to observe phase changes.
func (e *Engine) OnStateChange(fn StateObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// SetProfile replaces the profile. Running executions keep the old one.
func (e *Engine) SetProfile(p Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = p
}

func (e *Engine) Profile() Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// State returns the current execution snapshot.
func (e *Engine) State() ExecutionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Pair exposes the motors for read-only inspection.
func (e *Engine) Pair() *Pair {
	return e.pair
}

// HardStop de-energizes both motors immediately.
func (e *Engine) HardStop() {
	e.pair.Stop()
}

// Execute runs action to completion or until ctx is cancelled. Cancellation
// is not an error: the in-flight duty is ramped down and Execute returns nil.
// An unknown action hard-stops the motors and returns ErrUnknownAction.
func (e *Engine) Execute(ctx context.Context, action Action) error {
	p := e.Profile()
	logger := log.WithValues("action", action)

	if action == ActionStop {
		return e.stop(ctx, p, action)
	}

	left, right, ok := action.Directions()
	if !ok {
		logger.Warn("Unknown action reached the engine, stopping motors")
		e.HardStop()
		if !e.inPhase(PhaseIdle) {
			e.fire(ctx, EventFinish, action)
		}
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	logger.Info("Executing action", "speed", p.Speed, "hold", p.HoldFor(action))

	e.pair.SetDirections(left, right)
	e.fire(ctx, EventStart, action)
	if err := e.rampPhase(ctx, PhaseStarting, RampPlan{Start: p.MinDuty, End: p.Speed, Duration: p.StartDuration, Steps: p.Steps}); err != nil {
		return e.compensate(ctx, p, action)
	}

	e.fire(ctx, EventHold, action)
	if err := e.sleeper.Sleep(ctx, p.HoldFor(action)); err != nil {
		return e.compensate(ctx, p, action)
	}

	e.fire(ctx, EventStop, action)
	if err := e.rampPhase(ctx, PhaseStopping, RampPlan{Start: p.Speed, End: 0, Duration: p.StopDuration, Steps: p.Steps}); err != nil {
		return e.compensate(ctx, p, action)
	}

	e.HardStop()
	e.fire(ctx, EventFinish, action)
	logger.Debug("Action complete")
	return nil
}

func (e *Engine) stop(ctx context.Context, p Profile, action Action) error {
	duty := e.pair.Duty()
	if duty == 0 && e.State().Idle() {
		e.HardStop()
		log.Debug("Stop while idle, nothing to do")
		return nil
	}

	log.Info("Stopping", "from", duty)
	e.fire(ctx, EventStop, action)
	if err := e.rampPhase(ctx, PhaseStopping, RampPlan{Start: duty, End: 0, Duration: p.StopActionDuration, Steps: p.Steps}); err != nil {
		return e.compensate(ctx, p, action)
	}

	e.HardStop()
	e.fire(ctx, EventFinish, action)
	return nil
}

// compensate ramps the in-flight duty to zero after a cancellation. The ramp
// itself cannot be cancelled, then the motors are hard-stopped.
func (e *Engine) compensate(ctx context.Context, p Profile, action Action) error {
	metrics.CancellationsTotal.Inc()

	from := e.pair.Duty()
	log.Info("Execution cancelled, ramping down", "action", action, "from", from, "phase", e.State().Phase)

	if !e.inPhase(PhaseStopping) {
		e.fire(ctx, EventStop, action)
	}

	bg := context.WithoutCancel(ctx)
	if err := e.rampPhase(bg, PhaseStopping, RampPlan{Start: from, End: 0, Duration: p.CancelDuration, Steps: p.Steps}); err != nil {
		log.Error(err, "Compensating ramp interrupted")
	}

	e.HardStop()
	e.fire(ctx, EventFinish, action)
	return nil
}

func (e *Engine) rampPhase(ctx context.Context, phase Phase, plan RampPlan) error {
	start := time.Now()
	_, err := e.ramp.Run(ctx, e.pair, plan)
	metrics.RampDuration.WithLabelValues(string(phase)).Observe(time.Since(start).Seconds())
	return err
}

func (e *Engine) inPhase(p Phase) bool {
	return e.State().Phase == p
}

// fire triggers a transition. Transitions must land even when the execution
// was cancelled, so the machine never sees a cancellable context.
func (e *Engine) fire(ctx context.Context, event string, action Action) {
	if err := e.machine.Event(context.WithoutCancel(ctx), event, action); fsmutil.IsRealError(err) {
		log.Error(err, "Invalid phase transition", "event", event, "phase", e.machine.Current())
	}
}

func (e *Engine) onEnterPhase(_ context.Context, phase Phase, action Action) error {
	st := ExecutionState{Phase: phase}
	if phase != PhaseIdle {
		st.Action = action
	}

	e.mu.Lock()
	e.state = st
	observers := e.observers
	e.mu.Unlock()

	metrics.SetPhase(string(phase), Phases())
	for _, fn := range observers {
		fn(st)
	}
	return nil
}
