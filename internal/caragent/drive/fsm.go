package drive

import (
	"context"

	"github.com/looplab/fsm"

	fsmutil "cloupeer.io/bcicar/internal/pkg/util/fsm"
)

// Phase is the stage of the current execution.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseStarting Phase = "starting"
	PhaseHolding  Phase = "holding"
	PhaseStopping Phase = "stopping"
)

// Phases lists every phase.
func Phases() []string {
	return []string{string(PhaseIdle), string(PhaseStarting), string(PhaseHolding), string(PhaseStopping)}
}

const (
	// EventStart arms a motion action and begins its start ramp.
	EventStart = "event_start"
	// EventHold enters the sustained-speed part of a motion action.
	EventHold = "event_hold"
	// EventStop begins a ramp to zero: the normal stop ramp, a stop action or a cancellation.
	EventStop = "event_stop"
	// EventFinish returns to Idle after the motors were hard-stopped.
	EventFinish = "event_finish"
)

type phaseMachine struct {
	*fsm.FSM
}

// newPhaseMachine builds idle -> starting -> holding -> stopping -> idle.
// Stopping is reachable from every phase so cancellation can land anywhere.
// onEnter is called with the destination phase and the event's action.
func newPhaseMachine(onEnter func(ctx context.Context, phase Phase, action Action) error) *phaseMachine {
	m := &phaseMachine{}

	events := fsm.Events{
		{Name: EventStart, Src: []string{string(PhaseIdle)}, Dst: string(PhaseStarting)},
		{Name: EventHold, Src: []string{string(PhaseStarting)}, Dst: string(PhaseHolding)},
		{Name: EventStop, Src: []string{string(PhaseIdle), string(PhaseStarting), string(PhaseHolding)}, Dst: string(PhaseStopping)},
		{Name: EventFinish, Src: []string{string(PhaseStarting), string(PhaseHolding), string(PhaseStopping)}, Dst: string(PhaseIdle)},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(func(ctx context.Context, e *fsm.Event) error {
			var action Action
			if len(e.Args) > 0 {
				action, _ = e.Args[0].(Action)
			}
			return onEnter(ctx, Phase(e.Dst), action)
		}),
	}

	m.FSM = fsm.NewFSM(string(PhaseIdle), events, callbacks)
	return m
}
