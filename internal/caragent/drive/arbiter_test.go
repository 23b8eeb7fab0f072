package drive

import (
	"context"
	"errors"
	"testing"

	"cloupeer.io/bcicar/internal/caragent/core"
)

// wait blocks until the execution started by the last Dispatch has finished.
func (a *Arbiter) wait() {
	a.mu.Lock()
	x := a.current
	a.mu.Unlock()
	if x != nil {
		<-x.done
	}
}

func TestArbiterSupersedeRampsDownFromInFlightDuty(t *testing.T) {
	// Block forward at its 8th start sample so it is cancelled mid-ramp.
	s := &fakeSleeper{blockAt: 8, reached: make(chan struct{})}
	pair, rec := newTestPair()
	sig := &fakeSignaler{}
	a := NewArbiter(NewEngine(pair, s, DefaultProfile()), sig)

	if err := a.Dispatch(context.Background(), ActionForward); err != nil {
		t.Fatalf("Dispatch(forward) = %v", err)
	}
	<-s.reached
	inFlight := pair.Duty()

	if err := a.Dispatch(context.Background(), ActionLeft); err != nil {
		t.Fatalf("Dispatch(left) = %v", err)
	}
	if act, ok := a.Active(); ok && act != ActionLeft {
		t.Fatalf("active = %q, want left", act)
	}
	a.wait()

	if inFlight >= DefaultProfile().Speed {
		t.Fatalf("forward was not cancelled mid-ramp (duty %d)", inFlight)
	}

	writes := rec.snapshot()

	// Split the log at the hard stop that ends forward.
	var forward, left []write
	stopped := false
	for i, w := range writes {
		if !stopped && w.kind == "dir" && w.dir == DirectionOff && i > 2 {
			stopped = true
		}
		if !stopped {
			forward = append(forward, w)
		} else {
			left = append(left, w)
		}
	}

	var fwdDuties []int
	for _, w := range forward {
		if w.side == core.SideLeft && w.kind == "duty" {
			fwdDuties = append(fwdDuties, w.duty)
		}
	}
	// 8 start samples then the compensating ramp, which must begin at the
	// in-flight duty rather than the cruise speed.
	comp := fwdDuties[8:]
	if len(comp) != 21 || comp[0] != inFlight || comp[len(comp)-1] != 0 || !isNonIncreasing(comp) {
		t.Errorf("compensating ramp = %v, want %d down to 0", comp, inFlight)
	}

	// The left action must start from its own start duty on released motors.
	var dirs [2]Direction
	sawLeftArm := false
	for _, w := range left {
		if w.kind == "dir" {
			if w.side == core.SideLeft {
				dirs[0] = w.dir
			} else {
				dirs[1] = w.dir
			}
			if dirs == ([2]Direction{DirectionReverse, DirectionForward}) {
				sawLeftArm = true
			}
			if dirs[0] == DirectionForward && dirs[1] == DirectionForward {
				t.Fatal("forward directions still set after left was armed")
			}
		}
		if w.kind == "duty" && w.duty != 0 && !sawLeftArm {
			t.Fatalf("duty %d written before left was armed", w.duty)
		}
	}
	if !sawLeftArm {
		t.Fatal("left action never armed the motors")
	}
	leftDuties := rec.duties(core.SideLeft)
	if first := leftDuties[len(fwdDuties)+1]; first != DefaultProfile().MinDuty {
		t.Errorf("left start ramp began at %d, want %d", first, DefaultProfile().MinDuty)
	}

	if !a.State().Idle() || pair.Duty() != 0 {
		t.Errorf("final state %+v duty %d, want idle at 0", a.State(), pair.Duty())
	}
	if len(sig.events) != 2 || sig.events[0] != core.EventCommandReceived {
		t.Errorf("indicator events = %v, want two command.received", sig.events)
	}
}

func TestArbiterExactlyOneExecution(t *testing.T) {
	s := &fakeSleeper{blockAt: 3, reached: make(chan struct{})}
	pair, _ := newTestPair()
	a := NewArbiter(NewEngine(pair, s, DefaultProfile()), nil)

	_ = a.Dispatch(context.Background(), ActionBackward)
	<-s.reached
	first := a.current

	_ = a.Dispatch(context.Background(), ActionRight)
	if first.running() {
		t.Fatal("superseded execution still running after Dispatch returned")
	}
	if a.current == first {
		t.Fatal("arbiter still holds the superseded handle")
	}
	a.wait()
	if _, ok := a.Active(); ok {
		t.Error("execution still active after it finished")
	}
}

func TestArbiterClose(t *testing.T) {
	s := &fakeSleeper{blockAt: 2, reached: make(chan struct{})}
	pair, _ := newTestPair()
	sig := &fakeSignaler{}
	a := NewArbiter(NewEngine(pair, s, DefaultProfile()), sig)

	_ = a.Dispatch(context.Background(), ActionForward)
	<-s.reached
	a.Close()

	if pair.Duty() != 0 || !a.State().Idle() {
		t.Errorf("Close left duty %d, state %+v", pair.Duty(), a.State())
	}
	if err := a.Dispatch(context.Background(), ActionForward); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch after Close = %v, want ErrClosed", err)
	}
	if len(sig.events) != 2 {
		t.Errorf("command received must be signalled even when refused, got %v", sig.events)
	}
	a.Close()
}

func TestArbiterStopWhileIdle(t *testing.T) {
	s := &fakeSleeper{}
	pair, _ := newTestPair()
	a := NewArbiter(NewEngine(pair, s, DefaultProfile()), nil)

	if err := a.Dispatch(context.Background(), ActionStop); err != nil {
		t.Fatalf("Dispatch(stop) = %v", err)
	}
	a.wait()
	if !a.State().Idle() || pair.Duty() != 0 || s.count() != 0 {
		t.Errorf("stop while idle was not a no-op: state %+v duty %d sleeps %d", a.State(), pair.Duty(), s.count())
	}
}
