package drive

import (
	"context"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"cloupeer.io/bcicar/internal/caragent/core"
)

// write is one hardware call seen by a recordingPort.
type write struct {
	side core.Side
	kind string // "dir" or "duty"
	dir  Direction
	duty int
}

// recorder collects writes from both sides in order.
type recorder struct {
	mu     sync.Mutex
	writes []write
}

func (r *recorder) add(w write) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, w)
}

func (r *recorder) snapshot() []write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]write(nil), r.writes...)
}

// duties returns the duty writes of side in order.
func (r *recorder) duties(side core.Side) []int {
	var out []int
	for _, w := range r.snapshot() {
		if w.side == side && w.kind == "duty" {
			out = append(out, w.duty)
		}
	}
	return out
}

type recordingPort struct {
	side core.Side
	rec  *recorder
}

func (p *recordingPort) SetInputs(in1, in2 gpio.Level) error {
	d := DirectionOff
	switch {
	case in1 == gpio.High && in2 == gpio.Low:
		d = DirectionForward
	case in1 == gpio.Low && in2 == gpio.High:
		d = DirectionReverse
	}
	p.rec.add(write{side: p.side, kind: "dir", dir: d})
	return nil
}

func (p *recordingPort) SetDuty(duty int) error {
	p.rec.add(write{side: p.side, kind: "duty", duty: duty})
	return nil
}

func newTestPair() (*Pair, *recorder) {
	rec := &recorder{}
	return NewPair(
		NewChannel(core.SideLeft, &recordingPort{side: core.SideLeft, rec: rec}),
		NewChannel(core.SideRight, &recordingPort{side: core.SideRight, rec: rec}),
	), rec
}

// fakeSleeper never waits. It counts calls and honours cancellation.
// When blockAt is set, the blockAt-th call signals reached and then blocks
// until its context is done.
type fakeSleeper struct {
	mu      sync.Mutex
	calls   int
	slept   []time.Duration
	blockAt int
	reached chan struct{}
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls++
	s.slept = append(s.slept, d)
	block := s.blockAt > 0 && s.calls == s.blockAt
	s.mu.Unlock()

	if block {
		close(s.reached)
		<-ctx.Done()
	}
	return ctx.Err()
}

func (s *fakeSleeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSignaler struct {
	mu     sync.Mutex
	events []core.Event
}

func (f *fakeSignaler) Signal(_ context.Context, ev core.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSignaler) Off() {}

func isNonIncreasing(v []int) bool {
	for i := 1; i < len(v); i++ {
		if v[i] > v[i-1] {
			return false
		}
	}
	return true
}

func isNonDecreasing(v []int) bool {
	for i := 1; i < len(v); i++ {
		if v[i] < v[i-1] {
			return false
		}
	}
	return true
}
