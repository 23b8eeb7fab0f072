package drive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cloupeer.io/bcicar/internal/caragent/core"
)

func TestRampPlanDuty(t *testing.T) {
	tests := []struct {
		name string
		plan RampPlan
		want []int
	}{
		{
			name: "up",
			plan: RampPlan{Start: 0, End: 100, Steps: 4},
			want: []int{0, 25, 50, 75, 100},
		},
		{
			name: "down truncates toward zero",
			plan: RampPlan{Start: 750, End: 0, Steps: 20},
			want: []int{750, 712, 675, 637, 600, 562, 525, 487, 450, 412, 375, 337, 300, 262, 225, 187, 150, 112, 75, 37, 0},
		},
		{
			name: "clamped above max",
			plan: RampPlan{Start: 1000, End: 2000, Steps: 2},
			want: []int{1000, MaxDuty, MaxDuty},
		},
		{
			name: "clamped below zero",
			plan: RampPlan{Start: 10, End: -10, Steps: 2},
			want: []int{10, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for i := 0; i <= tt.plan.Steps; i++ {
				got = append(got, tt.plan.Duty(i))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("samples mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRampRunStartRamp(t *testing.T) {
	pair, rec := newTestPair()
	pair.SetDirections(DirectionForward, DirectionForward)
	s := &fakeSleeper{}

	plan := RampPlan{Start: 100, End: 750, Duration: 500 * time.Millisecond, Steps: 20}
	last, err := NewRamp(s).Run(context.Background(), pair, plan)
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if last != 750 {
		t.Errorf("last duty = %d, want 750", last)
	}

	duties := rec.duties(core.SideLeft)
	if len(duties) != 21 {
		t.Fatalf("got %d samples, want 21: %v", len(duties), duties)
	}
	if duties[0] != 100 || duties[20] != 750 {
		t.Errorf("endpoints = %d..%d, want 100..750", duties[0], duties[20])
	}
	if !isNonDecreasing(duties) {
		t.Errorf("samples not monotonic: %v", duties)
	}
	for i, d := range duties {
		if want := int(100 + 32.5*float64(i)); d != want {
			t.Errorf("sample %d = %d, want %d", i, d, want)
		}
	}
	if diff := cmp.Diff(duties, rec.duties(core.SideRight)); diff != "" {
		t.Errorf("right channel diverged (-left +right):\n%s", diff)
	}

	if s.count() != 21 {
		t.Errorf("suspensions = %d, want 21", s.count())
	}
	for _, d := range s.slept {
		if d != 25*time.Millisecond {
			t.Fatalf("step delay = %s, want 25ms", d)
		}
	}
}

func TestRampRunDegenerate(t *testing.T) {
	pair, rec := newTestPair()
	pair.SetDirections(DirectionForward, DirectionForward)
	s := &fakeSleeper{}

	last, err := NewRamp(s).Run(context.Background(), pair, RampPlan{Start: 500, End: 500, Duration: time.Second, Steps: 20})
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if last != 500 {
		t.Errorf("last duty = %d, want 500", last)
	}
	if got := rec.duties(core.SideLeft); len(got) != 1 {
		t.Errorf("writes = %v, want exactly one", got)
	}
	if s.count() != 0 {
		t.Errorf("suspensions = %d, want 0", s.count())
	}
}

func TestRampRunCancelled(t *testing.T) {
	pair, rec := newTestPair()
	pair.SetDirections(DirectionForward, DirectionForward)

	ctx, cancel := context.WithCancel(context.Background())
	s := &fakeSleeper{blockAt: 5, reached: make(chan struct{})}

	type result struct {
		last int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		last, err := NewRamp(s).Run(ctx, pair, RampPlan{Start: 100, End: 750, Duration: 500 * time.Millisecond, Steps: 20})
		done <- result{last, err}
	}()

	<-s.reached
	cancel()
	r := <-done

	if !errors.Is(r.err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", r.err)
	}
	if want := (RampPlan{Start: 100, End: 750, Steps: 20}).Duty(4); r.last != want {
		t.Errorf("last = %d, want in-flight duty %d", r.last, want)
	}
	if got := len(rec.duties(core.SideLeft)); got != 5 {
		t.Errorf("wrote %d samples, want 5", got)
	}
}

func TestPairDisarmedWritesZero(t *testing.T) {
	pair, _ := newTestPair()

	pair.SetDuty(600)
	if pair.Duty() != 0 {
		t.Fatalf("disarmed pair accepted duty %d", pair.Duty())
	}

	pair.SetDirections(DirectionReverse, DirectionForward)
	pair.SetDuty(2000)
	if pair.Duty() != MaxDuty {
		t.Errorf("duty = %d, want clamp to %d", pair.Duty(), MaxDuty)
	}

	pair.Stop()
	if pair.Left.Direction() != DirectionOff || pair.Right.Direction() != DirectionOff || pair.Duty() != 0 {
		t.Errorf("Stop left channels energized: %s/%s duty %d", pair.Left.Direction(), pair.Right.Direction(), pair.Duty())
	}
	pair.SetDuty(300)
	if pair.Duty() != 0 {
		t.Errorf("pair re-armed itself after Stop")
	}
}
