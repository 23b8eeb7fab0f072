package drive

import (
	"context"
	"time"

	"cloupeer.io/bcicar/internal/pkg/util/sleeper"
)

// RampPlan describes a linear duty transition.
type RampPlan struct {
	Start    int
	End      int
	Duration time.Duration
	Steps    int
}

func (p RampPlan) steps() int {
	return max(1, p.Steps)
}

// Duty returns sample i of the plan, truncated toward zero and clamped.
func (p RampPlan) Duty(i int) int {
	n := p.steps()
	v := float64(p.Start) + float64(p.End-p.Start)*float64(i)/float64(n)
	return ClampDuty(int(v))
}

// StepDelay is the suspension after each write.
func (p RampPlan) StepDelay() time.Duration {
	return p.Duration / time.Duration(p.steps())
}

// Ramp writes duty plans to a pair.
type Ramp struct {
	sleeper sleeper.Sleeper
}

func NewRamp(s sleeper.Sleeper) *Ramp {
	return &Ramp{sleeper: s}
}

// Run walks pair through plan. A plan whose start equals its end is a single
// write with no suspension. Otherwise Steps+1 samples are written, each
// followed by a Duration/Steps suspension.
//
// ctx is checked before every write. On cancellation Run stops writing at once
// and returns the duty in effect together with ctx.Err().
func (r *Ramp) Run(ctx context.Context, pair *Pair, plan RampPlan) (int, error) {
	if plan.Start == plan.End {
		if err := ctx.Err(); err != nil {
			return pair.Duty(), err
		}
		pair.SetDuty(plan.End)
		return pair.Duty(), nil
	}

	delay := plan.StepDelay()
	for i := 0; i <= plan.steps(); i++ {
		if err := ctx.Err(); err != nil {
			return pair.Duty(), err
		}
		pair.SetDuty(plan.Duty(i))

		if err := r.sleeper.Sleep(ctx, delay); err != nil {
			return pair.Duty(), err
		}
	}

	return pair.Duty(), nil
}
