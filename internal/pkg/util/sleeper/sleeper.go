// Package sleeper provides the timed, cancellable waits used by ramps,
// hold phases and indicator blinks.
package sleeper

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// Sleeper suspends the caller for d or until ctx is done, whichever comes
// first. It returns ctx.Err() when interrupted.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type clockSleeper struct {
	clock clock.Clock
}

// New returns a Sleeper driven by c.
func New(c clock.Clock) Sleeper {
	return &clockSleeper{clock: c}
}

// Real returns a Sleeper on the wall clock.
func Real() Sleeper {
	return New(clock.RealClock{})
}

func (s *clockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	t := s.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
