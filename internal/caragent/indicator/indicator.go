// Package indicator shows connectivity and command arrival on a single RGB pixel.
package indicator

import (
	"context"
	"sync"
	"time"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/pkg/util/sleeper"
	"cloupeer.io/bcicar/pkg/log"
)

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

var (
	Off    = Color{}
	Red    = Color{R: 255}
	Green  = Color{G: 255}
	Yellow = Color{R: 255, G: 255}
)

// Pattern is a blink sequence. Times <= 0 repeats until cancelled.
type Pattern struct {
	Color  Color
	Times  int
	OnFor  time.Duration
	OffFor time.Duration
}

// Palette assigns a pattern to each event.
type Palette struct {
	Disconnected    Pattern
	Connected       Pattern
	CommandReceived Pattern
}

// DefaultPalette is red slow blink while offline, four green blinks on
// connect and one yellow blink per command.
func DefaultPalette() Palette {
	return Palette{
		Disconnected:    Pattern{Color: Red, Times: 0, OnFor: 100 * time.Millisecond, OffFor: 100 * time.Millisecond},
		Connected:       Pattern{Color: Green, Times: 4, OnFor: 100 * time.Millisecond, OffFor: 100 * time.Millisecond},
		CommandReceived: Pattern{Color: Yellow, Times: 1, OnFor: 150 * time.Millisecond},
	}
}

// Indicator implements core.Signaler.
type Indicator struct {
	pixel   core.PixelPort
	sleeper sleeper.Sleeper
	palette Palette

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ core.Signaler = (*Indicator)(nil)

func New(pixel core.PixelPort, s sleeper.Sleeper, palette Palette) *Indicator {
	return &Indicator{pixel: pixel, sleeper: s, palette: palette}
}

// Signal shows ev. Any background loop is stopped first. Disconnected starts a
// background loop and returns at once; the other events blink inline.
func (i *Indicator) Signal(ctx context.Context, ev core.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.stopLoopLocked()

	switch ev {
	case core.EventDisconnected:
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		i.cancel, i.done = cancel, done
		go func() {
			defer close(done)
			i.blink(loopCtx, i.palette.Disconnected)
		}()
	case core.EventConnected:
		i.blink(ctx, i.palette.Connected)
		i.set(Off)
	case core.EventCommandReceived:
		i.blink(ctx, i.palette.CommandReceived)
	default:
		log.Warn("Unknown indicator event", "event", ev)
	}
}

// Off stops any loop and extinguishes the pixel.
func (i *Indicator) Off() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stopLoopLocked()
	i.set(Off)
}

func (i *Indicator) stopLoopLocked() {
	if i.cancel == nil {
		return
	}
	i.cancel()
	<-i.done
	i.cancel, i.done = nil, nil
	i.set(Off)
}

func (i *Indicator) blink(ctx context.Context, p Pattern) {
	for n := 0; p.Times <= 0 || n < p.Times; n++ {
		i.set(p.Color)
		if err := i.sleeper.Sleep(ctx, p.OnFor); err != nil {
			i.set(Off)
			return
		}
		i.set(Off)
		if err := i.sleeper.Sleep(ctx, p.OffFor); err != nil {
			return
		}
	}
}

func (i *Indicator) set(c Color) {
	if err := i.pixel.SetRGB(c.R, c.G, c.B); err != nil {
		log.Error(err, "Failed to write status pixel")
	}
}
