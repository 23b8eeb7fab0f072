package caragent

import (
	"context"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/caragent/hal"
	"cloupeer.io/bcicar/internal/caragent/indicator"
	"cloupeer.io/bcicar/pkg/options"
)

// fastSleeper keeps blinks and ramps from slowing the tests down.
type fastSleeper struct{}

func (fastSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}

type trackingHAL struct {
	*hal.MockHAL
	standby []gpio.Level
	closed  bool
}

func (h *trackingHAL) Standby(l gpio.Level) error {
	h.standby = append(h.standby, l)
	return h.MockHAL.Standby(l)
}

func (h *trackingHAL) Close() error {
	h.closed = true
	return nil
}

var _ core.HAL = (*trackingHAL)(nil)

func testConfig(delay, timeout time.Duration) (*Config, *trackingHAL) {
	halCfg := &hal.Config{Driver: hal.DriverMock, MockConnectDelay: delay}
	cfg := &Config{
		HAL:         halCfg,
		Profile:     drive.DefaultProfile(),
		Palette:     indicator.DefaultPalette(),
		Network:     NetworkConfig{PollInterval: 5 * time.Millisecond, ConnectTimeout: timeout},
		HttpOptions: options.NewHttpOptions("127.0.0.1:0"),
		MqttOptions: options.NewMqttOptions(),
	}
	return cfg, &trackingHAL{MockHAL: hal.NewMock(halCfg)}
}

func TestAgentBootAndShutdown(t *testing.T) {
	cfg, h := testConfig(30*time.Millisecond, 0)
	a, err := cfg.newAgent("car-test", h, fastSleeper{})
	if err != nil {
		t.Fatalf("newAgent = %v", err)
	}
	if a.hub != nil {
		t.Fatal("hub must be disabled without a broker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !a.server.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("agent never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := a.arbiter.Dispatch(ctx, drive.ActionForward); err != nil {
		t.Fatalf("Dispatch = %v", err)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if a.engine.Pair().Duty() != 0 || !a.engine.State().Idle() {
		t.Errorf("motors running after shutdown: duty %d state %+v", a.engine.Pair().Duty(), a.engine.State())
	}
	if len(h.standby) != 2 || h.standby[0] != gpio.High || h.standby[1] != gpio.Low {
		t.Errorf("standby sequence = %v, want [High Low]", h.standby)
	}
	if !h.closed {
		t.Error("hardware not released")
	}
	if err := a.arbiter.Dispatch(context.Background(), drive.ActionLeft); !errors.Is(err, drive.ErrClosed) {
		t.Errorf("Dispatch after shutdown = %v, want ErrClosed", err)
	}
}

func TestAgentConnectTimeout(t *testing.T) {
	cfg, h := testConfig(time.Hour, 30*time.Millisecond)
	a, err := cfg.newAgent("car-test", h, fastSleeper{})
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Run(context.Background()); !errors.Is(err, ErrNoNetwork) {
		t.Fatalf("Run = %v, want ErrNoNetwork", err)
	}
	if !h.closed {
		t.Error("hardware not released after failed boot")
	}
}

func TestAgentSetProfile(t *testing.T) {
	cfg, h := testConfig(0, 0)
	a, _ := cfg.newAgent("car-test", h, fastSleeper{})

	p := drive.DefaultProfile()
	p.Speed = 600
	a.SetProfile(p)
	if a.engine.Profile().Speed != 600 {
		t.Errorf("speed = %d, want 600", a.engine.Profile().Speed)
	}

	p.Speed = 5000
	a.SetProfile(p)
	if a.engine.Profile().Speed != 600 {
		t.Error("invalid profile was applied")
	}
}
