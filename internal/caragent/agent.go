package caragent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"
	"periph.io/x/conn/v3/gpio"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/caragent/hub"
	"cloupeer.io/bcicar/internal/caragent/indicator"
	"cloupeer.io/bcicar/internal/caragent/notify"
	"cloupeer.io/bcicar/internal/caragent/server"
	"cloupeer.io/bcicar/pkg/log"
)

// ErrNoNetwork is returned when the connectivity wait times out.
var ErrNoNetwork = errors.New("network did not come up")

const defaultPollInterval = 100 * time.Millisecond

type Agent struct {
	deviceID string

	hal       core.HAL
	engine    *drive.Engine
	arbiter   *drive.Arbiter
	indicator *indicator.Indicator
	network   NetworkConfig

	server   *server.Server
	hub      *hub.Hub
	notifier *notify.Notifier
}

// Run boots the car and serves commands until ctx is done:
//
//  1. motors released, driver enabled, red blink while offline
//  2. wait for a network address, then four green blinks
//  3. HTTP surface (and MQTT hub when configured) started, relay notified
//
// On return the arbiter is drained, the motors are stopped, the pixel is dark
// and the driver is disabled.
func (a *Agent) Run(ctx context.Context) error {
	log.Info("Starting bcicar agent", "deviceID", a.deviceID, "hal", a.hal.Name())
	defer a.shutdown()

	a.engine.HardStop()
	if err := a.hal.Standby(gpio.High); err != nil {
		return fmt.Errorf("failed to enable motor driver: %w", err)
	}

	if err := a.waitForNetwork(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	a.indicator.Signal(ctx, core.EventConnected)

	ip := a.hal.Address()
	log.Info("Network ready", "ip", ip)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Start(gctx) })
	if a.hub != nil {
		g.Go(func() error { return a.hub.Run(gctx) })
	}
	g.Go(func() error {
		a.notifyReady(gctx, ip)
		a.server.SetReady(true)
		return nil
	})

	err := g.Wait()
	log.Info("Agent shutting down...")
	return err
}

// SetProfile applies a new drive profile from the next command on.
func (a *Agent) SetProfile(p drive.Profile) {
	if err := p.Validate(); err != nil {
		log.Error(err, "Ignoring invalid drive profile")
		return
	}
	a.engine.SetProfile(p)
	log.Info("Drive profile updated", "speed", p.Speed, "minDuty", p.MinDuty, "steps", p.Steps)
}

// waitForNetwork blinks red and polls the HAL until it reports a network.
func (a *Agent) waitForNetwork(ctx context.Context) error {
	if a.hal.Connected() {
		return nil
	}

	log.Info("Waiting for network...")
	a.indicator.Signal(ctx, core.EventDisconnected)

	interval := a.network.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	pollCtx := ctx
	if a.network.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, a.network.ConnectTimeout)
		defer cancel()
	}

	err := wait.PollUntilContextCancel(pollCtx, interval, true, func(context.Context) (bool, error) {
		return a.hal.Connected(), nil
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("%w within %s", ErrNoNetwork, a.network.ConnectTimeout)
	}
	return err
}

func (a *Agent) notifyReady(ctx context.Context, ip string) {
	if !a.notifier.Enabled() {
		return
	}
	if err := a.notifier.Ready(ctx, ip); err != nil {
		log.Warn("Ready notification failed", "error", err)
	}
}

func (a *Agent) shutdown() {
	a.arbiter.Close()
	a.indicator.Off()
	if err := a.hal.Standby(gpio.Low); err != nil {
		log.Error(err, "Failed to disable motor driver")
	}
	if err := a.hal.Close(); err != nil {
		log.Error(err, "Failed to release hardware")
	}
}
