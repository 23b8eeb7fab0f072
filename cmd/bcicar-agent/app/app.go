package app

import (
	"fmt"
	"sync/atomic"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"cloupeer.io/bcicar/cmd/bcicar-agent/app/options"
	"cloupeer.io/bcicar/internal/caragent"
	"cloupeer.io/bcicar/pkg/app"
	"cloupeer.io/bcicar/pkg/log"
)

const (
	commandName = "bcicar-agent"
	commandDesc = `The bcicar agent runs on the car. It drives the two motors with soft
start and stop ramps, accepts one motion command at a time over HTTP (and
optionally MQTT), and shows connectivity and command arrival on the status
pixel.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()

	var running atomic.Pointer[caragent.Agent]
	reload := func() {
		if a := running.Load(); a != nil {
			a.SetProfile(opts.Drive.Profile())
		}
	}

	return app.NewApp(
		commandName,
		"Launch the bcicar motor agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithConfigReload(reload),
		app.WithRunFunc(run(opts, &running)),
	)
}

func run(opts *options.AgentOptions, running *atomic.Pointer[caragent.Agent]) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}
		running.Store(agent)

		return agent.Run(ctx)
	}
}
