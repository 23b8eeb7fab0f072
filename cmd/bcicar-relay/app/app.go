package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"cloupeer.io/bcicar/cmd/bcicar-relay/app/options"
	"cloupeer.io/bcicar/pkg/app"
	"cloupeer.io/bcicar/pkg/log"
)

const (
	commandName = "bcicar-relay"
	commandDesc = `The bcicar relay sits between the browser or BCI classifier and the car.
It validates motion commands, maps BCI directions (1-4) onto actions,
forwards them to the car's /cmd and logs the car's ready notifications.`
)

func NewApp() *app.App {
	opts := options.NewRelayOptions()

	return app.NewApp(
		commandName,
		"Launch the bcicar command relay",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.RelayOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := genericapiserver.SetupSignalContext()

		r, err := opts.Config().NewRelay()
		if err != nil {
			return fmt.Errorf("failed to create relay: %w", err)
		}
		return r.Start(ctx)
	}
}
