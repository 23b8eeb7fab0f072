package app

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"cloupeer.io/bcicar/cmd/bcicarctl/app/options"
	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/pkg/app"
)

const commandName = "bcicarctl"

func NewApp() *app.App {
	opts := options.NewCtlOptions()

	return app.NewApp(
		commandName,
		"Drive and inspect a bcicar",
		app.WithDescription("bcicarctl sends motion commands to a car, directly or through the relay, and shows what the car is doing."),
		app.WithOptions(opts),
		app.WithSubcommands(newSendCommand(opts), newStatusCommand(opts)),
	)
}

func newSendCommand(opts *options.CtlOptions) *cobra.Command {
	names := make([]string, 0, len(drive.Actions()))
	for _, a := range drive.Actions() {
		names = append(names, string(a))
	}

	return &cobra.Command{
		Use:       "send <action>",
		Short:     "Send one motion command",
		Example:   "  bcicarctl send forward\n  bcicarctl --relay -s http://192.168.31.136:5000 send stop",
		ValidArgs: names,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := opts.Client().Send(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status)
			return nil
		},
	}
}

func newStatusCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the car's address and execution state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := opts.Client().Ping(cmd.Context())
			if err != nil {
				return err
			}

			action := "-"
			if p.CurrentAction != nil {
				action = *p.CurrentAction
			}

			table := uitable.New()
			table.AddRow("SERVER", "STATUS", "IP", "ACTION", "PHASE")
			table.AddRow(opts.Server, p.Status, p.IP, action, strings.ToUpper(p.Phase))
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
