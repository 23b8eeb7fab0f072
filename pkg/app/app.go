package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"

	"cloupeer.io/bcicar/pkg/log"
)

// RunFunc is the body of a command, called once options are loaded and valid.
type RunFunc func() error

// App wires a cobra command to a NamedFlagSetOptions set, a config file and
// the environment.
type App struct {
	basename    string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	noConfig    bool
	onReload    func()
	subcommands []*cobra.Command

	viper *viper.Viper
	cmd   *cobra.Command
}

type Option func(*App)

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithNoConfig drops the --config flag.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithConfigReload calls fn after the config file changed and the options
// were decoded again.
func WithConfigReload(fn func()) Option {
	return func(a *App) { a.onReload = fn }
}

// WithSubcommands adds child commands. They share the parent's persistent flags.
func WithSubcommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.subcommands = append(a.subcommands, cmds...) }
}

func NewApp(basename, shortDesc string, opts ...Option) *App {
	a := &App{
		basename:  basename,
		shortDesc: shortDesc,
		viper:     viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}
	var cfgFile *string
	if !a.noConfig {
		cfgFile = addConfigFlag(a.basename, namedFlagSets.FlagSet("global"))
	}
	globalflag.AddGlobalFlags(namedFlagSets.FlagSet("global"), cmd.Name())

	fs := cmd.PersistentFlags()
	if len(a.subcommands) == 0 {
		fs = cmd.Flags()
	}
	for _, f := range namedFlagSets.FlagSets {
		fs.AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, cols)

	load := func(c *cobra.Command) error {
		if a.options == nil {
			return nil
		}
		file := ""
		if cfgFile != nil {
			file = *cfgFile
		}
		if err := loadConfig(a.viper, a.basename, file, c.Flags(), a.options); err != nil {
			return err
		}
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
		if file != "" && a.onReload != nil {
			watchConfig(a.viper, a.options, a.onReload)
		}
		return nil
	}

	if a.runFunc != nil {
		cmd.RunE = func(c *cobra.Command, _ []string) error {
			if err := load(c); err != nil {
				return err
			}
			undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
				log.Debug(fmt.Sprintf(format, args...))
			}))
			if err != nil {
				log.Warn("Failed to set GOMAXPROCS", "error", err)
			}
			defer undo()
			return a.runFunc()
		}
	}

	for _, sub := range a.subcommands {
		run := sub.RunE
		sub.RunE = func(c *cobra.Command, args []string) error {
			if err := load(c); err != nil {
				return err
			}
			return run(c, args)
		}
		cmd.AddCommand(sub)
	}

	a.cmd = cmd
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v %v\n", "Error:", err)
		os.Exit(1)
	}
}
