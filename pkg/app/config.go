package app

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cloupeer.io/bcicar/pkg/log"
)

const configFlagName = "config"

func addConfigFlag(basename string, fs *pflag.FlagSet) *string {
	return fs.StringP(configFlagName, "c", "", fmt.Sprintf("Read configuration from the given YAML file. Flags override values from the file. Environment variables use the %s_ prefix.", envPrefix(basename)))
}

func envPrefix(basename string) string {
	name := strings.ToUpper(strings.SplitN(basename, "-", 2)[0])
	return strings.ReplaceAll(name, "-", "_")
}

// loadConfig binds env, the optional config file and the parsed flags into v,
// then decodes the result into opts.
func loadConfig(v *viper.Viper, basename, cfgFile string, fs *pflag.FlagSet, opts any) error {
	v.SetEnvPrefix(envPrefix(basename))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// watchConfig re-decodes opts whenever the config file changes and calls
// onChange with the refreshed options.
func watchConfig(v *viper.Viper, opts any, onChange func()) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := v.Unmarshal(opts); err != nil {
			log.Error(err, "Failed to reload configuration", "file", e.Name)
			return
		}
		log.Info("Configuration reloaded", "file", e.Name)
		onChange()
	})
	v.WatchConfig()
}
