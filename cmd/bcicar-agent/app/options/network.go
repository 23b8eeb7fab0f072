package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"cloupeer.io/bcicar/internal/caragent"
)

// NetworkOptions controls the connectivity wait at boot.
type NetworkOptions struct {
	Interface      string        `json:"interface" mapstructure:"interface"`
	PollInterval   time.Duration `json:"poll-interval" mapstructure:"poll-interval"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
}

func NewNetworkOptions() *NetworkOptions {
	return &NetworkOptions{
		PollInterval: 100 * time.Millisecond,
	}
}

func (o *NetworkOptions) Validate() []error {
	var errs []error
	if o.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("--network.poll-interval must be positive"))
	}
	if o.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("--network.connect-timeout must not be negative"))
	}
	return errs
}

func (o *NetworkOptions) Config() caragent.NetworkConfig {
	return caragent.NetworkConfig{
		PollInterval:   o.PollInterval,
		ConnectTimeout: o.ConnectTimeout,
	}
}

func (o *NetworkOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Interface, "network.interface", o.Interface, "Only consider this interface when waiting for the network. Empty uses any.")
	fs.DurationVar(&o.PollInterval, "network.poll-interval", o.PollInterval, "How often to check for a network address at boot.")
	fs.DurationVar(&o.ConnectTimeout, "network.connect-timeout", o.ConnectTimeout, "Give up booting if no network appears in time. 0 waits forever.")
}
