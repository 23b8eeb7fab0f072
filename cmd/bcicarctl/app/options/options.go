package options

import (
	"fmt"
	"net/url"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/bcicar/pkg/app"
	"cloupeer.io/bcicar/pkg/client"
)

type CtlOptions struct {
	// Server is the car's or the relay's base URL.
	Server  string        `json:"server" mapstructure:"server"`
	Relay   bool          `json:"relay" mapstructure:"relay"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

var _ app.NamedFlagSetOptions = (*CtlOptions)(nil)

func NewCtlOptions() *CtlOptions {
	return &CtlOptions{
		Server:  "http://192.168.31.220",
		Timeout: 3 * time.Second,
	}
}

func (o *CtlOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("client")
	fs.StringVarP(&o.Server, "server", "s", o.Server, "Base URL of the car, or of the relay with --relay.")
	fs.BoolVar(&o.Relay, "relay", o.Relay, "Server is a bcicar-relay; send commands to /control.")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Request timeout.")
	return fss
}

func (o *CtlOptions) Complete() error {
	return nil
}

func (o *CtlOptions) Validate() error {
	var errs []error
	if u, err := url.Parse(o.Server); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("--server must be an absolute URL, got %q", o.Server))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--timeout must be positive"))
	}
	return utilerrors.NewAggregate(errs)
}

func (o *CtlOptions) Client() *client.Client {
	return client.New(o.Server, o.Relay, o.Timeout)
}
