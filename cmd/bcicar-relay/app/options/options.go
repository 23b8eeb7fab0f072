package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/bcicar/internal/relay"
	"cloupeer.io/bcicar/pkg/app"
	"cloupeer.io/bcicar/pkg/log"
	"cloupeer.io/bcicar/pkg/options"
)

type RelayOptions struct {
	Device *DeviceOptions       `json:"device" mapstructure:"device"`
	Http   *options.HttpOptions `json:"http" mapstructure:"http"`
	Log    *log.Options         `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*RelayOptions)(nil)

func NewRelayOptions() *RelayOptions {
	return &RelayOptions{
		Device: NewDeviceOptions(),
		Http:   options.NewHttpOptions(":5000"),
		Log:    log.NewOptions(),
	}
}

func (o *RelayOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Device.AddFlags(fss.FlagSet("device"))
	o.Http.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *RelayOptions) Complete() error {
	return nil
}

func (o *RelayOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Device.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *RelayOptions) Config() *relay.Config {
	return &relay.Config{
		HttpOptions:      o.Http,
		DeviceURL:        o.Device.URL,
		ControlTimeout:   o.Device.ControlTimeout,
		DirectionTimeout: o.Device.DirectionTimeout,
		FollowNotify:     o.Device.FollowNotify,
	}
}

// DeviceOptions points the relay at a car.
type DeviceOptions struct {
	URL              string        `json:"url" mapstructure:"url"`
	ControlTimeout   time.Duration `json:"control-timeout" mapstructure:"control-timeout"`
	DirectionTimeout time.Duration `json:"direction-timeout" mapstructure:"direction-timeout"`
	FollowNotify     bool          `json:"follow-notify" mapstructure:"follow-notify"`
}

func NewDeviceOptions() *DeviceOptions {
	return &DeviceOptions{
		URL:              "http://192.168.31.220",
		ControlTimeout:   relay.DefaultControlTimeout,
		DirectionTimeout: relay.DefaultDirectionTimeout,
	}
}

func (o *DeviceOptions) Validate() []error {
	var errs []error
	if u, err := url.Parse(o.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("--device.url must be an absolute URL, got %q", o.URL))
	}
	if o.ControlTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--device.control-timeout must be positive"))
	}
	if o.DirectionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--device.direction-timeout must be positive"))
	}
	return errs
}

func (o *DeviceOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.URL, "device.url", o.URL, "Base URL of the car's command surface.")
	fs.DurationVar(&o.ControlTimeout, "device.control-timeout", o.ControlTimeout, "Timeout for commands forwarded from /control.")
	fs.DurationVar(&o.DirectionTimeout, "device.direction-timeout", o.DirectionTimeout, "Timeout for commands forwarded from /bci_direction.")
	fs.BoolVar(&o.FollowNotify, "device.follow-notify", o.FollowNotify, "Forward to the address announced in the car's ready notification.")
}
