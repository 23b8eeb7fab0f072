package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"

	"cloupeer.io/bcicar/internal/caragent/notify"
)

// DeviceOptions identifies the car and where it announces itself.
type DeviceOptions struct {
	// ID overrides the env/file lookup of the device identity.
	ID string `json:"id" mapstructure:"id"`

	// RelayURL is the base URL of the relay, e.g. http://192.168.31.136:5000.
	// Empty skips the ready notification.
	RelayURL string `json:"relay-url" mapstructure:"relay-url"`

	NotifyTimeout time.Duration `json:"notify-timeout" mapstructure:"notify-timeout"`
}

func NewDeviceOptions() *DeviceOptions {
	return &DeviceOptions{
		NotifyTimeout: notify.DefaultTimeout,
	}
}

func (o *DeviceOptions) Validate() []error {
	var errs []error
	if o.RelayURL != "" {
		if u, err := url.Parse(o.RelayURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("--device.relay-url must be an absolute URL, got %q", o.RelayURL))
		}
	}
	if o.NotifyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--device.notify-timeout must be positive"))
	}
	return errs
}

func (o *DeviceOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ID, "device.id", o.ID, "Device identity. Defaults to $BCICAR_DEVICE_ID, then /etc/bcicar/device-id, then esp32_car.")
	fs.StringVar(&o.RelayURL, "device.relay-url", o.RelayURL, "Relay base URL that receives the ready notification (e.g. http://192.168.31.136:5000).")
	fs.DurationVar(&o.NotifyTimeout, "device.notify-timeout", o.NotifyTimeout, "Timeout of the single ready notification attempt.")
}
