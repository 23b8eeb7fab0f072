package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/bcicar/internal/caragent"
	"cloupeer.io/bcicar/pkg/app"
	"cloupeer.io/bcicar/pkg/log"
	"cloupeer.io/bcicar/pkg/options"
)

type AgentOptions struct {
	Device    *DeviceOptions       `json:"device" mapstructure:"device"`
	Drive     *DriveOptions        `json:"drive" mapstructure:"drive"`
	Indicator *IndicatorOptions    `json:"indicator" mapstructure:"indicator"`
	HAL       *HALOptions          `json:"hal" mapstructure:"hal"`
	Network   *NetworkOptions      `json:"network" mapstructure:"network"`
	Http      *options.HttpOptions `json:"http" mapstructure:"http"`
	Mqtt      *options.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	Log       *log.Options         `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	return &AgentOptions{
		Device:    NewDeviceOptions(),
		Drive:     NewDriveOptions(),
		Indicator: NewIndicatorOptions(),
		HAL:       NewHALOptions(),
		Network:   NewNetworkOptions(),
		Http:      options.NewHttpOptions(":80"),
		Mqtt:      options.NewMqttOptions(),
		Log:       log.NewOptions(),
	}
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Device.AddFlags(fss.FlagSet("device"))
	o.Drive.AddFlags(fss.FlagSet("drive"))
	o.Indicator.AddFlags(fss.FlagSet("indicator"))
	o.HAL.AddFlags(fss.FlagSet("hal"))
	o.Network.AddFlags(fss.FlagSet("network"))
	o.Http.AddFlags(fss.FlagSet("http"))
	o.Mqtt.AddFlags(fss.FlagSet("mqtt"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) Complete() error {
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Device.Validate()...)
	errs = append(errs, o.Drive.Validate()...)
	errs = append(errs, o.Indicator.Validate()...)
	errs = append(errs, o.HAL.Validate()...)
	errs = append(errs, o.Network.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*caragent.Config, error) {
	palette, err := o.Indicator.Palette()
	if err != nil {
		return nil, err
	}

	halCfg := o.HAL.Config()
	halCfg.Interface = o.Network.Interface

	return &caragent.Config{
		DeviceID:      o.Device.ID,
		HAL:           halCfg,
		Profile:       o.Drive.Profile(),
		Palette:       palette,
		Network:       o.Network.Config(),
		HttpOptions:   o.Http,
		MqttOptions:   o.Mqtt,
		RelayURL:      o.Device.RelayURL,
		NotifyTimeout: o.Device.NotifyTimeout,
	}, nil
}
