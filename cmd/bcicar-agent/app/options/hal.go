package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"

	"cloupeer.io/bcicar/internal/caragent/hal"
)

// HALOptions picks the hardware driver and its pin map. Pin names are those
// known to periph's gpioreg (e.g. "GPIO17" on a Raspberry Pi).
type HALOptions struct {
	Driver string `json:"driver" mapstructure:"driver"`

	LeftIN1  string `json:"left-in1" mapstructure:"left-in1"`
	LeftIN2  string `json:"left-in2" mapstructure:"left-in2"`
	LeftPWM  string `json:"left-pwm" mapstructure:"left-pwm"`
	RightIN1 string `json:"right-in1" mapstructure:"right-in1"`
	RightIN2 string `json:"right-in2" mapstructure:"right-in2"`
	RightPWM string `json:"right-pwm" mapstructure:"right-pwm"`
	Standby  string `json:"standby" mapstructure:"standby"`

	PWMFrequencyHz int    `json:"pwm-frequency" mapstructure:"pwm-frequency"`
	PixelSPI       string `json:"pixel-spi" mapstructure:"pixel-spi"`

	MockConnectDelay time.Duration `json:"mock-connect-delay" mapstructure:"mock-connect-delay"`
}

func NewHALOptions() *HALOptions {
	return &HALOptions{
		Driver:         hal.DriverMock,
		LeftIN1:        "GPIO5",
		LeftIN2:        "GPIO6",
		LeftPWM:        "GPIO12",
		RightIN1:       "GPIO23",
		RightIN2:       "GPIO24",
		RightPWM:       "GPIO13",
		Standby:        "GPIO25",
		PWMFrequencyHz: 1000,
		PixelSPI:       "SPI0.0",
	}
}

func (o *HALOptions) Validate() []error {
	var errs []error
	if o.Driver != hal.DriverPeriph && o.Driver != hal.DriverMock {
		errs = append(errs, fmt.Errorf("--hal.driver must be %q or %q, got %q", hal.DriverPeriph, hal.DriverMock, o.Driver))
	}
	if o.PWMFrequencyHz <= 0 {
		errs = append(errs, fmt.Errorf("--hal.pwm-frequency must be positive"))
	}
	if o.Driver == hal.DriverPeriph {
		for flag, v := range map[string]string{
			"hal.left-in1": o.LeftIN1, "hal.left-in2": o.LeftIN2, "hal.left-pwm": o.LeftPWM,
			"hal.right-in1": o.RightIN1, "hal.right-in2": o.RightIN2, "hal.right-pwm": o.RightPWM,
			"hal.standby": o.Standby,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("--%s is required by the periph driver", flag))
			}
		}
	}
	return errs
}

func (o *HALOptions) Config() *hal.Config {
	return &hal.Config{
		Driver:           o.Driver,
		Left:             hal.MotorPins{IN1: o.LeftIN1, IN2: o.LeftIN2, PWM: o.LeftPWM},
		Right:            hal.MotorPins{IN1: o.RightIN1, IN2: o.RightIN2, PWM: o.RightPWM},
		Standby:          o.Standby,
		PWMFrequency:     physic.Frequency(o.PWMFrequencyHz) * physic.Hertz,
		PixelSPI:         o.PixelSPI,
		MockConnectDelay: o.MockConnectDelay,
	}
}

func (o *HALOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Driver, "hal.driver", o.Driver, "Hardware driver: 'periph' for a Linux board, 'mock' to log writes.")
	fs.StringVar(&o.LeftIN1, "hal.left-in1", o.LeftIN1, "Left motor IN1 pin (TB6612FNG AIN1).")
	fs.StringVar(&o.LeftIN2, "hal.left-in2", o.LeftIN2, "Left motor IN2 pin (TB6612FNG AIN2).")
	fs.StringVar(&o.LeftPWM, "hal.left-pwm", o.LeftPWM, "Left motor PWM pin (TB6612FNG PWMA).")
	fs.StringVar(&o.RightIN1, "hal.right-in1", o.RightIN1, "Right motor IN1 pin (TB6612FNG BIN1).")
	fs.StringVar(&o.RightIN2, "hal.right-in2", o.RightIN2, "Right motor IN2 pin (TB6612FNG BIN2).")
	fs.StringVar(&o.RightPWM, "hal.right-pwm", o.RightPWM, "Right motor PWM pin (TB6612FNG PWMB).")
	fs.StringVar(&o.Standby, "hal.standby", o.Standby, "Driver standby pin (TB6612FNG STBY).")
	fs.IntVar(&o.PWMFrequencyHz, "hal.pwm-frequency", o.PWMFrequencyHz, "Motor PWM frequency in Hz.")
	fs.StringVar(&o.PixelSPI, "hal.pixel-spi", o.PixelSPI, "SPI port of the WS2812 status pixel. Empty disables the pixel.")
	fs.DurationVar(&o.MockConnectDelay, "hal.mock-connect-delay", o.MockConnectDelay, "How long the mock driver reports no network.")
}
