package hal

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// MotorPins names the TB6612FNG inputs of one channel.
type MotorPins struct {
	IN1 string `json:"in1" mapstructure:"in1"`
	IN2 string `json:"in2" mapstructure:"in2"`
	PWM string `json:"pwm" mapstructure:"pwm"`
}

// Config selects and wires a HAL driver.
type Config struct {
	Driver string

	Left    MotorPins
	Right   MotorPins
	Standby string

	PWMFrequency physic.Frequency

	// PixelSPI is the SPI port driving the WS2812 status pixel. Empty disables the pixel.
	PixelSPI string

	// Interface restricts the network predicate to one interface. Empty uses any.
	Interface string

	// MockConnectDelay is how long the mock driver reports no network.
	MockConnectDelay time.Duration
}
