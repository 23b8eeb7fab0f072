package core

import (
	"periph.io/x/conn/v3/gpio"
)

// Side identifies one motor of the differential pair.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// HAL is the port between the agent and the board it runs on.
type HAL interface {
	// Name identifies the driver, e.g. "periph" or "mock".
	Name() string

	// Motor returns the direction/PWM outputs for one side.
	Motor(side Side) MotorPort

	// Pixel returns the status RGB pixel.
	Pixel() PixelPort

	// Standby drives the H-bridge enable line. High enables the outputs.
	Standby(level gpio.Level) error

	// Connected reports whether the board has a routable network address.
	Connected() bool

	// Address returns the board's primary IPv4 address, or "" if none.
	Address() string

	// Close releases the hardware.
	Close() error
}

// MotorPort is one H-bridge channel: two direction inputs and a PWM input.
type MotorPort interface {
	// SetInputs drives IN1 and IN2.
	SetInputs(in1, in2 gpio.Level) error

	// SetDuty writes a duty in [0, 1023].
	SetDuty(duty int) error
}

// PixelPort is a single addressable RGB pixel.
type PixelPort interface {
	SetRGB(r, g, b uint8) error
}
