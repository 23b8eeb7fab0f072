package hal

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/pkg/log"
)

// PeriphHAL drives a TB6612FNG dual H-bridge and a WS2812 pixel through
// periph.io on a Linux single-board computer.
type PeriphHAL struct {
	cfg *Config

	left, right *periphMotor
	standby     gpio.PinIO
	pixel       core.PixelPort
	spiPort     spi.PortCloser
}

var _ core.HAL = (*PeriphHAL)(nil)

func NewPeriph(cfg *Config) (*PeriphHAL, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}

	h := &PeriphHAL{cfg: cfg}

	var err error
	if h.left, err = openMotor(cfg.Left, cfg); err != nil {
		return nil, fmt.Errorf("left motor: %w", err)
	}
	if h.right, err = openMotor(cfg.Right, cfg); err != nil {
		return nil, fmt.Errorf("right motor: %w", err)
	}

	if h.standby, err = openPin(cfg.Standby); err != nil {
		return nil, fmt.Errorf("standby: %w", err)
	}

	h.pixel = nopPixel{}
	if cfg.PixelSPI != "" {
		if h.spiPort, err = spireg.Open(cfg.PixelSPI); err != nil {
			return nil, fmt.Errorf("failed to open pixel SPI port %q: %w", cfg.PixelSPI, err)
		}
		opts := nrzled.DefaultOpts
		opts.NumPixels = 1
		dev, err := nrzled.NewSPI(h.spiPort, &opts)
		if err != nil {
			_ = h.spiPort.Close()
			return nil, fmt.Errorf("failed to attach ws2812 pixel: %w", err)
		}
		h.pixel = &ws2812Pixel{dev: dev}
	}

	log.Info("periph HAL ready", "standby", cfg.Standby, "pwmFrequency", cfg.PWMFrequency.String(), "pixel", cfg.PixelSPI)
	return h, nil
}

func (h *PeriphHAL) Name() string { return DriverPeriph }

func (h *PeriphHAL) Motor(side core.Side) core.MotorPort {
	if side == core.SideRight {
		return h.right
	}
	return h.left
}

func (h *PeriphHAL) Pixel() core.PixelPort { return h.pixel }

func (h *PeriphHAL) Standby(level gpio.Level) error {
	return h.standby.Out(level)
}

func (h *PeriphHAL) Connected() bool {
	return primaryIPv4(h.cfg.Interface) != ""
}

func (h *PeriphHAL) Address() string {
	return primaryIPv4(h.cfg.Interface)
}

// Close releases the motors, drops standby and closes the pixel port.
func (h *PeriphHAL) Close() error {
	var errs []error
	for _, m := range []*periphMotor{h.left, h.right} {
		if err := m.SetInputs(gpio.Low, gpio.Low); err != nil {
			errs = append(errs, err)
		}
		if err := m.SetDuty(0); err != nil {
			errs = append(errs, err)
		}
	}
	if err := h.standby.Out(gpio.Low); err != nil {
		errs = append(errs, err)
	}
	if h.spiPort != nil {
		if err := h.spiPort.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openPin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find pin %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to set pin %q as output: %w", name, err)
	}
	return p, nil
}

type periphMotor struct {
	in1, in2, pwm gpio.PinIO
	cfg           *Config
}

func openMotor(pins MotorPins, cfg *Config) (*periphMotor, error) {
	m := &periphMotor{cfg: cfg}
	var err error
	if m.in1, err = openPin(pins.IN1); err != nil {
		return nil, err
	}
	if m.in2, err = openPin(pins.IN2); err != nil {
		return nil, err
	}
	if m.pwm, err = openPin(pins.PWM); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *periphMotor) SetInputs(in1, in2 gpio.Level) error {
	if err := m.in1.Out(in1); err != nil {
		return err
	}
	return m.in2.Out(in2)
}

// SetDuty maps [0, 1023] onto the periph duty range.
func (m *periphMotor) SetDuty(duty int) error {
	if duty <= 0 {
		return m.pwm.Out(gpio.Low)
	}
	d := gpio.Duty(int64(duty) * int64(gpio.DutyMax) / 1023)
	return m.pwm.PWM(d, m.cfg.PWMFrequency)
}

type ws2812Pixel struct {
	dev *nrzled.Dev
}

func (p *ws2812Pixel) SetRGB(r, g, b uint8) error {
	_, err := p.dev.Write([]byte{r, g, b})
	return err
}

type nopPixel struct{}

func (nopPixel) SetRGB(_, _, _ uint8) error { return nil }
