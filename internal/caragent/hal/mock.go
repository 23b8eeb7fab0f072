package hal

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/pkg/log"
)

// MockHAL logs hardware writes instead of performing them. It reports no
// network until MockConnectDelay has passed, so the boot sequence can be
// watched on a workstation.
type MockHAL struct {
	cfg     *Config
	started time.Time

	left, right *mockMotor
	pixel       *mockPixel
	standby     gpio.Level
}

var _ core.HAL = (*MockHAL)(nil)

func NewMock(cfg *Config) *MockHAL {
	return &MockHAL{
		cfg:     cfg,
		started: time.Now(),
		left:    &mockMotor{side: core.SideLeft},
		right:   &mockMotor{side: core.SideRight},
		pixel:   &mockPixel{},
	}
}

func (h *MockHAL) Name() string { return DriverMock }

func (h *MockHAL) Motor(side core.Side) core.MotorPort {
	if side == core.SideRight {
		return h.right
	}
	return h.left
}

func (h *MockHAL) Pixel() core.PixelPort { return h.pixel }

func (h *MockHAL) Standby(level gpio.Level) error {
	h.standby = level
	log.Debug("[HAL-Mock] standby", "level", level.String())
	return nil
}

func (h *MockHAL) Connected() bool {
	return time.Since(h.started) >= h.cfg.MockConnectDelay
}

func (h *MockHAL) Address() string {
	if ip := primaryIPv4(h.cfg.Interface); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

func (h *MockHAL) Close() error {
	log.Info("[HAL-Mock] hardware released")
	return nil
}

type mockMotor struct {
	side core.Side

	mu   sync.Mutex
	duty int
}

func (m *mockMotor) SetInputs(in1, in2 gpio.Level) error {
	log.Debug("[HAL-Mock] motor inputs", "side", m.side, "in1", in1.String(), "in2", in2.String())
	return nil
}

func (m *mockMotor) SetDuty(duty int) error {
	m.mu.Lock()
	m.duty = duty
	m.mu.Unlock()
	log.Debug("[HAL-Mock] motor duty", "side", m.side, "duty", duty)
	return nil
}

type mockPixel struct {
	mu      sync.Mutex
	r, g, b uint8
}

func (p *mockPixel) SetRGB(r, g, b uint8) error {
	p.mu.Lock()
	p.r, p.g, p.b = r, g, b
	p.mu.Unlock()
	log.Debug("[HAL-Mock] pixel", "r", r, "g", g, "b", b)
	return nil
}
