package drive

import (
	"sync"

	"periph.io/x/conn/v3/gpio"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/pkg/metrics"
	"cloupeer.io/bcicar/pkg/log"
)

// MaxDuty is the largest PWM duty a channel accepts.
const MaxDuty = 1023

// Direction is the rotation commanded on an H-bridge channel.
type Direction int

const (
	DirectionOff Direction = iota
	DirectionForward
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return "off"
	}
}

// inputs maps a direction onto IN1/IN2. Both low coasts the motor.
func (d Direction) inputs() (in1, in2 gpio.Level) {
	switch d {
	case DirectionForward:
		return gpio.High, gpio.Low
	case DirectionReverse:
		return gpio.Low, gpio.High
	default:
		return gpio.Low, gpio.Low
	}
}

// ClampDuty limits v to [0, MaxDuty].
func ClampDuty(v int) int {
	return max(0, min(MaxDuty, v))
}

// Channel drives one motor. Hardware failures are logged, not returned:
// a caller in the middle of a ramp has nothing better to do than carry on.
type Channel struct {
	side core.Side
	port core.MotorPort

	mu   sync.Mutex
	dir  Direction
	duty int
}

// NewChannel wraps port as the channel for side.
func NewChannel(side core.Side, port core.MotorPort) *Channel {
	return &Channel{side: side, port: port}
}

func (c *Channel) SetDirection(d Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in1, in2 := d.inputs()
	if err := c.port.SetInputs(in1, in2); err != nil {
		log.Error(err, "Failed to set motor direction", "side", c.side, "direction", d)
	}
	c.dir = d
}

// SetDuty writes v clamped to [0, MaxDuty].
func (c *Channel) SetDuty(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setDutyLocked(ClampDuty(v))
}

func (c *Channel) setDutyLocked(v int) {
	if err := c.port.SetDuty(v); err != nil {
		log.Error(err, "Failed to set motor duty", "side", c.side, "duty", v)
	}
	c.duty = v
	metrics.MotorDuty.WithLabelValues(string(c.side)).Set(float64(v))
}

// Stop releases both direction inputs and zeroes the duty.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.port.SetInputs(gpio.Low, gpio.Low); err != nil {
		log.Error(err, "Failed to release motor", "side", c.side)
	}
	c.dir = DirectionOff
	c.setDutyLocked(0)
}

// Duty returns the last duty written.
func (c *Channel) Duty() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duty
}

func (c *Channel) Direction() Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dir
}

// Pair is the left and right channel of the car.
//
// A non-zero duty is only ever written after SetDirections armed the pair for
// the current action; Stop disarms it. Duty written to a disarmed pair is
// forced to 0, so a late ramp can never spin a motor in a stale direction.
type Pair struct {
	Left  *Channel
	Right *Channel

	mu    sync.Mutex
	armed bool
}

func NewPair(left, right *Channel) *Pair {
	return &Pair{Left: left, Right: right}
}

// SetDirections sets both channels and arms the pair.
func (p *Pair) SetDirections(left, right Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Left.SetDirection(left)
	p.Right.SetDirection(right)
	p.armed = left != DirectionOff || right != DirectionOff
}

// SetDuty writes the same duty to both channels.
func (p *Pair) SetDuty(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.armed {
		v = 0
	}
	p.Left.SetDuty(v)
	p.Right.SetDuty(v)
}

// Duty returns the duty in effect on the pair, read back from the left channel.
func (p *Pair) Duty() int {
	return p.Left.Duty()
}

// Stop hard-stops both channels and disarms the pair.
func (p *Pair) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.armed = false
	p.Left.Stop()
	p.Right.Stop()
}
