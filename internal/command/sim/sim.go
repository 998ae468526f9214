package sim

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/drive"
)

const (
	DefaultMaxRate  = 300.0 // deg/s with both sides at full duty in opposite directions
	DefaultStiction = 0.20
	DefaultLag      = 40 * time.Millisecond
)

// Clock is a manual clock. Sleep advances it instead of blocking so the
// controller can run against the base without wall time passing.
type Clock struct {
	lock sync.Mutex
	now  time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Unix(0, 0)}
}

func (c *Clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Clock) Sleep(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type Options struct {
	Heading  float64
	MaxRate  float64
	Stiction float64
	Lag      time.Duration
	Drift    float64 // deg/s added while any side is driven
}

// Base is a kinematic differential chassis. It is both the command driver
// and the heading sensor: heading integrates from the commanded side duty.
type Base struct {
	lock   sync.Mutex
	clock  drive.Clock
	wiring drive.Wiring
	opts   Options

	wheels  map[drive.Wheel]drive.WheelCommand
	heading float64
	rate    float64
	last    time.Time
	stopped bool
}

func NewBase(clock drive.Clock, wiring drive.Wiring, opts Options) *Base {
	if opts.MaxRate == 0 {
		opts.MaxRate = DefaultMaxRate
	}
	if opts.Stiction == 0 {
		opts.Stiction = DefaultStiction
	}
	if opts.Lag == 0 {
		opts.Lag = DefaultLag
	}
	return &Base{
		clock:   clock,
		wiring:  wiring,
		opts:    opts,
		wheels:  make(map[drive.Wheel]drive.WheelCommand, len(drive.AllWheels)),
		heading: opts.Heading,
		last:    clock.Now(),
	}
}

func (b *Base) Init() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	log.Printf("sim base ready - heading: %.1f\n", b.heading)
	b.stopped = false
	b.last = b.clock.Now()
	return nil
}

func (b *Base) Set(cmd drive.WheelCommand) error {
	return b.SetMany([]drive.WheelCommand{cmd})
}

func (b *Base) SetMany(cmds []drive.WheelCommand) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.stopped {
		return fmt.Errorf("sim base stopped")
	}

	b.advance()
	for _, cmd := range cmds {
		b.wheels[cmd.Wheel] = cmd
	}
	return nil
}

func (b *Base) Release() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.advance()
	for _, wheel := range drive.AllWheels {
		b.wheels[wheel] = drive.WheelCommand{Wheel: wheel, Direction: drive.Release}
	}
	return nil
}

func (b *Base) Stop() error {
	err := b.Release()
	if err != nil {
		return err
	}
	b.lock.Lock()
	b.stopped = true
	b.lock.Unlock()
	return nil
}

func (b *Base) Heading() (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.advance()
	return drive.Normalize(int(math.Round(b.heading))), nil
}

// Rate is the current true spin rate in deg/s.
func (b *Base) Rate() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.rate
}

func (b *Base) advance() {
	now := b.clock.Now()
	dt := now.Sub(b.last).Seconds()
	b.last = now
	if dt <= 0 {
		return
	}

	left, right, driven := b.sideDuty()
	target := b.opts.MaxRate * (right - left) / 2
	if driven {
		target += b.opts.Drift
	}

	// exact solution of a first order lag over dt
	tau := b.opts.Lag.Seconds()
	decay := 1 - math.Exp(-dt/tau)
	b.heading += target*dt + (b.rate-target)*tau*decay
	b.rate += (target - b.rate) * decay
	b.heading = math.Mod(b.heading, 360)
	if b.heading < 0 {
		b.heading += 360
	}
}

// sideDuty averages each side's signed effective duty, positive physically forward.
func (b *Base) sideDuty() (float64, float64, bool) {
	var left, right float64
	driven := false
	for _, wheel := range drive.AllWheels {
		cmd, ok := b.wheels[wheel]
		if !ok {
			continue
		}
		duty := b.effective(cmd)
		if duty != 0 {
			driven = true
		}
		if wheel.Left() {
			left += duty / 2
		} else {
			right += duty / 2
		}
	}
	return left, right, driven
}

func (b *Base) effective(cmd drive.WheelCommand) float64 {
	if cmd.Direction == drive.Release || cmd.Speed <= b.opts.Stiction {
		return 0
	}

	duty := (math.Min(cmd.Speed, 1) - b.opts.Stiction) / (1 - b.opts.Stiction)
	if cmd.Direction != b.wiring.Ahead() {
		duty = -duty
	}
	return duty
}
