package pipwm

import (
	"fmt"
	"log"
	"sync"

	"github.com/shibu-robo/shibu_drive/internal/command"
	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/drive"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	Frequency   = 100000
	CycleLength = uint32(100)
)

// PwmPins are the two hardware PWM capable pins, one per side.
var PwmPins = []int{12, 13}

type outputPin interface {
	Output()
	High()
	Low()
	Mode(rpio.Mode)
	Freq(int)
	DutyCycle(dutyLen, cycleLen uint32)
}

// CommandDriver drives an L298N style H-bridge straight from GPIO. Wheels
// on one side share a PWM pin, so they always run at the same duty.
type CommandDriver struct {
	lock   sync.Mutex
	cfg    config.CommandConfig
	motors map[drive.Wheel]Motor
	ready  bool

	open  func() error
	close func() error
	pin   func(int) outputPin
}

type Motor struct {
	name     string
	inverted bool
	pwm      outputPin
	dirA     outputPin
	dirB     outputPin
}

func NewCommand(cfg config.CommandConfig) *CommandDriver {
	return &CommandDriver{
		cfg:   cfg,
		open:  rpio.Open,
		close: rpio.Close,
		pin: func(n int) outputPin {
			return rpio.Pin(n)
		},
	}
}

func (c *CommandDriver) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	err := c.open()
	if err != nil {
		return fmt.Errorf("failed opening rpio: %w", err)
	}

	pwmPins := make(map[int]outputPin, len(PwmPins))
	motors := make(map[drive.Wheel]Motor, config.MaxSupportedMotors)
	for i := range c.cfg.MotorCfgs {
		if i >= config.MaxSupportedMotors {
			break
		}
		motorCfg := c.cfg.MotorCfgs[i]

		pwm, ok := pwmPins[motorCfg.PwmPin]
		if !ok {
			pwm = c.pin(motorCfg.PwmPin)
			pwm.Mode(rpio.Pwm)
			pwm.Freq(Frequency)
			pwm.DutyCycle(0, CycleLength)
			pwmPins[motorCfg.PwmPin] = pwm
		}

		motor := Motor{
			name:     motorCfg.Name,
			inverted: motorCfg.Inverted,
			pwm:      pwm,
			dirA:     c.pin(motorCfg.DirPinA),
			dirB:     c.pin(motorCfg.DirPinB),
		}
		motor.dirA.Output()
		motor.dirB.Output()
		motors[drive.Wheel(motorCfg.Wheel)] = motor
		log.Printf("motor added: %s\n", motorCfg.Name)
	}
	c.motors = motors
	c.ready = true
	c.releaseAll()
	return nil
}

func (c *CommandDriver) Stop() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.ready {
		return nil
	}
	c.releaseAll()
	c.ready = false

	err := c.close()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	return nil
}

func (c *CommandDriver) Release() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.ready {
		c.releaseAll()
	}
	return nil
}

func (c *CommandDriver) SetMany(cmds []drive.WheelCommand) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	for i := range cmds {
		err := c.set(cmds[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *CommandDriver) Set(cmd drive.WheelCommand) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.set(cmd)
}

func (c *CommandDriver) releaseAll() {
	for wheel := range c.motors {
		_ = c.set(drive.WheelCommand{Wheel: wheel, Direction: drive.Release})
	}
}

func (c *CommandDriver) set(cmd drive.WheelCommand) error {
	if !c.ready {
		return fmt.Errorf("rpio not open")
	}

	motor, ok := c.motors[cmd.Wheel]
	if !ok {
		return nil
	}

	direction := cmd.Direction
	if motor.inverted {
		direction = direction.Inverted()
	}

	switch direction {
	case drive.Forward:
		motor.dirA.High()
		motor.dirB.Low()
	case drive.Reverse:
		motor.dirA.Low()
		motor.dirB.High()
	default:
		motor.dirA.Low()
		motor.dirB.Low()
		motor.pwm.DutyCycle(0, CycleLength)
		return nil
	}

	mappedValue := command.MapToRange(cmd.Speed, 0, 1, 0, float64(CycleLength))
	motor.pwm.DutyCycle(uint32(mappedValue), CycleLength)
	return nil
}
