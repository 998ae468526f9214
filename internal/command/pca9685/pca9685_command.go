package pcapwm

import (
	"fmt"
	"log"
	"sync"

	"github.com/googolgl/go-i2c"
	"github.com/googolgl/go-pca9685"
	"github.com/shibu-robo/shibu_drive/internal/command"
	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/drive"
)

const (
	MaxValue = 1.0
	MinValue = 0.0

	// 12 bit counter; 4096 in the on or off register is the full on/off bit
	FullCount = 4096
	MaxDuty   = 4095
)

type channelSetter interface {
	SetChannel(chn, on, off int) error
	SetFreq(freq float32) error
}

// Command drives DC motors through the PCA9685 on a motor HAT. Each motor
// uses a pwm channel for speed and two channels as H-bridge inputs.
type Command struct {
	lock   sync.Mutex
	cfg    config.CommandConfig
	motors map[drive.Wheel]Motor
	driver channelSetter
	open   func(config.CommandConfig) (channelSetter, error)
}

type Motor struct {
	name       string
	inverted   bool
	pwmChannel int
	in1Channel int
	in2Channel int
}

func NewCommand(cfg config.CommandConfig) *Command {
	return &Command{
		cfg:  cfg,
		open: openBoard,
	}
}

func openBoard(cfg config.CommandConfig) (channelSetter, error) {
	bus, err := i2c.New(cfg.Address, cfg.I2CDevice)
	if err != nil {
		return nil, fmt.Errorf("error starting i2c with address - %w", err)
	}

	board, err := pca9685.New(bus, nil)
	if err != nil {
		return nil, fmt.Errorf("error getting motor driver - %w", err)
	}
	return board, nil
}

func (c *Command) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	driver, err := c.open(c.cfg)
	if err != nil {
		return err
	}
	c.driver = driver

	// pca9685.New leaves the board at the 50 Hz servo rate
	err = driver.SetFreq(float32(c.cfg.Frequency))
	if err != nil {
		return fmt.Errorf("error setting pwm frequency %d - %w", c.cfg.Frequency, err)
	}
	log.Printf("pca9685 pwm frequency: %dHz\n", c.cfg.Frequency)

	motors := make(map[drive.Wheel]Motor, config.MaxSupportedMotors)
	for i := range c.cfg.MotorCfgs {
		if i >= config.MaxSupportedMotors {
			break
		}
		motorCfg := c.cfg.MotorCfgs[i]
		motors[drive.Wheel(motorCfg.Wheel)] = Motor{
			name:       motorCfg.Name,
			inverted:   motorCfg.Inverted,
			pwmChannel: motorCfg.PwmChannel,
			in1Channel: motorCfg.In1Channel,
			in2Channel: motorCfg.In2Channel,
		}
		log.Printf("motor added: %s\n", motorCfg.Name)
	}
	c.motors = motors
	return c.releaseAll()
}

func (c *Command) SetMany(cmds []drive.WheelCommand) error {
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

func (c *Command) Set(cmd drive.WheelCommand) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.set(cmd)
}

func (c *Command) Release() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.releaseAll()
}

func (c *Command) Stop() error {
	log.Println("stopping pca9685 motors")
	return c.Release()
}

func (c *Command) releaseAll() error {
	if c.driver == nil {
		return nil
	}
	for wheel := range c.motors {
		err := c.set(drive.WheelCommand{Wheel: wheel, Direction: drive.Release})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Command) set(cmd drive.WheelCommand) error {
	if c.driver == nil {
		return fmt.Errorf("motor driver not initialized")
	}

	motor, ok := c.motors[cmd.Wheel]
	if !ok {
		return nil
	}

	direction := cmd.Direction
	if motor.inverted {
		direction = direction.Inverted()
	}

	in1, in2 := false, false
	switch direction {
	case drive.Forward:
		in1 = true
	case drive.Reverse:
		in2 = true
	}

	speed := cmd.Speed
	if direction == drive.Release {
		speed = 0
	}

	err := c.setDuty(motor.pwmChannel, speed)
	if err == nil {
		err = c.setPin(motor.in1Channel, in1)
	}
	if err == nil {
		err = c.setPin(motor.in2Channel, in2)
	}
	if err != nil {
		return fmt.Errorf("failed setting motor - name: %s direction: %s speed: %.2f - error: %w", motor.name, direction, speed, err)
	}
	return nil
}

func (c *Command) setDuty(channel int, speed float64) error {
	duty := command.MapToRange(speed, MinValue, MaxValue, 0, MaxDuty)
	switch {
	case duty <= 0:
		return c.driver.SetChannel(channel, 0, FullCount)
	case duty >= MaxDuty:
		return c.driver.SetChannel(channel, FullCount, 0)
	default:
		return c.driver.SetChannel(channel, 0, int(duty))
	}
}

func (c *Command) setPin(channel int, high bool) error {
	if high {
		return c.driver.SetChannel(channel, FullCount, 0)
	}
	return c.driver.SetChannel(channel, 0, FullCount)
}
