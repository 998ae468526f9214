package drive

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/models"
)

type RotateResult struct {
	Start   int
	Target  int
	Final   int
	Ticks   int
	Outcome TurnAction
	Elapsed time.Duration
}

type MoveResult struct {
	Target  int
	Final   int
	Ticks   int
	Elapsed time.Duration
	Brake   BrakePulse
}

// Controller runs rotate and move operations one at a time. Every actuator
// write goes through it while its lock is held.
type Controller struct {
	lock sync.Mutex

	cfg    config.TuningConfig
	wiring Wiring
	driver CommandDriverIFace
	sensor HeadingSensor
	clock  Clock

	Verbose bool
}

func NewController(cfg config.TuningConfig, wiring Wiring, driver CommandDriverIFace, sensor HeadingSensor) *Controller {
	return &Controller{
		cfg:    cfg,
		wiring: wiring,
		driver: driver,
		sensor: sensor,
		clock:  SystemClock(),
	}
}

func (c *Controller) SetClock(clock Clock) {
	c.clock = clock
}

func (c *Controller) Init() error {
	err := c.driver.Init()
	if err != nil {
		return fmt.Errorf("failed initializing command driver: %w", err)
	}
	return c.Release()
}

// Execute runs the rotation and then the move of one command.
func (c *Controller) Execute(cmd models.Command) (RotateResult, MoveResult, error) {
	rotateResult, err := c.Rotate(cmd.Rotation)
	if err != nil {
		return rotateResult, MoveResult{}, err
	}

	moveResult, err := c.Move(cmd.Duration())
	if err != nil {
		return rotateResult, moveResult, err
	}
	return rotateResult, moveResult, nil
}

// Rotate turns in place by delta degrees from the current heading along the
// shorter arc. A timeout is not an error; check Outcome.
func (c *Controller) Rotate(delta int) (result RotateResult, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.releaseOnExit(&err)

	start, err := c.readHeading()
	if err != nil {
		return result, err
	}

	rotation := NewRotation(c.cfg, start, delta)
	result.Start = rotation.Start
	result.Target = rotation.Target
	log.Printf("rotate started - start: %d delta: %d target: %d\n", rotation.Start, delta, rotation.Target)

	begin := c.clock.Now()
	last := begin
	heading := start
	for {
		now := c.clock.Now()
		elapsed := now.Sub(begin)
		dt := now.Sub(last)
		last = now

		step := rotation.Step(heading, elapsed, dt)
		result.Final = Normalize(heading)
		result.Ticks++
		result.Elapsed = elapsed
		result.Outcome = step.Action

		if c.Verbose {
			log.Printf("rotate tick - heading: %d error: %d rate: %.1f action: %s speed: %.2f\n", heading, step.Error, step.Rate, step.Action, step.Speed)
		}

		switch step.Action {
		case TurnStop:
			log.Printf("rotate not needed - heading: %d\n", result.Final)
			return result, nil
		case TurnTimeout:
			log.Printf("rotate timed out - heading: %d target: %d error: %d\n", result.Final, result.Target, step.Error)
			return result, nil
		case TurnBrake:
			log.Printf("rotate settled - heading: %d rate: %.1f brake: %.2f for %s\n", result.Final, step.Rate, step.Brake.Speed, step.Brake.Duration)
			return result, c.brake(turnCommands(c.wiring, step.Turn, step.Brake.Speed), step.Turn != 0, step.Brake)
		case TurnCoast:
			err = c.setRelease()
		case TurnDrive:
			err = c.setMany(turnCommands(c.wiring, step.Turn, step.Speed))
		}
		if err != nil {
			return result, err
		}

		c.clock.Sleep(c.cfg.Tick)
		heading, err = c.readHeading()
		if err != nil {
			return result, err
		}
	}
}

// Move drives forward for duration while holding the heading read at the
// start. A non positive duration does nothing.
func (c *Controller) Move(duration time.Duration) (result MoveResult, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if duration <= 0 {
		log.Println("move skipped - zero duration")
		return result, nil
	}
	defer c.releaseOnExit(&err)

	target, err := c.readHeading()
	if err != nil {
		return result, err
	}

	hold := NewHold(c.cfg, target)
	profile := NewProfile(c.cfg, duration)
	result.Target = hold.Target
	log.Printf("move started - target: %d duration: %s\n", hold.Target, duration)

	ahead := c.wiring.Ahead()
	begin := c.clock.Now()
	last := begin
	heading := target
	for {
		now := c.clock.Now()
		elapsed := now.Sub(begin)
		result.Elapsed = elapsed
		if elapsed >= duration {
			break
		}
		dt := now.Sub(last)
		last = now

		base := profile.Base(elapsed)
		step := hold.Step(heading, base, dt)
		result.Final = Normalize(heading)
		result.Ticks++

		if c.Verbose {
			log.Printf("move tick - heading: %d error: %d rate: %.1f base: %.2f left: %.2f right: %.2f\n", heading, step.Error, step.Rate, base, step.Left, step.Right)
		}

		err = c.setMany(sides(ahead, step.Left, ahead, step.Right))
		if err != nil {
			return result, err
		}

		c.clock.Sleep(c.cfg.Tick)
		heading, err = c.readHeading()
		if err != nil {
			return result, err
		}
	}
	result.Final = Normalize(heading)

	// rate is from the last tick only, no filtering
	result.Brake = NewBrakePulse(c.cfg, hold.Rate())
	log.Printf("move done - heading: %d rate: %.1f brake: %.2f for %s\n", result.Final, hold.Rate(), result.Brake.Speed, result.Brake.Duration)
	astern := c.wiring.Astern()
	return result, c.brake(sides(astern, result.Brake.Speed, astern, result.Brake.Speed), true, result.Brake)
}

// Release zeroes every channel.
func (c *Controller) Release() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.setRelease()
}

// Halt waits for any running operation, then releases and stops the driver.
func (c *Controller) Halt() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	log.Println("halting drive")
	err := c.setRelease()
	if err != nil {
		log.Printf("failed releasing on halt - error: %s\n", err)
	}

	err = c.driver.Stop()
	if err != nil {
		return fmt.Errorf("failed stopping command driver: %w: %w", ErrActuator, err)
	}
	return nil
}

func (c *Controller) brake(commands []WheelCommand, apply bool, pulse BrakePulse) error {
	if !apply || pulse.Duration <= 0 || pulse.Speed <= 0 {
		return nil
	}

	err := c.setMany(commands)
	if err != nil {
		return err
	}
	c.clock.Sleep(pulse.Duration)
	return nil
}

func (c *Controller) releaseOnExit(err *error) {
	releaseErr := c.setRelease()
	if releaseErr != nil && *err == nil {
		*err = releaseErr
	}
}

func (c *Controller) readHeading() (int, error) {
	heading, err := c.sensor.Heading()
	if err != nil {
		return 0, fmt.Errorf("failed reading heading: %w: %w", ErrSensor, err)
	}
	return Normalize(heading), nil
}

func (c *Controller) setMany(commands []WheelCommand) error {
	err := c.driver.SetMany(commands)
	if err != nil {
		return fmt.Errorf("failed setting wheels: %w: %w", ErrActuator, err)
	}
	return nil
}

func (c *Controller) setRelease() error {
	err := c.driver.Release()
	if err != nil {
		return fmt.Errorf("failed releasing wheels: %w: %w", ErrActuator, err)
	}
	return nil
}
