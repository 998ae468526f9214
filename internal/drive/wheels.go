package drive

import (
	"errors"
	"time"
)

var (
	ErrSensor   = errors.New("heading sensor failure")
	ErrActuator = errors.New("actuator failure")
)

type Wheel int

const (
	FrontLeft Wheel = iota
	FrontRight
	BackLeft
	BackRight
)

var AllWheels = []Wheel{FrontLeft, FrontRight, BackLeft, BackRight}

func (w Wheel) Left() bool {
	return w == FrontLeft || w == BackLeft
}

func (w Wheel) String() string {
	switch w {
	case FrontLeft:
		return "front_left"
	case FrontRight:
		return "front_right"
	case BackLeft:
		return "back_left"
	case BackRight:
		return "back_right"
	default:
		return "unknown"
	}
}

// Direction is the electrical sense a channel is driven in, not the physical one.
type Direction int

const (
	Release Direction = iota
	Forward
	Reverse
)

func (d Direction) Inverted() Direction {
	switch d {
	case Forward:
		return Reverse
	case Reverse:
		return Forward
	default:
		return Release
	}
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "release"
	}
}

// ForwardIsReverse is the chassis wiring: electrical reverse moves the robot forward.
const ForwardIsReverse = true

type Wiring struct {
	ForwardIsReverse bool
}

func DefaultWiring() Wiring {
	return Wiring{ForwardIsReverse: ForwardIsReverse}
}

// Ahead is the electrical direction that moves a wheel physically forward.
func (w Wiring) Ahead() Direction {
	if w.ForwardIsReverse {
		return Reverse
	}
	return Forward
}

func (w Wiring) Astern() Direction {
	return w.Ahead().Inverted()
}

// WheelCommand is a single channel output. Speed is a duty cycle in [0, 1].
type WheelCommand struct {
	Wheel     Wheel
	Direction Direction
	Speed     float64
}

type CommandDriverIFace interface {
	Init() error
	Set(WheelCommand) error
	SetMany([]WheelCommand) error
	Release() error
	Stop() error
}

type HeadingSensor interface {
	Heading() (int, error)
}

type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// sides builds commands driving the left pair and the right pair independently.
func sides(leftDir Direction, leftSpeed float64, rightDir Direction, rightSpeed float64) []WheelCommand {
	commands := make([]WheelCommand, 0, len(AllWheels))
	for _, wheel := range AllWheels {
		if wheel.Left() {
			commands = append(commands, WheelCommand{Wheel: wheel, Direction: leftDir, Speed: leftSpeed})
		} else {
			commands = append(commands, WheelCommand{Wheel: wheel, Direction: rightDir, Speed: rightSpeed})
		}
	}
	return commands
}
