package compass

import (
	"fmt"
	"math"
	"sync"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/drive"
	"tinygo.org/x/drivers"
)

const (
	DriverQMC5883L = "qmc5883l"
	DriverLIS2MDL  = "lis2mdl"
	DriverSim      = "sim"
)

// Magnetometer turns raw field readings into a heading in whole degrees.
// Heading follows atan2(y, x) so it increases counter-clockwise.
type Magnetometer struct {
	name        string
	offsetX     float64
	offsetY     float64
	declination float64
	read        func() (float64, float64, error)
}

// New builds the magnetometer named in cfg on the given bus.
func New(cfg config.CompassConfig, bus drivers.I2C) (*Magnetometer, error) {
	switch cfg.CompassDriver {
	case DriverQMC5883L:
		return NewQMC5883L(cfg, bus)
	case DriverLIS2MDL:
		return NewLIS2MDL(cfg, bus)
	default:
		return nil, fmt.Errorf("unsupported compass driver: %s", cfg.CompassDriver)
	}
}

func newMagnetometer(name string, cfg config.CompassConfig, read func() (float64, float64, error)) *Magnetometer {
	return &Magnetometer{
		name:        name,
		offsetX:     cfg.OffsetX,
		offsetY:     cfg.OffsetY,
		declination: cfg.Declination,
		read:        read,
	}
}

func (m *Magnetometer) Name() string {
	return m.name
}

func (m *Magnetometer) Heading() (int, error) {
	x, y, err := m.read()
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", m.name, err)
	}
	return headingFromField(x-m.offsetX, y-m.offsetY, m.declination), nil
}

func headingFromField(x, y, declination float64) int {
	deg := math.Atan2(y, x)*180/math.Pi + declination
	return drive.Normalize(int(math.Round(deg)))
}

// Locked serializes heading reads shared by the control loop and the status task.
type Locked struct {
	lock   sync.Mutex
	sensor drive.HeadingSensor
}

func NewLocked(sensor drive.HeadingSensor) *Locked {
	return &Locked{sensor: sensor}
}

func (l *Locked) Heading() (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.sensor.Heading()
}
