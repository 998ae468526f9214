package ranging

import (
	"fmt"
	"log"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/stianeikeland/go-rpio/v4"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/vl53l1x"
)

// DefaultAddress is where every VL53L1X boots.
const DefaultAddress = 0x29

// OutOfRange is reported by the sensor when nothing is in view.
const OutOfRange = 8190

type Pin interface {
	Output()
	High()
	Low()
}

// Sensor is one started range finder.
type Sensor struct {
	Address uint8
	Read    func() uint16
	Stop    func()
}

type SensorFactory func(bus drivers.I2C, address uint8, cfg config.RangeConfig) (Sensor, error)

// Bank brings up several range finders that share one default address.
// Each is held in reset by its XSHUT pin and readdressed in turn.
type Bank struct {
	cfg     config.RangeConfig
	bus     drivers.I2C
	pins    []Pin
	sensors []Sensor
	sleep   func(time.Duration)
	create  SensorFactory
}

// NewBank uses GPIO pins from rpio. rpio must already be open.
func NewBank(cfg config.RangeConfig, bus drivers.I2C) *Bank {
	pins := make([]Pin, 0, len(cfg.ShutdownPins))
	for _, n := range cfg.ShutdownPins {
		pins = append(pins, rpio.Pin(n))
	}
	return newBank(cfg, bus, pins, time.Sleep, NewVL53L1X)
}

func newBank(cfg config.RangeConfig, bus drivers.I2C, pins []Pin, sleep func(time.Duration), create SensorFactory) *Bank {
	return &Bank{
		cfg:    cfg,
		bus:    bus,
		pins:   pins,
		sleep:  sleep,
		create: create,
	}
}

// Init must finish before any sensor is read. A failure stops at the
// failing sensor; earlier sensors stay running.
func (b *Bank) Init() error {
	for _, pin := range b.pins {
		pin.Output()
		pin.Low()
	}
	b.sleep(b.cfg.BootDelay)

	b.sensors = make([]Sensor, 0, len(b.pins))
	for i, pin := range b.pins {
		pin.High()
		b.sleep(b.cfg.BootDelay)

		address := b.cfg.BaseAddress + uint8(i)
		sensor, err := b.create(b.bus, address, b.cfg)
		if err != nil {
			return fmt.Errorf("failed starting range sensor %d at 0x%02x: %w", i, address, err)
		}
		b.sensors = append(b.sensors, sensor)
		log.Printf("range sensor %d started at 0x%02x\n", i, address)
	}
	return nil
}

func (b *Bank) Len() int {
	return len(b.sensors)
}

// Read returns the latest distance in millimetres from every sensor, in XSHUT order.
func (b *Bank) Read() []uint16 {
	ranges := make([]uint16, len(b.sensors))
	for i := range b.sensors {
		ranges[i] = b.sensors[i].Read()
	}
	return ranges
}

func (b *Bank) Stop() {
	for i := range b.sensors {
		b.sensors[i].Stop()
	}
	for _, pin := range b.pins {
		pin.Low()
	}
}

// NewVL53L1X readdresses the sensor currently at the default address and
// starts continuous ranging.
func NewVL53L1X(bus drivers.I2C, address uint8, cfg config.RangeConfig) (Sensor, error) {
	sensor := vl53l1x.New(bus)
	if !sensor.Connected() {
		return Sensor{}, fmt.Errorf("vl53l1x not found at 0x%02x", DefaultAddress)
	}
	sensor.SetAddress(address)

	if !sensor.Configure(true) {
		return Sensor{}, fmt.Errorf("vl53l1x configure failed")
	}
	if !sensor.SetMeasurementTimingBudget(uint32(cfg.BudgetUs)) {
		return Sensor{}, fmt.Errorf("vl53l1x rejected timing budget %dus", cfg.BudgetUs)
	}
	sensor.StartContinuous(uint32(cfg.BudgetUs / 1000))

	// a non blocking read gives 0 until a new measurement is ready
	var last uint16
	return Sensor{
		Address: address,
		Read: func() uint16 {
			distance := sensor.Read(false)
			if distance == 0 {
				return last
			}
			if distance >= OutOfRange {
				distance = OutOfRange
			}
			last = distance
			return distance
		},
		Stop: func() {
			sensor.StopContinuous()
		},
	}, nil
}
