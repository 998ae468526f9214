package compass

import (
	"fmt"
	"log"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/lis2mdl"
)

// NewLIS2MDL uses the tinygo driver. The chip has a fixed address so
// cfg.Address is ignored.
func NewLIS2MDL(cfg config.CompassConfig, bus drivers.I2C) (*Magnetometer, error) {
	compass := lis2mdl.New(bus)
	if !compass.Connected() {
		return nil, fmt.Errorf("lis2mdl not connected")
	}
	compass.Configure(lis2mdl.Configuration{})
	log.Println("lis2mdl ready")

	read := func() (float64, float64, error) {
		x, y, _ := compass.ReadMagneticField()
		return float64(x), float64(y), nil
	}
	return newMagnetometer(DriverLIS2MDL, cfg, read), nil
}
