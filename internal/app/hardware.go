package app

import (
	"errors"
	"fmt"
	"log"

	"github.com/shibu-robo/shibu_drive/internal/bus"
	pcapwm "github.com/shibu-robo/shibu_drive/internal/command/pca9685"
	pipwm "github.com/shibu-robo/shibu_drive/internal/command/pi_pwm"
	"github.com/shibu-robo/shibu_drive/internal/command/sim"
	"github.com/shibu-robo/shibu_drive/internal/compass"
	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/display"
	"github.com/shibu-robo/shibu_drive/internal/drive"
	"github.com/shibu-robo/shibu_drive/internal/link"
	"github.com/shibu-robo/shibu_drive/internal/ranging"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	DriverPCA9685 = "pca9685"
	DriverPiPWM   = "pi_pwm"
	DriverSim     = "sim"
)

func buildParts(cfg config.Config) (parts Parts, err error) {
	defer func() {
		if err == nil {
			return
		}
		for i := len(parts.closers) - 1; i >= 0; i-- {
			_ = parts.closers[i]()
		}
	}()

	buses := make(map[string]*bus.Bus)
	getBus := func(device string) *bus.Bus {
		b, ok := buses[device]
		if !ok {
			b = bus.New(device)
			buses[device] = b
			parts.closers = append(parts.closers, b.Close)
		}
		return b
	}

	wiring := drive.Wiring{ForwardIsReverse: cfg.CommandCfg.ForwardIsReverse}
	var base *sim.Base
	switch cfg.CommandCfg.CommandDriver {
	case DriverPCA9685:
		parts.Driver = pcapwm.NewCommand(cfg.CommandCfg)
	case DriverPiPWM:
		parts.Driver = pipwm.NewCommand(cfg.CommandCfg)
	case DriverSim:
		base = sim.NewBase(drive.SystemClock(), wiring, sim.Options{})
		parts.Driver = base
	default:
		return parts, fmt.Errorf("unsupported motor driver: %s", cfg.CommandCfg.CommandDriver)
	}
	log.Printf("motor driver: %s\n", cfg.CommandCfg.CommandDriver)

	var sensor drive.HeadingSensor
	if cfg.CompassCfg.CompassDriver == compass.DriverSim {
		if base == nil {
			return parts, errors.New("sim compass needs the sim motor driver")
		}
		sensor = base
	} else {
		magnetometer, err := compass.New(cfg.CompassCfg, getBus(cfg.CompassCfg.I2CDevice))
		if err != nil {
			return parts, fmt.Errorf("error creating compass - %w", err)
		}
		sensor = magnetometer
	}
	parts.Sensor = compass.NewLocked(sensor)

	if cfg.RangeCfg.Enabled {
		// pi_pwm opens rpio itself during Init, which runs before the ranging bank
		if cfg.CommandCfg.CommandDriver != DriverPiPWM {
			err = rpio.Open()
			if err != nil {
				return parts, fmt.Errorf("error opening rpio for ranging - %w", err)
			}
			parts.closers = append(parts.closers, rpio.Close)
		}
		parts.Ranges = ranging.NewBank(cfg.RangeCfg, getBus(cfg.RangeCfg.I2CDevice))
	}

	if cfg.DisplayCfg.Enabled {
		faces, err := display.LoadFacesFile(cfg.DisplayCfg.FacesFile)
		if err != nil {
			log.Printf("warning: display disabled - error: %s\n", err)
		} else {
			panel, err := display.NewOLED(cfg.DisplayCfg, getBus(cfg.DisplayCfg.I2CDevice))
			if err != nil {
				log.Printf("warning: display disabled - error: %s\n", err)
			} else {
				parts.Display = display.New(panel, faces)
			}
		}
	}

	if cfg.LinkCfg.Enabled {
		commandLink, err := link.Open(cfg.LinkCfg)
		if err != nil {
			return parts, err
		}
		parts.Link = commandLink
	}
	return parts, nil
}
