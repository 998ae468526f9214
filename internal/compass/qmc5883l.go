package compass

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"tinygo.org/x/drivers"
)

const (
	qmcRegData    = 0x00
	qmcRegControl = 0x09
	qmcRegPeriod  = 0x0B
	qmcRegChipID  = 0x0D

	qmcChipID = 0xFF

	// continuous mode, 200Hz, 8 gauss, 512 oversampling
	qmcControl = 0x1D
	qmcPeriod  = 0x01
)

func NewQMC5883L(cfg config.CompassConfig, bus drivers.I2C) (*Magnetometer, error) {
	addr := uint16(cfg.Address)

	id := make([]byte, 1)
	err := bus.Tx(addr, []byte{qmcRegChipID}, id)
	if err != nil {
		return nil, fmt.Errorf("failed reading qmc5883l chip id - %w", err)
	}
	if id[0] != qmcChipID {
		log.Printf("warning: unexpected qmc5883l chip id 0x%02x\n", id[0])
	}

	err = bus.Tx(addr, []byte{qmcRegPeriod, qmcPeriod}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed setting qmc5883l period - %w", err)
	}

	err = bus.Tx(addr, []byte{qmcRegControl, qmcControl}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed setting qmc5883l mode - %w", err)
	}
	log.Printf("qmc5883l ready at 0x%02x\n", addr)

	buf := make([]byte, 6)
	read := func() (float64, float64, error) {
		err := bus.Tx(addr, []byte{qmcRegData}, buf)
		if err != nil {
			return 0, 0, err
		}
		x := int16(binary.LittleEndian.Uint16(buf[0:2]))
		y := int16(binary.LittleEndian.Uint16(buf[2:4]))
		return float64(x), float64(y), nil
	}
	return newMagnetometer(DriverQMC5883L, cfg, read), nil
}
