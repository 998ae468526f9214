package display

import (
	"fmt"
	"image/color"
	"log"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"tinygo.org/x/drivers"
)

const (
	controlCommand = 0x00
	controlData    = 0x40

	// data bytes per bus write after the control byte
	dataChunk = 32
)

// 128x64, internal charge pump, horizontal addressing, segment and COM remapped.
var oledInit = []byte{
	0xAE,       // display off
	0xD5, 0x80, // clock divide
	0xA8, 0x3F, // multiplex 64
	0xD3, 0x00, // display offset
	0x40,       // start line 0
	0x8D, 0x14, // charge pump on
	0x20, 0x00, // horizontal addressing
	0xA1,       // segment remap
	0xC8,       // COM scan descending
	0xDA, 0x12, // COM pins
	0x81, 0xCF, // contrast
	0xD9, 0xF1, // precharge
	0xDB, 0x40, // vcomh
	0xA4,       // resume from RAM
	0xA6,       // normal, not inverted
	0x2E,       // scroll off
	0xAF,       // display on
}

// OLED is an SSD1306 on I2C. Pixels are buffered and pushed by Display.
type OLED struct {
	bus     drivers.I2C
	address uint16
	buffer  []byte
}

// NewOLED configures a 128x64 SSD1306 on the bus and blanks it.
func NewOLED(cfg config.DisplayConfig, bus drivers.I2C) (*OLED, error) {
	o := &OLED{
		bus:     bus,
		address: uint16(cfg.Address),
		buffer:  make([]byte, Width*Height/8),
	}

	err := o.command(oledInit...)
	if err != nil {
		return nil, fmt.Errorf("failed configuring oled at 0x%02x - %w", cfg.Address, err)
	}
	err = o.Display()
	if err != nil {
		return nil, err
	}
	log.Printf("oled ready at 0x%02x\n", cfg.Address)
	return o, nil
}

// SetPixel lights any non black color. Out of range pixels are ignored.
func (o *OLED) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := int(x) + int(y/8)*Width
	bit := byte(1) << uint(y%8)
	if c.R != 0 || c.G != 0 || c.B != 0 {
		o.buffer[i] |= bit
	} else {
		o.buffer[i] &^= bit
	}
}

func (o *OLED) ClearBuffer() {
	for i := range o.buffer {
		o.buffer[i] = 0
	}
}

// Display writes the whole buffer to GDDRAM.
func (o *OLED) Display() error {
	err := o.command(
		0x21, 0x00, 0x7F, // columns 0-127
		0x22, 0x00, 0x07, // pages 0-7
	)
	if err != nil {
		return fmt.Errorf("failed addressing oled - %w", err)
	}

	chunk := make([]byte, 0, dataChunk+1)
	for start := 0; start < len(o.buffer); start += dataChunk {
		end := start + dataChunk
		if end > len(o.buffer) {
			end = len(o.buffer)
		}
		chunk = append(chunk[:0], controlData)
		chunk = append(chunk, o.buffer[start:end]...)
		err = o.bus.Tx(o.address, chunk, nil)
		if err != nil {
			return fmt.Errorf("failed writing oled data - %w", err)
		}
	}
	return nil
}

func (o *OLED) command(cmds ...byte) error {
	w := make([]byte, 0, len(cmds)+1)
	w = append(w, controlCommand)
	w = append(w, cmds...)
	return o.bus.Tx(o.address, w, nil)
}
