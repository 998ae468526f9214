package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/googolgl/go-i2c"
)

var ErrShortTransfer = errors.New("short i2c transfer")

type handle interface {
	WriteBytes(buf []byte) (int, error)
	ReadBytes(buf []byte) (int, error)
	Close() error
}

// Bus adapts a Linux i2c-dev bus to the tinygo drivers.I2C interface. One
// go-i2c handle is opened lazily per target address.
type Bus struct {
	lock    sync.Mutex
	device  string
	handles map[uint16]handle
	open    func(addr uint8, device string) (handle, error)
}

func New(device string) *Bus {
	return &Bus{
		device:  device,
		handles: make(map[uint16]handle),
		open:    openHandle,
	}
}

func openHandle(addr uint8, device string) (handle, error) {
	h, err := i2c.New(addr, device)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Tx writes w and then reads len(r) bytes from addr.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	h, err := b.get(addr)
	if err != nil {
		return err
	}

	if len(w) > 0 {
		n, err := h.WriteBytes(w)
		if err != nil {
			return fmt.Errorf("failed writing to 0x%02x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("%w: wrote %d of %d bytes to 0x%02x", ErrShortTransfer, n, len(w), addr)
		}
	}

	if len(r) > 0 {
		n, err := h.ReadBytes(r)
		if err != nil {
			return fmt.Errorf("failed reading from 0x%02x: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("%w: read %d of %d bytes from 0x%02x", ErrShortTransfer, n, len(r), addr)
		}
	}
	return nil
}

func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, r)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}

// Forget closes the handle for addr, used after a device has been readdressed.
func (b *Bus) Forget(addr uint16) {
	b.lock.Lock()
	defer b.lock.Unlock()

	h, ok := b.handles[addr]
	if !ok {
		return
	}
	_ = h.Close()
	delete(b.handles, addr)
}

func (b *Bus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	var errs []error
	for addr, h := range b.handles {
		err := h.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed closing 0x%02x: %w", addr, err))
		}
		delete(b.handles, addr)
	}
	return errors.Join(errs...)
}

func (b *Bus) get(addr uint16) (handle, error) {
	h, ok := b.handles[addr]
	if ok {
		return h, nil
	}

	if addr > 0x7f {
		return nil, fmt.Errorf("invalid 7 bit i2c address 0x%02x", addr)
	}

	h, err := b.open(uint8(addr), b.device)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s at 0x%02x: %w", b.device, addr, err)
	}
	b.handles[addr] = h
	return h, nil
}
