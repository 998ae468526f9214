package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/models"
	serial "go.bug.st/serial"
)

// Link is the robot side of the serial command channel. It yields one
// complete command at a time and acknowledges on request.
type Link struct {
	lock    sync.Mutex
	port    io.ReadWriteCloser
	framer  *Framer
	ack     string
	readBuf []byte
	pending []byte
	dropped int
}

// Open opens the serial device. The read timeout lets Next notice a
// cancelled context while the line is idle.
func Open(cfg config.LinkConfig) (*Link, error) {
	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("failed opening serial port %s - %w", cfg.Device, err)
	}

	err = port.SetReadTimeout(cfg.ReadTimeout)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed setting serial read timeout - %w", err)
	}
	log.Printf("command link open on %s at %d baud\n", cfg.Device, cfg.BaudRate)
	return NewLink(port, cfg.MaxLineLength, cfg.AckToken), nil
}

func NewLink(port io.ReadWriteCloser, maxLine int, ack string) *Link {
	return &Link{
		port:    port,
		framer:  NewFramer(maxLine),
		ack:     ack,
		readBuf: make([]byte, 64),
	}
}

// Next blocks until a valid command arrives. Invalid lines are dropped
// without a reply.
func (l *Link) Next(ctx context.Context) (models.Command, error) {
	for {
		for len(l.pending) > 0 {
			b := l.pending[0]
			l.pending = l.pending[1:]

			line, ok := l.framer.Feed(b)
			if !ok {
				continue
			}
			cmd, ok := l.accept(line)
			if ok {
				return cmd, nil
			}
		}

		if ctx.Err() != nil {
			return models.Command{}, ctx.Err()
		}

		n, err := l.port.Read(l.readBuf)
		if err != nil {
			return models.Command{}, fmt.Errorf("failed reading command link - %w", err)
		}
		l.pending = append(l.pending, l.readBuf[:n]...)
	}
}

func (l *Link) accept(line string) (models.Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.Command{}, false
	}

	cmd, err := ParseCommand(line)
	if err != nil {
		l.dropped++
		log.Printf("dropping command - %s\n", err)
		return cmd, false
	}

	cmd.Id = uuid.New()
	cmd.Received = time.Now()
	log.Printf("command received - id: %s rotation: %d duration: %dms\n", cmd.Id, cmd.Rotation, cmd.DurationMs)
	return cmd, true
}

// Ack writes the success token. It is only sent after a command has fully run.
func (l *Link) Ack() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	_, err := l.port.Write([]byte(l.ack + "\n"))
	if err != nil {
		return fmt.Errorf("failed writing ack - %w", err)
	}
	return nil
}

// Dropped counts lines rejected by the parser.
func (l *Link) Dropped() int {
	return l.dropped
}

func (l *Link) Overflows() int {
	return l.framer.Overflows()
}

func (l *Link) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.port.Close()
}
