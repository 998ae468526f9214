package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	DefaultAckSlack = 5 * time.Second
	clientMaxLine   = 256
	clientPoll      = 100 * time.Millisecond
)

// Client is the host side: it sends one command and waits for the reply.
type Client struct {
	port    io.ReadWriter
	framer  *Framer
	slack   time.Duration
	poll    time.Duration
	readBuf []byte
	pending []byte
}

func NewClient(port io.ReadWriter) *Client {
	return &Client{
		port:    port,
		framer:  NewFramer(clientMaxLine),
		slack:   DefaultAckSlack,
		poll:    clientPoll,
		readBuf: make([]byte, 64),
	}
}

// Send writes the command and waits up to the move duration plus slack for
// a non empty reply line, which is returned as is.
func (c *Client) Send(ctx context.Context, rotation int, durationSeconds float64) (string, error) {
	line := FormatCommand(rotation, durationSeconds)
	_, err := c.port.Write([]byte(line))
	if err != nil {
		return "", fmt.Errorf("failed writing command - %w", err)
	}

	wait := time.Duration(durationSeconds*float64(time.Second)) + c.slack
	deadline := time.Now().Add(wait)
	for {
		for len(c.pending) > 0 {
			b := c.pending[0]
			c.pending = c.pending[1:]

			reply, ok := c.framer.Feed(b)
			if ok && strings.TrimSpace(reply) != "" {
				return strings.TrimSpace(reply), nil
			}
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: no reply after %s", ErrAckTimeout, wait)
		}

		n, err := c.port.Read(c.readBuf)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed reading reply - %w", err)
		}
		if n == 0 {
			time.Sleep(c.poll)
			continue
		}
		c.pending = append(c.pending, c.readBuf[:n]...)
	}
}
