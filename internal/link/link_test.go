package link

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort replays chunks on Read and then reports an idle line (0, nil)
// until closed.
type fakePort struct {
	lock    sync.Mutex
	chunks  [][]byte
	written bytes.Buffer
	closed  bool
	eof     bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.chunks) == 0 {
		if p.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(buf, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	if len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Write(buf []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.written.Write(buf)
}

func (p *fakePort) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) push(s string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.chunks = append(p.chunks, []byte(s))
}

func (p *fakePort) output() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.written.String()
}

func TestLinkNextSkipsInvalidLines(t *testing.T) {
	port := &fakePort{chunks: [][]byte{
		[]byte("abc\r\n<9"),
		[]byte("0,5s>\n45 2000\n"),
	}}
	l := NewLink(port, 64, "OK")

	cmd, err := l.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90, cmd.Rotation)
	assert.Equal(t, uint32(5000), cmd.DurationMs)
	assert.NotEqual(t, uuid.Nil, cmd.Id)
	assert.Equal(t, 1, l.Dropped())

	next, err := l.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45, next.Rotation)
	assert.Equal(t, uint32(2000), next.DurationMs)
	assert.NotEqual(t, cmd.Id, next.Id)

	assert.Empty(t, port.output(), "invalid lines get no reply")
}

func TestLinkNextOverflowDropsPartial(t *testing.T) {
	port := &fakePort{chunks: [][]byte{
		[]byte("1234567890123456"),
		[]byte("7,8\n"),
	}}
	l := NewLink(port, 8, "OK")

	cmd, err := l.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, cmd.Rotation)
	assert.Equal(t, uint32(8), cmd.DurationMs)
	assert.Equal(t, 2, l.Overflows())
}

func TestLinkNextHonorsContext(t *testing.T) {
	port := &fakePort{}
	l := NewLink(port, 64, "OK")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLinkNextReadError(t *testing.T) {
	port := &fakePort{}
	l := NewLink(port, 64, "OK")
	require.NoError(t, l.Close())

	_, err := l.Next(context.Background())
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestLinkAck(t *testing.T) {
	port := &fakePort{}
	l := NewLink(port, 64, "OK")

	require.NoError(t, l.Ack())
	assert.Equal(t, "OK\n", port.output())
}
