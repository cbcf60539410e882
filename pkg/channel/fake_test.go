package channel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lecturefeed/pkg/channel"
)

var errConnClosed = errors.New("fake: connection closed")

// fakeConn delivers frames pushed by the test. Reads keep working after
// Close when sticky is set, which lets a test feed frames to a superseded
// instance.
type fakeConn struct {
	frames   chan []byte
	failures chan error
	closed   chan struct{}
	sticky   bool

	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	reads    int
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames:   make(chan []byte, 16),
		failures: make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()

	if c.sticky {
		select {
		case f := <-c.frames:
			return f, nil
		case err := <-c.failures:
			return nil, err
		}
	}

	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.failures:
		return nil, err
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(frame string) {
	c.frames <- []byte(frame)
}

func (c *fakeConn) fail(err error) {
	c.failures <- err
}

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *fakeConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.writes))
	for _, w := range c.writes {
		out = append(out, string(w))
	}
	return out
}

type dialResult struct {
	conn channel.Conn
	err  error
}

// pendingDial is one Dial call waiting for the test to answer it.
type pendingDial struct {
	ctx    context.Context
	url    string
	result chan dialResult
}

func (p *pendingDial) accept(c *fakeConn) {
	p.result <- dialResult{conn: c}
}

func (p *pendingDial) reject(err error) {
	p.result <- dialResult{err: err}
}

// fakeDialer hands every Dial call to the test through dials. Unless
// ignoreCancel is set, a cancelled dial context ends the call.
type fakeDialer struct {
	dials        chan *pendingDial
	ignoreCancel bool
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dials: make(chan *pendingDial, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (channel.Conn, error) {
	p := &pendingDial{ctx: ctx, url: url, result: make(chan dialResult, 1)}
	d.dials <- p

	if d.ignoreCancel {
		r := <-p.result
		return r.conn, r.err
	}
	select {
	case r := <-p.result:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *fakeDialer) next(t *testing.T) *pendingDial {
	t.Helper()
	select {
	case p := <-d.dials:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial")
		return nil
	}
}

func (d *fakeDialer) assertNoDial(t *testing.T) {
	t.Helper()
	select {
	case p := <-d.dials:
		t.Fatalf("unexpected dial to %s", p.url)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitState(t *testing.T, m *channel.Manager, want channel.State) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State() == want },
		2*time.Second, 5*time.Millisecond, "state %s, want %s", m.State(), want)
}
