package channel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lecturefeed/pkg/channel"
	"github.com/dmitrymomot/lecturefeed/pkg/codec"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/store"
)

type recorder struct {
	mu     sync.Mutex
	errs   []error
	states []channel.State
}

func (r *recorder) onError(_ identity.Identifier, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) onState(_ identity.Identifier, s channel.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) seen() []channel.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]channel.State(nil), r.states...)
}

type harness struct {
	m      *channel.Manager
	store  *store.Store
	dialer *fakeDialer
	rec    *recorder
}

func newHarness(t *testing.T, opts ...channel.Option) *harness {
	t.Helper()

	h := &harness{
		store:  store.New(),
		dialer: newFakeDialer(),
		rec:    &recorder{},
	}
	base := []channel.Option{
		channel.WithBaseURL("ws://notify.test"),
		channel.WithDialer(h.dialer),
		channel.WithErrorHandler(h.rec.onError),
		channel.WithStateHandler(h.rec.onState),
	}
	m, err := channel.New(h.store, append(base, opts...)...)
	require.NoError(t, err)
	h.m = m
	t.Cleanup(m.Close)
	return h
}

// open opens id and completes the dial with a fresh connection.
func (h *harness) open(t *testing.T, id identity.Identifier) *fakeConn {
	t.Helper()
	require.NoError(t, h.m.Open(context.Background(), id))
	conn := newFakeConn()
	h.dialer.next(t).accept(conn)
	waitState(t, h.m, channel.StateOpen)
	return conn
}

func waitBatch(t *testing.T, s *store.Store, want codec.Batch) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, s.Current())
	}, 2*time.Second, 5*time.Millisecond, "store holds %v", s.Current())
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := channel.New(nil)
	require.ErrorIs(t, err, channel.ErrNilStore)

	_, err = channel.New(store.New(), channel.WithBaseURL("ftp://example.com"))
	require.ErrorIs(t, err, channel.ErrInvalidBaseURL)

	m, err := channel.New(store.New())
	require.NoError(t, err)
	assert.Equal(t, channel.StateIdle, m.State())
	assert.True(t, m.Identifier().IsZero())
	assert.Zero(t, m.Generation())
	assert.NoError(t, m.Err())
}

func TestManager_OpenRequiresIdentifier(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.m.Open(context.Background(), identity.Identifier{})
	require.ErrorIs(t, err, channel.ErrNoIdentifier)
	assert.Equal(t, channel.StateIdle, h.m.State())
	h.dialer.assertNoDial(t)
}

func TestManager_OpenLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := identity.Authenticated(42)

	require.NoError(t, h.m.Open(context.Background(), id))
	assert.Equal(t, channel.StateConnecting, h.m.State())
	assert.Equal(t, uint64(1), h.m.Generation())
	assert.True(t, h.m.Identifier().Equal(id))

	dial := h.dialer.next(t)
	assert.Equal(t, "ws://notify.test/notifications/ws/42", dial.url)

	conn := newFakeConn()
	dial.accept(conn)
	waitState(t, h.m, channel.StateOpen)

	require.Eventually(t, func() bool { return len(conn.written()) == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"ping"}, conn.written())

	h.m.Close()
	assert.Equal(t, channel.StateClosed, h.m.State())
	assert.True(t, h.m.Identifier().IsZero())
	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return len(h.rec.seen()) == 4 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, []channel.State{
		channel.StateConnecting,
		channel.StateOpen,
		channel.StateClosing,
		channel.StateClosed,
	}, h.rec.seen())
	assert.Empty(t, h.rec.errors())
}

func TestManager_AnonymousEndpointIsEscaped(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.m.Open(context.Background(), identity.Anonymous("a b/c")))
	assert.Equal(t, "ws://notify.test/notifications/ws/a%20b%2Fc", h.dialer.next(t).url)
}

func TestManager_Frames(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	conn := h.open(t, identity.Authenticated(42))

	conn.push(`{"lectures":[]}`)
	require.Eventually(t, func() bool { return h.store.Version() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Empty(t, h.store.Current())

	conn.push(`{"lectures":["A",{"id":1}]}`)
	waitBatch(t, h.store, codec.Batch{codec.Notification(`"A"`), codec.Notification(`{"id":1}`)})

	conn.push("not json")
	conn.push(`{"foo":"bar"}`)
	conn.push("pong")
	conn.push(`{"lectures":5}`)
	conn.push(`{"lectures":["B"]}`)
	waitBatch(t, h.store, codec.Batch{codec.Notification(`"B"`)})

	assert.Equal(t, uint64(3), h.store.Version())
	assert.Equal(t, channel.StateOpen, h.m.State())
	assert.Empty(t, h.rec.errors())
}

func TestManager_SendKeepalive(t *testing.T) {
	t.Parallel()

	t.Run("no-op when idle", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, h.m.SendKeepalive())
		assert.Equal(t, channel.StateIdle, h.m.State())
		h.dialer.assertNoDial(t)
	})

	t.Run("no-op while connecting and after close", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, h.m.Open(context.Background(), identity.Anonymous("k")))
		dial := h.dialer.next(t)
		require.NoError(t, h.m.SendKeepalive())

		h.m.Close()
		require.NoError(t, h.m.SendKeepalive())
		assert.Equal(t, channel.StateClosed, h.m.State())
		assert.ErrorIs(t, dial.ctx.Err(), context.Canceled)
	})

	t.Run("writes ping when open", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		conn := h.open(t, identity.Authenticated(7))
		require.Eventually(t, func() bool { return len(conn.written()) == 1 },
			time.Second, 5*time.Millisecond)

		require.NoError(t, h.m.SendKeepalive())
		assert.Equal(t, []string{"ping", "ping"}, conn.written())
	})

	t.Run("write failure is a transport error", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		conn := h.open(t, identity.Authenticated(7))
		require.Eventually(t, func() bool { return len(conn.written()) == 1 },
			time.Second, 5*time.Millisecond)

		boom := errors.New("broken pipe")
		conn.failWrites(boom)

		err := h.m.SendKeepalive()
		require.ErrorIs(t, err, boom)

		var te *channel.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, channel.OpWrite, te.Op)
		assert.Equal(t, uint64(1), te.Generation)
		assert.True(t, te.Identifier.Equal(identity.Authenticated(7)))

		assert.Equal(t, channel.StateErrored, h.m.State())
		assert.ErrorIs(t, h.m.Err(), boom)
		require.Eventually(t, func() bool { return len(h.rec.errors()) == 1 },
			time.Second, 5*time.Millisecond)
		assert.True(t, conn.isClosed())
	})
}

func TestManager_PeriodicKeepalive(t *testing.T) {
	t.Parallel()

	h := newHarness(t, channel.WithKeepaliveInterval(10*time.Millisecond))
	conn := h.open(t, identity.Authenticated(1))

	require.Eventually(t, func() bool { return len(conn.written()) >= 3 },
		2*time.Second, 5*time.Millisecond)

	h.m.Close()
	n := len(conn.written())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, len(conn.written()))
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.m.Close()
	assert.Equal(t, channel.StateIdle, h.m.State())

	conn := h.open(t, identity.Authenticated(42))
	h.m.Close()
	h.m.Close()

	assert.Equal(t, channel.StateClosed, h.m.State())
	assert.True(t, conn.isClosed())
	assert.Empty(t, h.rec.errors())
}

func TestManager_CloseWhileConnecting(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.m.Open(context.Background(), identity.Authenticated(42)))
	dial := h.dialer.next(t)

	h.m.Close()
	assert.Equal(t, channel.StateClosed, h.m.State())

	select {
	case <-dial.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("dial context was not cancelled")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, channel.StateClosed, h.m.State())
	assert.Empty(t, h.rec.errors())
}

func TestManager_LateDialIsClosed(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.dialer.ignoreCancel = true

	require.NoError(t, h.m.Open(context.Background(), identity.Authenticated(42)))
	first := h.dialer.next(t)

	require.NoError(t, h.m.Open(context.Background(), identity.Authenticated(43)))
	second := h.dialer.next(t)

	late := newFakeConn()
	first.accept(late)
	assert.Eventually(t, late.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, channel.StateConnecting, h.m.State())

	current := newFakeConn()
	second.accept(current)
	waitState(t, h.m, channel.StateOpen)
	assert.True(t, h.m.Identifier().Equal(identity.Authenticated(43)))
	assert.False(t, current.isClosed())
}

func TestManager_StaleFramesAreDropped(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	require.NoError(t, h.m.Open(context.Background(), identity.Authenticated(42)))
	old := newFakeConn()
	old.sticky = true
	h.dialer.next(t).accept(old)
	waitState(t, h.m, channel.StateOpen)

	old.push(`{"lectures":["A"]}`)
	waitBatch(t, h.store, codec.Batch{codec.Notification(`"A"`)})
	require.Eventually(t, func() bool { return old.readCount() >= 2 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, h.m.Open(context.Background(), identity.Authenticated(43)))
	assert.Empty(t, h.store.Current(), "store must be cleared on identifier switch")
	assert.True(t, old.isClosed())

	reads := old.readCount()
	old.push(`{"lectures":["B"]}`)
	require.Eventually(t, func() bool { return old.readCount() > reads },
		time.Second, 5*time.Millisecond)

	next := newFakeConn()
	h.dialer.next(t).accept(next)
	waitState(t, h.m, channel.StateOpen)

	next.push(`{"lectures":["C"]}`)
	waitBatch(t, h.store, codec.Batch{codec.Notification(`"C"`)})

	old.fail(errors.New("late failure"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, channel.StateOpen, h.m.State())
	assert.Empty(t, h.rec.errors())
}

func TestManager_SameIdentifierIsNoop(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := identity.Anonymous("abc")

	conn := h.open(t, id)
	require.NoError(t, h.m.Open(context.Background(), id))
	require.NoError(t, h.m.Bind(context.Background(), identity.Anonymous("abc")))

	h.dialer.assertNoDial(t)
	assert.Equal(t, uint64(1), h.m.Generation())
	assert.False(t, conn.isClosed())
}

func TestManager_TransportErrorIsTerminal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	id := identity.Authenticated(42)
	conn := h.open(t, id)

	conn.push(`{"lectures":["A"]}`)
	waitBatch(t, h.store, codec.Batch{codec.Notification(`"A"`)})

	conn.fail(errors.New("connection reset"))
	waitState(t, h.m, channel.StateErrored)

	require.Eventually(t, func() bool { return len(h.rec.errors()) == 1 },
		time.Second, 5*time.Millisecond)
	err := h.rec.errors()[0]
	assert.True(t, channel.IsTransportError(err))
	var te *channel.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, channel.OpRead, te.Op)
	assert.Same(t, te, h.m.Err())

	h.dialer.assertNoDial(t)
	require.NoError(t, h.m.SendKeepalive())

	require.NoError(t, h.m.Open(context.Background(), id))
	assert.Equal(t, uint64(2), h.m.Generation())
	assert.Equal(t, codec.Batch{codec.Notification(`"A"`)}, h.store.Current(), "same identifier keeps data")

	h.dialer.next(t).accept(newFakeConn())
	waitState(t, h.m, channel.StateOpen)
	assert.NoError(t, h.m.Err())
}

func TestManager_DialFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.m.Open(context.Background(), identity.Authenticated(9)))

	refused := errors.New("connection refused")
	h.dialer.next(t).reject(refused)
	waitState(t, h.m, channel.StateErrored)

	var te *channel.TransportError
	require.ErrorAs(t, h.m.Err(), &te)
	assert.Equal(t, channel.OpDial, te.Op)
	assert.ErrorIs(t, te, refused)

	h.m.Close()
	assert.Equal(t, channel.StateClosed, h.m.State())
}

func TestManager_BindNoneClosesAndClears(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	conn := h.open(t, identity.Authenticated(42))
	conn.push(`{"lectures":["A"]}`)
	waitBatch(t, h.store, codec.Batch{codec.Notification(`"A"`)})

	require.NoError(t, h.m.Bind(context.Background(), identity.Identifier{}))
	assert.Equal(t, channel.StateClosed, h.m.State())
	assert.Empty(t, h.store.Current())
	assert.True(t, conn.isClosed())

	require.NoError(t, h.m.Bind(context.Background(), identity.Identifier{}))
	assert.Equal(t, channel.StateClosed, h.m.State())
}

func TestManager_AtMostOneInstance(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	var conns []*fakeConn
	ids := []identity.Identifier{
		identity.Authenticated(1),
		identity.Anonymous("x"),
		identity.Authenticated(2),
		identity.Authenticated(1),
	}
	for _, id := range ids {
		conns = append(conns, h.open(t, id))

		live := 0
		for _, c := range conns {
			if !c.isClosed() {
				live++
			}
		}
		assert.Equal(t, 1, live)
	}
	assert.Equal(t, uint64(len(ids)), h.m.Generation())
}

func TestManager_HandlersMayReenter(t *testing.T) {
	t.Parallel()

	st := store.New()
	dialer := newFakeDialer()

	var m *channel.Manager
	reentered := make(chan channel.State, 8)
	m, err := channel.New(st,
		channel.WithBaseURL("ws://notify.test"),
		channel.WithDialer(dialer),
		channel.WithStateHandler(func(_ identity.Identifier, _ channel.State) {
			reentered <- m.State()
		}),
	)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Open(context.Background(), identity.Authenticated(5)))
	select {
	case s := <-reentered:
		assert.Equal(t, channel.StateConnecting, s)
	case <-time.After(time.Second):
		t.Fatal("state handler not called")
	}
}
