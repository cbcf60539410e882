package feed_test

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
	"github.com/dmitrymomot/lecturefeed/pkg/feed"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/store"
)

// scriptedConn replies to each keepalive with the batch configured for its URL.
type scriptedConn struct {
	reply  []byte
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *scriptedConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.done:
		return nil, errors.New("closed")
	}
}

func (c *scriptedConn) WriteMessage(data []byte) error {
	if string(data) == "ping" && c.reply != nil {
		select {
		case c.frames <- c.reply:
		default:
		}
	}
	return nil
}

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

type dialLog struct {
	mu   sync.Mutex
	urls []string
}

func (l *dialLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.urls...)
}

func newFeed(t *testing.T, lookup identity.Lookup, replies map[string]string) (*feed.Feed, *dialLog) {
	t.Helper()

	log := &dialLog{}
	dialer := channel.DialerFunc(func(_ context.Context, url string) (channel.Conn, error) {
		log.mu.Lock()
		log.urls = append(log.urls, url)
		log.mu.Unlock()

		c := &scriptedConn{frames: make(chan []byte, 4), done: make(chan struct{})}
		for suffix, reply := range replies {
			if len(url) >= len(suffix) && url[len(url)-len(suffix):] == suffix {
				c.reply = []byte(reply)
			}
		}
		return c, nil
	})

	st := store.New()
	m, err := channel.New(st, channel.WithBaseURL("ws://notify.test"), channel.WithDialer(dialer))
	require.NoError(t, err)

	f, err := feed.New(identity.NewResolver(lookup), m, st)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f, log
}

func waitOpen(t *testing.T, f *feed.Feed) {
	t.Helper()
	require.Eventually(t, func() bool { return f.State() == channel.StateOpen },
		2*time.Second, 5*time.Millisecond)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	st := store.New()
	m, err := channel.New(st)
	require.NoError(t, err)
	r := identity.NewResolver(nil)

	_, err = feed.New(nil, m, st)
	assert.ErrorIs(t, err, feed.ErrNilResolver)
	_, err = feed.New(r, nil, st)
	assert.ErrorIs(t, err, feed.ErrNilManager)
	_, err = feed.New(r, m, nil)
	assert.ErrorIs(t, err, feed.ErrNilStore)
}

func TestFeed_Sync(t *testing.T) {
	t.Parallel()

	lookup := identity.MapLookup{identity.DefaultCookieName: "anon-1"}
	f, dials := newFeed(t, lookup, map[string]string{
		"/anon-1": `{"lectures":["welcome"]}`,
		"/42":     `{"lectures":["A","B"]}`,
	})
	ctx := context.Background()

	id, err := f.Sync(ctx, identity.Identifier{})
	require.NoError(t, err)
	assert.True(t, id.Equal(identity.Anonymous("anon-1")))
	waitOpen(t, f)
	require.Eventually(t, func() bool { return len(f.Notifications()) == 1 },
		2*time.Second, 5*time.Millisecond)

	id, err = f.Sync(ctx, identity.Authenticated(42))
	require.NoError(t, err)
	assert.True(t, id.IsAuthenticated())
	waitOpen(t, f)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(codec.Batch{codec.Notification(`"A"`), codec.Notification(`"B"`)}, f.Notifications())
	}, 2*time.Second, 5*time.Millisecond)

	_, err = f.Sync(ctx, identity.Authenticated(42))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ws://notify.test/notifications/ws/anon-1",
		"ws://notify.test/notifications/ws/42",
	}, dials.all())

	require.NoError(t, f.Ping())
	assert.True(t, f.Identifier().Equal(identity.Authenticated(42)))
}

func TestFeed_SyncWithoutIdentity(t *testing.T) {
	t.Parallel()

	f, dials := newFeed(t, identity.MapLookup{}, nil)

	id, err := f.Sync(context.Background(), identity.Identifier{})
	require.NoError(t, err)
	assert.True(t, id.IsZero())
	assert.Equal(t, channel.StateIdle, f.State())
	assert.Empty(t, dials.all())
	assert.Empty(t, f.Notifications())
	require.NoError(t, f.Ping())
}

func TestFeed_Logout(t *testing.T) {
	t.Parallel()

	f, _ := newFeed(t, identity.MapLookup{}, map[string]string{"/7": `{"lectures":["x"]}`})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := f.Watch(ctx)
	assert.Empty(t, <-updates)

	_, err := f.Sync(ctx, identity.Authenticated(7))
	require.NoError(t, err)
	waitOpen(t, f)

	select {
	case b := <-updates:
		assert.Equal(t, codec.Batch{codec.Notification(`"x"`)}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}

	_, err = f.Sync(ctx, identity.Identifier{})
	require.NoError(t, err)
	assert.Equal(t, channel.StateClosed, f.State())
	assert.Empty(t, f.Notifications())
}
