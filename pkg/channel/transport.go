package channel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Dialer opens transport connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is a message oriented, bidirectional connection.
// ReadMessage is called from a single goroutine; WriteMessage and Close may
// be called concurrently with it and with each other.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

const closeGracePeriod = time.Second

// WebsocketDialer dials the notification service over websocket.
type WebsocketDialer struct {
	dialer       websocket.Dialer
	header       http.Header
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// DialerOption configures a WebsocketDialer.
type DialerOption func(*WebsocketDialer)

// WithHandshakeTimeout bounds the opening handshake.
func WithHandshakeTimeout(d time.Duration) DialerOption {
	return func(w *WebsocketDialer) {
		w.dialer.HandshakeTimeout = d
	}
}

// WithReadTimeout closes connections that receive nothing for d. Zero disables it.
func WithReadTimeout(d time.Duration) DialerOption {
	return func(w *WebsocketDialer) {
		w.readTimeout = d
	}
}

// WithWriteTimeout bounds each outbound write. Zero disables it.
func WithWriteTimeout(d time.Duration) DialerOption {
	return func(w *WebsocketDialer) {
		w.writeTimeout = d
	}
}

// WithCookieJar sends cookies from jar with the handshake, the way a browser
// carries the session and anonymous key cookies.
func WithCookieJar(jar http.CookieJar) DialerOption {
	return func(w *WebsocketDialer) {
		w.dialer.Jar = jar
	}
}

// WithHeader adds a handshake request header.
func WithHeader(key, value string) DialerOption {
	return func(w *WebsocketDialer) {
		w.header.Add(key, value)
	}
}

// NewWebsocketDialer creates a dialer with gorilla/websocket defaults.
func NewWebsocketDialer(opts ...DialerOption) *WebsocketDialer {
	w := &WebsocketDialer{
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		header:       make(http.Header),
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dial performs the websocket handshake. Cancelling ctx aborts it.
func (w *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := w.dialer.DialContext(ctx, url, w.header.Clone())
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s: status %d: %v", ErrDialFailed, url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, url, err)
	}

	return &websocketConn{
		conn:         conn,
		readTimeout:  w.readTimeout,
		writeTimeout: w.writeTimeout,
	}, nil
}

type websocketConn struct {
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, err
		}
	}
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *websocketConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal closure frame and releases the connection.
func (c *websocketConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
