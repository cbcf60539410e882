package channel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/lecturefeed/pkg/codec"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/statemachine"
	"github.com/dmitrymomot/lecturefeed/pkg/store"
)

// ErrorHandler receives transport errors of the current instance.
type ErrorHandler func(id identity.Identifier, err error)

// StateHandler receives every state change of every instance.
type StateHandler func(id identity.Identifier, state State)

// Manager owns the notification channel of one client.
//
// At most one instance (connection attempt or live connection) exists at a
// time. Each instance gets a new generation number; events from a superseded
// generation are dropped, so frames of a previous identifier never reach the
// store after a switch.
type Manager struct {
	baseURL           string
	dialer            Dialer
	decoder           *codec.Decoder
	store             *store.Store
	keepaliveInterval time.Duration
	log               *slog.Logger
	onError           ErrorHandler
	onState           StateHandler

	mu         sync.Mutex
	generation uint64
	current    *instance
	bound      identity.Identifier
	deferred   []func()
}

type instance struct {
	id         identity.Identifier
	generation uint64
	url        string
	fsm        *statemachine.Machine[State, Event]
	ctx        context.Context
	cancel     context.CancelFunc
	conn       Conn
	err        error
}

func (i *instance) state() State {
	return i.fsm.Current()
}

// Option configures a Manager.
type Option func(*Manager)

// WithBaseURL sets the notification service base URL.
func WithBaseURL(base string) Option {
	return func(m *Manager) {
		m.baseURL = base
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		m.dialer = d
	}
}

// WithDecoder replaces the frame decoder.
func WithDecoder(d *codec.Decoder) Option {
	return func(m *Manager) {
		if d != nil {
			m.decoder = d
		}
	}
}

// WithKeepaliveInterval sends a keepalive every d while open. Zero disables
// the periodic keepalive; the one sent on open is always sent.
func WithKeepaliveInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.keepaliveInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithErrorHandler registers a transport error callback.
// Handlers run outside the manager lock and may call back into the Manager.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Manager) {
		m.onError = h
	}
}

// WithStateHandler registers a state change callback.
// Handlers run outside the manager lock and may call back into the Manager.
func WithStateHandler(h StateHandler) Option {
	return func(m *Manager) {
		m.onState = h
	}
}

// New creates a Manager writing decoded batches into st.
func New(st *store.Store, opts ...Option) (*Manager, error) {
	if st == nil {
		return nil, ErrNilStore
	}

	cfg := DefaultConfig()
	m := &Manager{
		baseURL: cfg.BaseURL,
		decoder: codec.NewDecoder(),
		store:   st,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.dialer == nil {
		m.dialer = NewWebsocketDialer(
			WithHandshakeTimeout(cfg.HandshakeTimeout),
			WithWriteTimeout(cfg.WriteTimeout),
		)
	}

	base, err := normalizeBaseURL(m.baseURL)
	if err != nil {
		return nil, err
	}
	m.baseURL = base
	m.log = m.log.With(logger.Component("channel"))

	return m, nil
}

// NewFromConfig creates a Manager from cfg. Options are applied after the
// config, so WithDialer overrides the configured websocket dialer.
func NewFromConfig(cfg Config, st *store.Store, opts ...Option) (*Manager, error) {
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithDecoder(codec.NewDecoder(codec.WithField(cfg.BatchField))),
		WithKeepaliveInterval(cfg.KeepaliveInterval),
		WithDialer(NewWebsocketDialer(
			WithHandshakeTimeout(cfg.HandshakeTimeout),
			WithReadTimeout(cfg.ReadTimeout),
			WithWriteTimeout(cfg.WriteTimeout),
		)),
	}
	return New(st, append(base, opts...)...)
}

// State returns the state of the current instance, StateIdle before the
// first Open.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return StateIdle
	}
	return m.current.state()
}

// Identifier returns the identifier of the current instance, or the zero
// Identifier once it has been closed.
func (m *Manager) Identifier() identity.Identifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.state() == StateClosed {
		return identity.Identifier{}
	}
	return m.current.id
}

// Generation returns the generation number of the latest instance.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Err returns the transport error of the current instance, if it failed.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.err
}

// Open starts a channel for id. It returns once the attempt has started;
// the connection completes in the background.
//
// Opening the identifier that is already connecting or open is a no-op.
// Any other previous instance is closed first, and the store is cleared
// when the identifier differs from the previously bound one. After a
// transport error, opening the same identifier again starts a new attempt.
//
// ctx supplies values for dialing and logging; the instance itself lives
// until Close or the next Open.
func (m *Manager) Open(ctx context.Context, id identity.Identifier) error {
	if id.IsZero() {
		return ErrNoIdentifier
	}
	url, err := Endpoint(m.baseURL, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.unlock()

	if prev := m.current; prev != nil {
		if prev.id.Equal(id) && prev.fsm.Is(StateConnecting, StateOpen) {
			return nil
		}
		m.release(prev)
		m.discard(prev)
	}

	if !m.bound.IsZero() && !m.bound.Equal(id) {
		m.store.Reset()
		m.log.DebugContext(ctx, "notification store cleared on identifier switch",
			logger.Identifier(m.bound))
	}
	m.bound = id

	m.generation++
	inst := &instance{
		id:         id,
		generation: m.generation,
		url:        url,
	}
	inst.ctx, inst.cancel = context.WithCancel(context.WithoutCancel(ctx))
	inst.fsm = newLifecycle(
		func() bool { return m.isCurrent(inst) },
		func() { m.shutdown(inst) },
		m.observe(inst),
	)
	m.current = inst

	m.fire(inst, EventDial)
	m.log.InfoContext(ctx, "opening notification channel",
		logger.Identifier(id),
		logger.IdentifierKind(id.Kind()),
		logger.Generation(inst.generation),
		logger.URL(url),
	)

	go m.run(inst)
	return nil
}

// Bind follows an identifier change: the zero Identifier closes the channel
// and clears the store, any other identifier is opened.
func (m *Manager) Bind(ctx context.Context, id identity.Identifier) error {
	if !id.IsZero() {
		return m.Open(ctx, id)
	}

	m.mu.Lock()
	defer m.unlock()

	if m.current != nil {
		m.release(m.current)
	}
	if !m.bound.IsZero() {
		m.store.Reset()
		m.bound = identity.Identifier{}
	}
	return nil
}

// SendKeepalive writes one keepalive frame. Outside StateOpen it does
// nothing and returns nil. A failed write moves the instance to
// StateErrored and is returned as a *TransportError.
func (m *Manager) SendKeepalive() error {
	m.mu.Lock()
	inst := m.current
	m.mu.Unlock()

	if inst == nil {
		return nil
	}
	return m.ping(inst)
}

// Close releases the current instance. It is safe to call in any state and
// any number of times. A connection attempt in progress is abandoned.
// The store keeps its contents.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.unlock()

	if m.current != nil {
		m.release(m.current)
	}
}

// unlock releases the mutex and then runs the work deferred while holding it.
func (m *Manager) unlock() {
	deferred := m.deferred
	m.deferred = nil
	m.mu.Unlock()

	for _, fn := range deferred {
		fn()
	}
}

func (m *Manager) later(fn func()) {
	m.deferred = append(m.deferred, fn)
}

func (m *Manager) isCurrent(inst *instance) bool {
	return m.current == inst && m.generation == inst.generation
}

// fire applies ev to inst and reports whether the state changed. Caller
// holds m.mu, which the lifecycle guard and teardown rely on.
func (m *Manager) fire(inst *instance, ev Event) bool {
	err := inst.fsm.Fire(inst.ctx, ev)
	switch {
	case err == nil:
		return true
	case statemachine.IsTransitionRejectedError(err):
		m.dropStale(inst, ev.Name(), err)
	default:
		m.log.ErrorContext(inst.ctx, "invalid channel transition",
			logger.Identifier(inst.id),
			logger.Generation(inst.generation),
			logger.State(inst.state().Name()),
			slog.String("event", ev.Name()),
			logger.Error(err),
		)
	}
	return false
}

func (m *Manager) observe(inst *instance) statemachine.Observer[State, Event] {
	return func(ctx context.Context, from, to State, _ Event) {
		m.log.DebugContext(ctx, "channel state changed",
			logger.Identifier(inst.id),
			logger.Generation(inst.generation),
			logger.Transition(from.Name(), to.Name()),
		)
		if h := m.onState; h != nil {
			id := inst.id
			m.later(func() { h(id, to) })
		}
	}
}

// release moves inst to StateClosed, closing its connection.
// Caller holds m.mu.
func (m *Manager) release(inst *instance) {
	if !inst.fsm.CanFire(inst.ctx, EventRelease) {
		return
	}
	m.fire(inst, EventRelease)
	if inst.fsm.Is(StateClosing) && m.fire(inst, EventReleased) {
		m.log.InfoContext(inst.ctx, "notification channel closed",
			logger.Identifier(inst.id),
			logger.Generation(inst.generation),
		)
	}
}

// discard returns a closed instance to idle before it is replaced.
func (m *Manager) discard(inst *instance) {
	if inst.fsm.CanFire(inst.ctx, EventReset) {
		m.fire(inst, EventReset)
	}
}

// shutdown cancels the dial and closes the connection outside the lock.
// It runs as the lifecycle teardown action.
func (m *Manager) shutdown(inst *instance) {
	inst.cancel()
	if conn := inst.conn; conn != nil {
		inst.conn = nil
		m.later(func() { _ = conn.Close() })
	}
}

// fail moves inst to StateErrored and reports err. Caller holds m.mu.
func (m *Manager) fail(inst *instance, op string, err error) *TransportError {
	terr := &TransportError{
		Identifier: inst.id,
		Generation: inst.generation,
		Op:         op,
		Err:        err,
	}
	inst.err = terr

	m.fire(inst, EventFail)

	m.log.ErrorContext(inst.ctx, "notification channel failed",
		logger.Identifier(inst.id),
		logger.Generation(inst.generation),
		slog.String("op", op),
		logger.Error(err),
	)
	if h := m.onError; h != nil {
		id := inst.id
		m.later(func() { h(id, terr) })
	}
	return terr
}

func (m *Manager) dropStale(inst *instance, what string, err error) {
	attrs := []any{
		logger.Identifier(inst.id),
		logger.Generation(inst.generation),
		slog.String("event", what),
	}
	if err != nil {
		attrs = append(attrs, logger.Error(err))
	}
	m.log.DebugContext(inst.ctx, "dropping event of superseded channel", attrs...)
}

// run dials and then reads frames until the connection ends.
func (m *Manager) run(inst *instance) {
	conn, err := m.dialer.Dial(inst.ctx, inst.url)

	m.mu.Lock()
	if !inst.fsm.Is(StateConnecting) {
		m.dropStale(inst, "dial result", err)
		if conn != nil {
			m.later(func() { _ = conn.Close() })
		}
		m.unlock()
		return
	}
	if err != nil {
		if m.isCurrent(inst) {
			m.fail(inst, OpDial, err)
		} else {
			m.dropStale(inst, "dial result", err)
		}
		m.unlock()
		return
	}
	// The lifecycle guard rejects the result of a superseded generation.
	if !m.fire(inst, EventConnected) {
		m.later(func() { _ = conn.Close() })
		m.unlock()
		return
	}
	inst.conn = conn
	m.log.InfoContext(inst.ctx, "notification channel open",
		logger.Identifier(inst.id),
		logger.Generation(inst.generation),
	)
	m.unlock()

	if err := m.ping(inst); err != nil {
		return
	}
	if m.keepaliveInterval > 0 {
		go m.keepalive(inst)
	}

	m.read(inst, conn)
}

func (m *Manager) read(inst *instance, conn Conn) {
	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			if m.isCurrent(inst) && inst.state() == StateOpen {
				m.fail(inst, OpRead, err)
			}
			m.unlock()
			return
		}
		m.receive(inst, frame)
	}
}

// receive decodes one frame and, if inst is still current, stores the batch.
func (m *Manager) receive(inst *instance, frame []byte) {
	batch, ok, err := m.decoder.Decode(frame)

	m.mu.Lock()
	defer m.unlock()

	if !m.isCurrent(inst) || inst.state() != StateOpen {
		m.dropStale(inst, "frame", nil)
		return
	}
	if err != nil {
		m.log.WarnContext(inst.ctx, "ignoring undecodable notification frame",
			logger.Identifier(inst.id),
			logger.FrameSize(len(frame)),
			logger.Error(err),
		)
		return
	}
	if !ok {
		return
	}

	m.store.Replace(batch)
	m.log.DebugContext(inst.ctx, "notifications replaced",
		logger.Identifier(inst.id),
		logger.Generation(inst.generation),
		logger.BatchSize(batch.Len()),
	)
}

// ping writes a keepalive if inst is the open, current instance.
func (m *Manager) ping(inst *instance) error {
	m.mu.Lock()
	if !m.isCurrent(inst) || inst.state() != StateOpen || inst.conn == nil {
		m.mu.Unlock()
		return nil
	}
	conn := inst.conn
	m.mu.Unlock()

	err := conn.WriteMessage(codec.KeepaliveFrame)
	if err == nil {
		return nil
	}

	m.mu.Lock()
	defer m.unlock()
	if !m.isCurrent(inst) || inst.state() != StateOpen {
		return nil
	}
	return m.fail(inst, OpWrite, err)
}

func (m *Manager) keepalive(inst *instance) {
	ticker := time.NewTicker(m.keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-inst.ctx.Done():
			return
		case <-ticker.C:
			if err := m.ping(inst); err != nil {
				return
			}
		}
	}
}
