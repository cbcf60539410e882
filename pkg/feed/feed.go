package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/lecturefeed/pkg/channel"
	"github.com/dmitrymomot/lecturefeed/pkg/codec"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/store"
)

var (
	ErrNilResolver = errors.New("feed.nil_resolver")
	ErrNilManager  = errors.New("feed.nil_manager")
	ErrNilStore    = errors.New("feed.nil_store")
)

// Feed ties identity resolution to the notification channel for one client
// session: every Sync resolves the current identifier and rebinds the
// channel when it changed.
type Feed struct {
	resolver *identity.Resolver
	manager  *channel.Manager
	store    *store.Store
	log      *slog.Logger
}

// Option configures a Feed.
type Option func(*Feed)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.log = l
		}
	}
}

// New creates a Feed. The manager must write into st.
func New(resolver *identity.Resolver, manager *channel.Manager, st *store.Store, opts ...Option) (*Feed, error) {
	switch {
	case resolver == nil:
		return nil, ErrNilResolver
	case manager == nil:
		return nil, ErrNilManager
	case st == nil:
		return nil, ErrNilStore
	}

	f := &Feed{
		resolver: resolver,
		manager:  manager,
		store:    st,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With(logger.Component("feed"))
	return f, nil
}

// Sync resolves the identifier from explicit and the anonymous key lookup
// and binds the channel to it. When nothing resolves, the channel is closed
// and the notifications cleared. Calling Sync again with the same identifier
// after a transport error reopens the channel.
func (f *Feed) Sync(ctx context.Context, explicit identity.Identifier) (identity.Identifier, error) {
	id, ok := f.resolver.Resolve(explicit)
	if !ok {
		id = identity.Identifier{}
	}

	if prev := f.manager.Identifier(); !prev.Equal(id) {
		f.log.DebugContext(ctx, "identifier changed",
			logger.Identifier(prev),
			slog.String("next", id.String()),
			logger.IdentifierKind(id.Kind()),
		)
	}

	if err := f.manager.Bind(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

// Notifications returns the latest batch.
func (f *Feed) Notifications() codec.Batch {
	return f.store.Current()
}

// Watch follows batch replacements until ctx is done.
func (f *Feed) Watch(ctx context.Context) <-chan codec.Batch {
	return f.store.Watch(ctx)
}

// Ping sends a keepalive when the channel is open.
func (f *Feed) Ping() error {
	return f.manager.SendKeepalive()
}

// State returns the channel state.
func (f *Feed) State() channel.State {
	return f.manager.State()
}

// Identifier returns the identifier the channel is bound to.
func (f *Feed) Identifier() identity.Identifier {
	return f.manager.Identifier()
}

// Close releases the channel. The last batch stays readable.
func (f *Feed) Close() {
	f.manager.Close()
}
