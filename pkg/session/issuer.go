package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/lecturefeed/pkg/cookie"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
)

// CookieManager is the part of *cookie.Manager the Issuer uses.
type CookieManager interface {
	SetSigned(w http.ResponseWriter, name, value string, opts ...cookie.Option)
	GetSigned(r *http.Request, name string) (string, error)
	Delete(w http.ResponseWriter, name string)
}

// Issuer turns verified credentials into an HTTP-only session cookie and
// resolves that cookie back into an authenticated identifier.
type Issuer struct {
	store   Store
	cookies CookieManager
	name    string
	ttl     time.Duration
	secure  bool
	log     *slog.Logger
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) Option {
	return func(i *Issuer) {
		if name != "" {
			i.name = name
		}
	}
}

// WithTTL sets the session lifetime and cookie Max-Age.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithSecure marks the session cookie Secure.
func WithSecure(secure bool) Option {
	return func(i *Issuer) {
		i.secure = secure
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) {
		if l != nil {
			i.log = l
		}
	}
}

// NewIssuer creates an Issuer persisting sessions in store.
func NewIssuer(store Store, cookies CookieManager, opts ...Option) (*Issuer, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if cookies == nil {
		return nil, ErrNoCookieManager
	}

	cfg := DefaultConfig()
	i := &Issuer{
		store:   store,
		cookies: cookies,
		name:    cfg.CookieName,
		ttl:     cfg.TTL,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// CookieName returns the session cookie name.
func (i *Issuer) CookieName() string {
	return i.name
}

func (i *Issuer) cookieOptions() []cookie.Option {
	return []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteStrictMode),
		cookie.WithSecure(i.secure),
		cookie.WithTTL(i.ttl),
	}
}

// Issue creates a session for userID and writes its cookie to w.
func (i *Issuer) Issue(ctx context.Context, w http.ResponseWriter, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	s, err := NewSession(userID, i.ttl)
	if err != nil {
		return nil, err
	}
	if err := i.store.Create(ctx, s); err != nil {
		return nil, err
	}

	i.cookies.SetSigned(w, i.name, s.Token, i.cookieOptions()...)
	i.log.InfoContext(ctx, "session issued",
		logger.UserID(userID),
		slog.Time("expires_at", s.ExpiresAt),
	)
	return s, nil
}

// Session returns the live session named by the request cookie.
func (i *Issuer) Session(r *http.Request) (*Session, error) {
	token, err := i.cookies.GetSigned(r, i.name)
	if err != nil {
		if errors.Is(err, cookie.ErrCookieNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrInvalidSession, err)
	}
	return i.store.Get(r.Context(), token)
}

// Authenticated resolves the request's session into an authenticated
// identifier. Requests without a valid session yield the zero Identifier and
// the reason.
func (i *Issuer) Authenticated(r *http.Request) (identity.Identifier, error) {
	s, err := i.Session(r)
	if err != nil {
		return identity.Identifier{}, err
	}
	return identity.Authenticated(s.UserID), nil
}

// Revoke deletes the request's session and clears its cookie.
// Requests without a session only get the cookie cleared.
func (i *Issuer) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer i.cookies.Delete(w, i.name)

	token, err := i.cookies.GetSigned(r, i.name)
	if err != nil {
		return nil
	}
	if err := i.store.Delete(ctx, token); err != nil {
		return err
	}
	i.log.InfoContext(ctx, "session revoked")
	return nil
}

// RevokeAll deletes every session of userID.
func (i *Issuer) RevokeAll(ctx context.Context, userID string) error {
	return i.store.DeleteByUserID(ctx, userID)
}

// Middleware stores the request's session, if any, in the request context.
// It never rejects a request.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := i.Session(r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), s))
		case errors.Is(err, ErrSessionNotFound):
		case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrInvalidSession):
			i.cookies.Delete(w, i.name)
		default:
			i.log.ErrorContext(r.Context(), "failed to load session", logger.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a session with 401.
func (i *Issuer) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
