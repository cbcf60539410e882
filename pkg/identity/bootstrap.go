package identity

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/lecturefeed/pkg/cookie"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
)

type anonymousKeyCtx struct{}

// anonymousKeyTTL keeps the anonymous key for roughly a year.
const anonymousKeyTTL = 365 * 24 * time.Hour

// Bootstrap returns middleware that guarantees every request carries an
// anonymous key. A missing or tampered key is replaced with a new UUIDv4,
// written as a signed cookie and exposed through FromContext so the same
// request can resolve it before the browser round-trips the cookie.
func Bootstrap(cookies *cookie.Manager, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if log == nil {
		log = logger.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := cookies.GetSigned(r, cookieName)
			if err != nil || key == "" {
				key = uuid.NewString()
				cookies.SetSigned(w, cookieName, key, cookie.WithTTL(anonymousKeyTTL))
				log.DebugContext(r.Context(), "issued anonymous key",
					logger.Component("identity"),
					logger.Error(err),
				)
			}
			ctx := context.WithValue(r.Context(), anonymousKeyCtx{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the anonymous key stored by Bootstrap.
func FromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(anonymousKeyCtx{}).(string)
	return key, ok && key != ""
}

// LogExtractor adds the anonymous identifier stored by Bootstrap to records
// logged with a request context. Pass it to logger.WithContextExtractors.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	key, ok := FromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.Identifier(Anonymous(key)), true
}

// ContextLookup serves the bootstrap key from ctx under cookieName and falls
// back to next for every other key or when the context holds none.
func ContextLookup(ctx context.Context, cookieName string, next Lookup) Lookup {
	return LookupFunc(func(key string) (string, bool) {
		if key == cookieName {
			if v, ok := FromContext(ctx); ok {
				return v, true
			}
		}
		if next == nil {
			return "", false
		}
		return next.Get(key)
	})
}
