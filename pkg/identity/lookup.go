package identity

import (
	"net/http"

	"github.com/dmitrymomot/lecturefeed/pkg/cookie"
)

// Lookup is a read-only key/value source, typically the caller's cookies.
type Lookup interface {
	Get(key string) (string, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(key string) (string, bool)

func (f LookupFunc) Get(key string) (string, bool) {
	return f(key)
}

// MapLookup serves values from a map. Handy for tests and for clients that
// keep the anonymous key in their own config.
type MapLookup map[string]string

func (m MapLookup) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok && v != ""
}

// RequestLookup reads plain cookie values from an incoming request.
func RequestLookup(r *http.Request) Lookup {
	return LookupFunc(func(key string) (string, bool) {
		c, err := r.Cookie(key)
		if err != nil || c.Value == "" {
			return "", false
		}
		return c.Value, true
	})
}

// SignedRequestLookup reads cookies signed by m. Cookies with a bad signature
// are treated as absent.
func SignedRequestLookup(m *cookie.Manager, r *http.Request) Lookup {
	return LookupFunc(func(key string) (string, bool) {
		v, err := m.GetSigned(r, key)
		if err != nil || v == "" {
			return "", false
		}
		return v, true
	})
}
