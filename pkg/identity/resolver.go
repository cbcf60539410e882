package identity

// DefaultCookieName is the key the bootstrap middleware writes the anonymous key under.
const DefaultCookieName = "anonymous_id"

// Config holds resolver configuration.
type Config struct {
	CookieName string `env:"IDENTITY_ANON_COOKIE" envDefault:"anonymous_id"`
}

// Resolver picks the single identifier used to address a caller's stream.
type Resolver struct {
	lookup     Lookup
	cookieName string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCookieName overrides the key the anonymous identifier is read from.
func WithCookieName(name string) ResolverOption {
	return func(r *Resolver) {
		if name != "" {
			r.cookieName = name
		}
	}
}

// NewResolver creates a resolver reading anonymous keys from lookup.
// A nil lookup is valid and never yields an anonymous identifier.
func NewResolver(lookup Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{lookup: lookup, cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewResolverFromConfig creates a resolver using cfg.CookieName.
func NewResolverFromConfig(cfg Config, lookup Lookup, opts ...ResolverOption) *Resolver {
	return NewResolver(lookup, append([]ResolverOption{WithCookieName(cfg.CookieName)}, opts...)...)
}

// CookieName returns the key anonymous identifiers are read from.
func (r *Resolver) CookieName() string {
	return r.cookieName
}

// Resolve returns explicit when it is an authenticated identifier; otherwise
// the persisted anonymous key, if any. An explicit anonymous identifier is
// only used when the lookup has no key. ok is false when no source yields a
// value, which is a normal quiescent result rather than an error.
func (r *Resolver) Resolve(explicit Identifier) (Identifier, bool) {
	if explicit.IsAuthenticated() {
		return explicit, true
	}
	if r.lookup != nil {
		if key, found := r.lookup.Get(r.cookieName); found {
			if id := Anonymous(key); !id.IsZero() {
				return id, true
			}
		}
	}
	return explicit, !explicit.IsZero()
}

// WithLookup returns a copy of r reading from lookup. Server handlers use it
// to bind a shared resolver to the current request.
func (r *Resolver) WithLookup(lookup Lookup) *Resolver {
	clone := *r
	clone.lookup = lookup
	return &clone
}
