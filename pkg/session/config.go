package session

import "time"

// Config holds session issuance settings.
//
// Secure is nil when SESSION_SECURE is unset; the application then decides
// from its environment with SecureOr.
type Config struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	Secure          *bool         `env:"SESSION_SECURE"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		CookieName:      "session",
		TTL:             7 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewFromConfig creates an Issuer from cfg. Options are applied after it.
func NewFromConfig(cfg Config, store Store, cookies CookieManager, opts ...Option) (*Issuer, error) {
	base := []Option{
		WithCookieName(cfg.CookieName),
		WithTTL(cfg.TTL),
		WithSecure(cfg.SecureOr(false)),
	}
	return NewIssuer(store, cookies, append(base, opts...)...)
}

// SecureOr returns the configured Secure flag, or fallback when unset.
func (c Config) SecureOr(fallback bool) bool {
	if c.Secure == nil {
		return fallback
	}
	return *c.Secure
}
