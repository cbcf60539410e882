package main

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/lecturefeed/pkg/billing"
	"github.com/dmitrymomot/lecturefeed/pkg/channel"
	"github.com/dmitrymomot/lecturefeed/pkg/cookie"
	"github.com/dmitrymomot/lecturefeed/pkg/httpserver"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/ratelimiter"
	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

// Session store backends selectable with SESSION_STORE.
const (
	storeMemory   = "memory"
	storeRedis    = "redis"
	storePostgres = "postgres"
)

type appConfig struct {
	Logger   logger.Config
	HTTP     httpserver.Config
	Cookie   cookie.Config
	Identity identity.Config
	Session  session.Config
	Channel  channel.Config
	Paddle   billing.PaddleConfig
	Login    ratelimiter.Config

	SessionStore      string `env:"SESSION_STORE" envDefault:"memory"`
	Users             string `env:"AUTH_USERS"`
	BillingSuccessURL string `env:"BILLING_SUCCESS_URL"`
}

// sessionConfig returns the session settings with the cookie Secure flag
// resolved: unless SESSION_SECURE is set, session cookies are Secure exactly
// in production.
func (c appConfig) sessionConfig() session.Config {
	sc := c.Session
	secure := sc.SecureOr(logger.IsProduction(c.Logger.Env))
	sc.Secure = &secure
	return sc
}

// parseUsers reads AUTH_USERS: comma-separated "user_id:username:bcrypt_hash"
// entries.
func parseUsers(raw string) ([]session.Credential, error) {
	var creds []session.Credential
	for entry := range strings.SplitSeq(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid AUTH_USERS entry %q: want user_id:username:hash", entry)
		}
		creds = append(creds, session.Credential{
			UserID:       parts[0],
			Username:     parts[1],
			PasswordHash: parts[2],
		})
	}
	return creds, nil
}
