package channel

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrymomot/lecturefeed/pkg/identity"
)

const endpointPath = "/notifications/ws/"

// normalizeBaseURL validates base and maps http(s) schemes onto ws(s).
func normalizeBaseURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}

	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// Endpoint returns the notification address for id under base.
func Endpoint(base string, id identity.Identifier) (string, error) {
	if id.IsZero() {
		return "", ErrNoIdentifier
	}
	b, err := normalizeBaseURL(base)
	if err != nil {
		return "", err
	}
	return b + endpointPath + url.PathEscape(id.String()), nil
}
