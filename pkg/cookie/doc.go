// Package cookie writes and reads HTTP cookies with shared defaults and
// optional HMAC-SHA256 signatures.
//
// A Manager is created with one or more secrets (at least 32 characters
// each). The first secret signs; every secret is tried on verification so a
// key can be rotated without invalidating live cookies:
//
//	m, err := cookie.New([]string{newSecret, oldSecret}, cookie.WithSecure(true))
//	m.SetSigned(w, "anonymous_id", id)
//	id, err := m.GetSigned(r, "anonymous_id")
//
// Defaults are Path "/", HttpOnly and SameSite=Lax; per-call Options override
// them without mutating the manager.
package cookie
