// Package session issues login sessions as HTTP-only cookies.
//
// An Issuer creates a Session for a verified user, persists it in a Store
// and writes a signed cookie that is HttpOnly, SameSite=Strict, Path=/ and
// lives for a week by default (Secure when configured). On later requests
// Authenticated turns that cookie into an authenticated identity.Identifier,
// which the notification channel uses as its address.
//
// Three stores are provided:
//
//   - MemoryStore keeps sessions in memory with periodic cleanup.
//   - RedisStore keeps them in Redis with native key expiry.
//   - PostgresStore keeps them in the sessions table; apply Migrations with
//     pg.Migrate first.
//
// LoginHandler and LogoutHandler expose the issuer over HTTP. Credentials are
// checked by an Authenticator; PasswordAuthenticator compares bcrypt hashes.
//
//	cookies, _ := cookie.New([]string{secret})
//	issuer, _ := session.NewIssuer(session.NewMemoryStore(5*time.Minute), cookies)
//	auth, _ := session.NewPasswordAuthenticator(session.Credential{
//		UserID: "42", Username: "alice", PasswordHash: hash,
//	})
//	r.Post("/auth/login", session.LoginHandler(auth, issuer, log).ServeHTTP)
package session
