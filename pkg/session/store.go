package session

import "context"

// Store persists sessions by token.
type Store interface {
	// Create saves a new session. Tokens are unique.
	Create(ctx context.Context, s *Session) error

	// Get returns the session for token, ErrSessionNotFound if there is none
	// and ErrSessionExpired if it has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUserID removes every session of a user.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired removes expired sessions.
	DeleteExpired(ctx context.Context) error
}
