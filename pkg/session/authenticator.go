package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator verifies credentials and returns the user ID they belong to.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (userID string, err error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, username, password string) (string, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, username, password string) (string, error) {
	return f(ctx, username, password)
}

// Credential is a stored login.
type Credential struct {
	UserID       string
	Username     string
	PasswordHash string
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// PasswordAuthenticator checks passwords against bcrypt hashes held in memory.
// Usernames are case-insensitive.
type PasswordAuthenticator struct {
	mu    sync.RWMutex
	users map[string]Credential
	dummy []byte
}

// NewPasswordAuthenticator creates an authenticator for creds.
func NewPasswordAuthenticator(creds ...Credential) (*PasswordAuthenticator, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("lecturefeed"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	a := &PasswordAuthenticator{
		users: make(map[string]Credential, len(creds)),
		dummy: dummy,
	}
	for _, c := range creds {
		if err := a.Add(c); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Add registers a credential.
func (a *PasswordAuthenticator) Add(c Credential) error {
	if c.UserID == "" {
		return ErrEmptyUserID
	}
	key := strings.ToLower(strings.TrimSpace(c.Username))
	if key == "" || c.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.users[key]; exists {
		return ErrDuplicateUser
	}
	a.users[key] = c
	return nil
}

// Authenticate returns the user ID for valid credentials and
// ErrInvalidCredentials otherwise. Unknown usernames still pay for one
// bcrypt comparison.
func (a *PasswordAuthenticator) Authenticate(_ context.Context, username, password string) (string, error) {
	a.mu.RLock()
	c, ok := a.users[strings.ToLower(strings.TrimSpace(username))]
	a.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(password))
		return "", ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", errors.Join(ErrInvalidCredentials, err)
	}
	return c.UserID, nil
}
