package session

import "errors"

var (
	ErrInvalidSession     = errors.New("session.invalid")
	ErrSessionExpired     = errors.New("session.expired")
	ErrSessionNotFound    = errors.New("session.not_found")
	ErrTokenGeneration    = errors.New("session.token_generation_failed")
	ErrNoStore            = errors.New("session.no_store")
	ErrNoCookieManager    = errors.New("session.no_cookie_manager")
	ErrEmptyUserID        = errors.New("session.empty_user_id")
	ErrInvalidCredentials = errors.New("session.invalid_credentials")
	ErrDuplicateUser      = errors.New("session.duplicate_user")
)
