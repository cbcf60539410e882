package channel

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/lecturefeed/pkg/identity"
)

var (
	ErrNoIdentifier   = errors.New("channel.no_identifier")
	ErrInvalidBaseURL = errors.New("channel.invalid_base_url")
	ErrNilStore       = errors.New("channel.nil_store")
	ErrNilDialer      = errors.New("channel.nil_dialer")
	ErrDialFailed     = errors.New("channel.dial_failed")
)

// Transport operations reported in TransportError.Op.
const (
	OpDial  = "dial"
	OpRead  = "read"
	OpWrite = "write"
)

// TransportError reports a connection failure of one channel instance.
// The instance that produced it is in StateErrored.
type TransportError struct {
	Identifier identity.Identifier
	Generation uint64
	Op         string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("channel %s (generation %d): %s: %v", e.Identifier, e.Generation, e.Op, e.Err)
}

// Unwrap exposes the underlying network error to errors.Is and errors.As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err carries a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
