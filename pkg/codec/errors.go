package codec

import "errors"

var (
	// ErrMalformedFrame is returned for frames that are neither JSON nor a known acknowledgement.
	ErrMalformedFrame = errors.New("codec.malformed_frame")

	// ErrUnexpectedShape is returned when the batch field exists but is not a list.
	ErrUnexpectedShape = errors.New("codec.unexpected_shape")
)

// IsDecodeFailure reports whether err is one of the per-frame decode errors.
func IsDecodeFailure(err error) bool {
	return errors.Is(err, ErrMalformedFrame) || errors.Is(err, ErrUnexpectedShape)
}
