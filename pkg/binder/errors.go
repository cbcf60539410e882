package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("binder.unsupported_media_type")
	ErrFailedToParseJSON    = errors.New("binder.invalid_json")
	ErrFailedToParseForm    = errors.New("binder.invalid_form")
	ErrMissingContentType   = errors.New("binder.missing_content_type")
	ErrBodyTooLarge         = errors.New("binder.body_too_large")
)

// IsBindError reports whether err came from a binder.
func IsBindError(err error) bool {
	return errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrFailedToParseJSON) ||
		errors.Is(err, ErrFailedToParseForm) ||
		errors.Is(err, ErrMissingContentType) ||
		errors.Is(err, ErrBodyTooLarge)
}
