package binder

import (
	"fmt"
	"mime"
	"net/http"
)

// Func binds a request into v.
type Func func(r *http.Request, v any) error

// MaxBodySize caps request bodies read by the binders.
const MaxBodySize = 1 << 20

func mediaType(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "", ErrMissingContentType
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
	}
	return mt, nil
}

// Bind picks JSON or Form by the request content type.
func Bind(r *http.Request, v any) error {
	mt, err := mediaType(r)
	if err != nil {
		return err
	}
	switch mt {
	case "application/json":
		return JSON()(r, v)
	case "application/x-www-form-urlencoded":
		return Form()(r, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mt)
	}
}
