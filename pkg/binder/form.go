package binder

import (
	"fmt"
	"net/http"
)

// Form binds an application/x-www-form-urlencoded body into v using `form`
// struct tags. Fields without a tag bind to their lowercased name.
func Form() Func {
	return func(r *http.Request, v any) error {
		mt, err := mediaType(r)
		if err != nil {
			return err
		}
		if mt != "application/x-www-form-urlencoded" {
			return fmt.Errorf("%w: got %s, expected application/x-www-form-urlencoded", ErrUnsupportedMediaType, mt)
		}

		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodySize)
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
		}

		if err := bindToStruct(v, "form", r.PostForm, ErrFailedToParseForm); err != nil {
			return err
		}
		trimStrings(v)
		return nil
	}
}
