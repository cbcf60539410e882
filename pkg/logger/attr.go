package logger

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Identifier records the channel identifier under the key "identifier".
// Accepts anything with a String method; nil yields an empty Attr.
func Identifier(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("identifier", id.String())
}

// IdentifierKind records whether the identifier is authenticated or anonymous.
func IdentifierKind(kind fmt.Stringer) slog.Attr {
	if kind == nil {
		return slog.Attr{}
	}
	return slog.String("identifier_kind", kind.String())
}

// Generation records the channel instance generation.
func Generation(gen uint64) slog.Attr {
	return slog.Uint64("generation", gen)
}

// State records a connection state name.
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Transition records a from/to state pair as a group.
func Transition(from, to string) slog.Attr {
	return Group("transition", slog.String("from", from), slog.String("to", to))
}

// FrameSize records the byte length of a wire frame.
func FrameSize(n int) slog.Attr {
	return slog.Int("frame_size", n)
}

// BatchSize records the number of notifications in a batch.
func BatchSize(n int) slog.Attr {
	return slog.Int("batch_size", n)
}

// URL records an endpoint under the key "url".
func URL(u string) slog.Attr {
	return slog.String("url", u)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
