package identity

import (
	"strconv"
)

// Kind tells where an Identifier came from.
type Kind uint8

const (
	kindNone Kind = iota
	KindAuthenticated
	KindAnonymous
)

// String returns "authenticated", "anonymous" or "none".
func (k Kind) String() string {
	switch k {
	case KindAuthenticated:
		return "authenticated"
	case KindAnonymous:
		return "anonymous"
	default:
		return "none"
	}
}

// Identifier addresses one caller's notification stream. The zero value means
// no identifier is available.
type Identifier struct {
	kind  Kind
	value string
}

// Authenticated builds an identifier from a stable user key. Strings and all
// integer types are accepted; anything else, or an empty string, yields the
// zero Identifier.
func Authenticated(key any) Identifier {
	var v string
	switch k := key.(type) {
	case string:
		v = k
	case int:
		v = strconv.FormatInt(int64(k), 10)
	case int8:
		v = strconv.FormatInt(int64(k), 10)
	case int16:
		v = strconv.FormatInt(int64(k), 10)
	case int32:
		v = strconv.FormatInt(int64(k), 10)
	case int64:
		v = strconv.FormatInt(k, 10)
	case uint:
		v = strconv.FormatUint(uint64(k), 10)
	case uint8:
		v = strconv.FormatUint(uint64(k), 10)
	case uint16:
		v = strconv.FormatUint(uint64(k), 10)
	case uint32:
		v = strconv.FormatUint(uint64(k), 10)
	case uint64:
		v = strconv.FormatUint(k, 10)
	case interface{ String() string }:
		v = k.String()
	}
	if v == "" {
		return Identifier{}
	}
	return Identifier{kind: KindAuthenticated, value: v}
}

// Anonymous wraps a client-generated key. An empty key yields the zero Identifier.
func Anonymous(key string) Identifier {
	if key == "" {
		return Identifier{}
	}
	return Identifier{kind: KindAnonymous, value: key}
}

// Kind reports which kind of key id carries.
func (id Identifier) Kind() Kind {
	return id.kind
}

// IsZero reports whether id carries no key. The zero Identifier never
// opens a channel.
func (id Identifier) IsZero() bool {
	return id.kind == kindNone
}

// IsAuthenticated reports whether id names a signed-in user.
func (id Identifier) IsAuthenticated() bool {
	return id.kind == KindAuthenticated
}

// String returns the wire form used in the channel path.
func (id Identifier) String() string {
	return id.value
}

// Equal reports whether both identifiers have the same kind and value.
func (id Identifier) Equal(other Identifier) bool {
	return id == other
}
