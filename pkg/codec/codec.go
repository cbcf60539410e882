package codec

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultField is the object key inbound batches are carried under.
const DefaultField = "lectures"

// KeepaliveFrame is the literal text frame sent to confirm liveness.
var KeepaliveFrame = []byte("ping")

// Notification is a single opaque item of a batch.
type Notification = json.RawMessage

// Batch is an ordered set of notifications. It is always replaced as a whole.
type Batch []Notification

// Len returns the number of notifications.
func (b Batch) Len() int {
	return len(b)
}

// Clone returns a deep copy of b, notification bytes included. The clone of
// a nil batch is empty, not nil.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for i, n := range b {
		out[i] = slices.Clone(n)
	}
	return out
}

// Decoder turns inbound text frames into batches.
type Decoder struct {
	field string
	acks  map[string]struct{}
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithField changes the object key holding the notifications list.
func WithField(name string) Option {
	return func(d *Decoder) {
		if name != "" {
			d.field = name
		}
	}
}

// WithAcknowledgements replaces the plain-text frames treated as
// acknowledgements. Matching is case-insensitive on the trimmed frame.
func WithAcknowledgements(literals ...string) Option {
	return func(d *Decoder) {
		d.acks = make(map[string]struct{}, len(literals))
		for _, l := range literals {
			d.acks[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
		}
	}
}

// NewDecoder creates a decoder for {"lectures": [...]} frames.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{field: DefaultField}
	WithAcknowledgements("ping", "pong", "ok", "ack")(d)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Field returns the object key the decoder extracts.
func (d *Decoder) Field() string {
	return d.field
}

// Decode inspects one frame.
//
//   - an object whose field holds an array: (batch, true, nil); the batch is
//     non-nil even when empty.
//   - valid JSON without the field, or acknowledgement text: (nil, false, nil).
//   - the field with any other shape: ErrUnexpectedShape.
//   - anything else: ErrMalformedFrame.
//
// Errors are decode failures for this frame only; they never imply the
// connection is broken.
func (d *Decoder) Decode(frame []byte) (Batch, bool, error) {
	if !gjson.ValidBytes(frame) {
		if _, ack := d.acks[strings.ToLower(strings.TrimSpace(string(frame)))]; ack {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}

	root := gjson.ParseBytes(frame)
	if !root.IsObject() {
		return nil, false, nil
	}

	list := root.Get(gjson.Escape(d.field))
	if !list.Exists() {
		return nil, false, nil
	}
	if !list.IsArray() {
		return nil, false, fmt.Errorf("%w: %q is %s, want array", ErrUnexpectedShape, d.field, list.Type)
	}

	items := list.Array()
	batch := make(Batch, 0, len(items))
	for _, item := range items {
		batch = append(batch, Notification(item.Raw))
	}
	return batch, true, nil
}

// Encode renders a batch the way the notification service sends it. Used by
// test servers and tooling.
func (d *Decoder) Encode(batch Batch) ([]byte, error) {
	if batch == nil {
		batch = Batch{}
	}
	return json.Marshal(map[string]Batch{d.field: batch})
}

// Unmarshal decodes every notification of b into T, for callers that know
// the item schema. The channel itself never does this.
func Unmarshal[T any](b Batch) ([]T, error) {
	out := make([]T, 0, len(b))
	for i, n := range b {
		var v T
		if err := json.Unmarshal(n, &v); err != nil {
			return nil, fmt.Errorf("notification %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
