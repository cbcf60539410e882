// Package codec decodes inbound notification frames.
//
// The notification service sends JSON text frames shaped like
// {"lectures": [...]}. Decoder.Decode validates the frame with
// github.com/tidwall/gjson and returns the list as a Batch of raw JSON items;
// item schema is left to the caller (see Unmarshal).
//
// JSON of another shape and plain acknowledgement text produce no batch and
// no error. Non-JSON text and a batch field of the wrong type produce an
// error the caller logs and moves past.
package codec
