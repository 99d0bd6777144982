// Package codec turns raw response bytes into typed values.
//
// A Codec[V] handles one wire format. Envelope[V] layers the two-shape
// fallback on top: remote APIs sometimes wrap the payload in a single-field
// object ({"data": ...}) and sometimes return it bare, and callers must not
// need to know which in advance.
package codec

import "errors"

// ErrInvalidData is returned when no supported shape of the payload decodes.
var ErrInvalidData = errors.New("codec: invalid data")

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
