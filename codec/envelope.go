package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultEnvelopeField is the wrapping field used by GraphQL-style responses.
const DefaultEnvelopeField = "data"

// Unwrapper extracts a single top-level field from an encoded object without
// decoding the field's value. ok is false when b is not an object, the field
// is absent, or the field is null.
type Unwrapper interface {
	Unwrap(b []byte, field string) (inner []byte, ok bool)
}

// Envelope decodes either shape of a payload: first the enveloped shape, an
// object whose Field wraps the value, then the flat shape, the bytes parsed
// directly as V. The first shape that parses wins.
type Envelope[V any] struct {
	Field  string // "" => DefaultEnvelopeField
	Unwrap Unwrapper
	Inner  Codec[V]
}

// NewJSONEnvelope decodes {"data": V} or V as JSON.
func NewJSONEnvelope[V any]() Envelope[V] {
	return Envelope[V]{Unwrap: JSONField{}, Inner: JSON[V]{}}
}

// NewCBOREnvelope decodes {"data": V} or V as CBOR.
func NewCBOREnvelope[V any]() Envelope[V] {
	return Envelope[V]{Unwrap: CBORField{}, Inner: MustCBOR[V](false)}
}

// NewMsgpackEnvelope decodes {"data": V} or V as msgpack.
func NewMsgpackEnvelope[V any]() Envelope[V] {
	return Envelope[V]{Unwrap: MsgpackField{}, Inner: Msgpack[V]{}}
}

// Encode writes the flat shape.
func (e Envelope[V]) Encode(v V) ([]byte, error) { return e.Inner.Encode(v) }

func (e Envelope[V]) Decode(b []byte) (V, error) {
	field := e.Field
	if field == "" {
		field = DefaultEnvelopeField
	}
	if e.Unwrap != nil {
		if inner, ok := e.Unwrap.Unwrap(b, field); ok {
			if v, err := e.Inner.Decode(inner); err == nil {
				return v, nil
			}
		}
	}
	v, err := e.Inner.Decode(b)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return v, nil
}

// JSONField unwraps JSON objects.
type JSONField struct{}

func (JSONField) Unwrap(b []byte, field string) ([]byte, bool) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	raw, ok := obj[field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// CBORField unwraps CBOR maps keyed by text strings.
type CBORField struct{}

const cborNull = 0xf6

func (CBORField) Unwrap(b []byte, field string) ([]byte, bool) {
	var obj map[string]cbor.RawMessage
	if err := cbor.Unmarshal(b, &obj); err != nil {
		return nil, false
	}
	raw, ok := obj[field]
	if !ok || len(raw) == 0 || (len(raw) == 1 && raw[0] == cborNull) {
		return nil, false
	}
	return raw, true
}

// MsgpackField unwraps msgpack maps keyed by strings.
type MsgpackField struct{}

const msgpackNil = 0xc0

func (MsgpackField) Unwrap(b []byte, field string) ([]byte, bool) {
	var obj map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(b, &obj); err != nil {
		return nil, false
	}
	raw, ok := obj[field]
	if !ok || len(raw) == 0 || (len(raw) == 1 && raw[0] == msgpackNil) {
		return nil, false
	}
	return raw, true
}
