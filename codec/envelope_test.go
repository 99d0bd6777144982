package codec

import (
	"errors"
	"reflect"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type item struct {
	ID   int    `json:"id" cbor:"id" msgpack:"id"`
	Name string `json:"name" cbor:"name" msgpack:"name"`
}

func TestJSONEnvelopeShapes(t *testing.T) {
	dec := NewJSONEnvelope[[]int]()
	cases := []struct {
		name string
		in   string
		want []int
	}{
		{"enveloped", `{"data":[1,2,3]}`, []int{1, 2, 3}},
		{"flat", `[4,5,6]`, []int{4, 5, 6}},
		{"enveloped with siblings", `{"errors":null,"data":[7]}`, []int{7}},
		{"leading whitespace", "  \n{\"data\":[8]}", []int{8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dec.Decode([]byte(tc.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestJSONEnvelopeFallsBackToFlatWhenFieldMissing(t *testing.T) {
	dec := NewJSONEnvelope[item]()
	got, err := dec.Decode([]byte(`{"id":3,"name":"flat"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != (item{ID: 3, Name: "flat"}) {
		t.Fatalf("got %+v", got)
	}
}

func TestJSONEnvelopeNullDataFallsBackToFlat(t *testing.T) {
	dec := NewJSONEnvelope[map[string]any]()
	got, err := dec.Decode([]byte(`{"data":null,"k":"v"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got["k"] != "v" {
		t.Fatalf("expected flat decode, got %v", got)
	}
}

func TestJSONEnvelopeInnerMismatchFallsBackToFlat(t *testing.T) {
	// "data" holds a string, so the enveloped shape cannot be V; the whole
	// object is the value.
	type withData struct {
		Data string `json:"data"`
	}
	dec := NewJSONEnvelope[withData]()
	got, err := dec.Decode([]byte(`{"data":"x"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Data != "x" {
		t.Fatalf("got %+v", got)
	}
}

func TestJSONEnvelopeGarbage(t *testing.T) {
	dec := NewJSONEnvelope[[]int]()
	_, err := dec.Decode([]byte("<html>oops</html>"))
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestEnvelopeCustomField(t *testing.T) {
	dec := Envelope[[]string]{Field: "result", Unwrap: JSONField{}, Inner: JSON[[]string]{}}
	got, err := dec.Decode([]byte(`{"result":["a"]}`))
	if err != nil || len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v err=%v", got, err)
	}
}

func TestCBOREnvelopeShapes(t *testing.T) {
	enc := MustCBOR[map[string]item](true)
	wrapped, err := enc.Encode(map[string]item{"data": {ID: 1, Name: "a"}})
	if err != nil {
		t.Fatal(err)
	}
	flat, err := MustCBOR[item](true).Encode(item{ID: 2, Name: "b"})
	if err != nil {
		t.Fatal(err)
	}

	dec := NewCBOREnvelope[item]()
	if got, err := dec.Decode(wrapped); err != nil || got.ID != 1 {
		t.Fatalf("enveloped: got %+v err=%v", got, err)
	}
	if got, err := dec.Decode(flat); err != nil || got.ID != 2 {
		t.Fatalf("flat: got %+v err=%v", got, err)
	}
	if _, err := dec.Decode([]byte{0xff, 0x00}); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("garbage: expected ErrInvalidData, got %v", err)
	}
}

func TestMsgpackEnvelopeShapes(t *testing.T) {
	wrapped, err := Msgpack[map[string][]int]{}.Encode(map[string][]int{"data": {1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	flat, err := Msgpack[[]int]{}.Encode([]int{3})
	if err != nil {
		t.Fatal(err)
	}

	dec := NewMsgpackEnvelope[[]int]()
	if got, err := dec.Decode(wrapped); err != nil || !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("enveloped: got %v err=%v", got, err)
	}
	if got, err := dec.Decode(flat); err != nil || !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("flat: got %v err=%v", got, err)
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[[]int]{Inner: NewJSONEnvelope[[]int](), MaxDecode: 4}
	if _, err := c.Decode([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("expected size error")
	}
	if got, err := c.Decode([]byte(`[1]`)); err != nil || len(got) != 1 {
		t.Fatalf("small payload: got %v err=%v", got, err)
	}
}

func TestProtobufFlat(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.GetValue() != "hello" {
		t.Fatalf("got %q", got.GetValue())
	}
}

func TestBytesDecodeCopies(t *testing.T) {
	in := []byte("abc")
	out, err := Bytes{}.Decode(in)
	if err != nil {
		t.Fatal(err)
	}
	in[0] = 'x'
	if string(out) != "abc" {
		t.Fatalf("decode aliases input: %q", out)
	}
	if s, _ := (String{}).Decode([]byte("hi")); s != "hi" {
		t.Fatalf("string decode = %q", s)
	}
}
