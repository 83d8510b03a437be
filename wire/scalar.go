package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Codec decodes values of type T from a single wire field occurrence. Zero
// is the default substituted when a singular field is wholly absent from
// the input.
type Codec[T any] interface {
	Zero() T
	Decode(v Value) (T, error)
}

// PackedCodec is a Codec that can additionally decode itself from a packed
// length-delimited payload holding back-to-back scalar encodings. Only
// primitive numeric types are packable; strings, bytes, and embedded
// messages never are.
type PackedCodec[T any] interface {
	Codec[T]
	DecodePacked(payload []byte) ([]T, error)
}

// ===== VARINT-BACKED CODECS =====

// varintCodec adapts a uint64 conversion into a packable codec for any
// varint-shaped scalar.
type varintCodec[T any] struct {
	name string
	conv func(uint64) T
}

func (c varintCodec[T]) Zero() T {
	var zero T
	return zero
}

func (c varintCodec[T]) Decode(v Value) (T, error) {
	u, err := v.Varint()
	if err != nil {
		return c.Zero(), err
	}
	return c.conv(u), nil
}

func (c varintCodec[T]) DecodePacked(payload []byte) ([]T, error) {
	out := make([]T, 0, len(payload))
	for pos := 0; pos < len(payload); {
		u, n, err := readVarint(payload[pos:])
		if err != nil {
			return nil, &MalformedError{Kind: "packed " + c.name, Err: err}
		}
		pos += n
		out = append(out, c.conv(u))
	}
	return out, nil
}

// ===== FIXED-WIDTH CODECS =====

// fixed32Codec adapts a uint32 bits conversion into a packable codec for
// any fixed32-shaped scalar.
type fixed32Codec[T any] struct {
	name string
	conv func(uint32) T
}

func (c fixed32Codec[T]) Zero() T {
	var zero T
	return zero
}

func (c fixed32Codec[T]) Decode(v Value) (T, error) {
	bits, err := v.Fixed32()
	if err != nil {
		return c.Zero(), err
	}
	return c.conv(bits), nil
}

func (c fixed32Codec[T]) DecodePacked(payload []byte) ([]T, error) {
	if len(payload)%4 != 0 {
		return nil, &MalformedError{
			Kind: "packed " + c.name,
			Err:  fmt.Errorf("payload length %d is not a multiple of 4", len(payload)),
		}
	}
	out := make([]T, 0, len(payload)/4)
	for pos := 0; pos < len(payload); pos += 4 {
		out = append(out, c.conv(binary.LittleEndian.Uint32(payload[pos:])))
	}
	return out, nil
}

// fixed64Codec adapts a uint64 bits conversion into a packable codec for
// any fixed64-shaped scalar.
type fixed64Codec[T any] struct {
	name string
	conv func(uint64) T
}

func (c fixed64Codec[T]) Zero() T {
	var zero T
	return zero
}

func (c fixed64Codec[T]) Decode(v Value) (T, error) {
	bits, err := v.Fixed64()
	if err != nil {
		return c.Zero(), err
	}
	return c.conv(bits), nil
}

func (c fixed64Codec[T]) DecodePacked(payload []byte) ([]T, error) {
	if len(payload)%8 != 0 {
		return nil, &MalformedError{
			Kind: "packed " + c.name,
			Err:  fmt.Errorf("payload length %d is not a multiple of 8", len(payload)),
		}
	}
	out := make([]T, 0, len(payload)/8)
	for pos := 0; pos < len(payload); pos += 8 {
		out = append(out, c.conv(binary.LittleEndian.Uint64(payload[pos:])))
	}
	return out, nil
}

// ===== LENGTH-DELIMITED CODECS =====

// stringCodec decodes UTF-8 text. Payloads that are not valid UTF-8 fail
// the decode; replacement characters are never substituted.
type stringCodec struct{}

func (stringCodec) Zero() string {
	return ""
}

func (stringCodec) Decode(v Value) (string, error) {
	payload, err := v.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(payload) {
		return "", &MalformedError{Kind: "string", Err: ErrInvalidUTF8}
	}
	return string(payload), nil
}

// bytesCodec decodes a raw byte blob. The payload is returned unmodified,
// aliasing the source buffer.
type bytesCodec struct{}

func (bytesCodec) Zero() []byte {
	return nil
}

func (bytesCodec) Decode(v Value) ([]byte, error) {
	return v.Bytes()
}

// ===== BUILT-IN CONFORMANCES =====

var (
	// Bool decodes a varint as bool; any nonzero value is true.
	Bool = varintCodec[bool]{name: "bool", conv: func(u uint64) bool { return u != 0 }}

	// Int32 decodes a varint truncated to int32.
	Int32 = varintCodec[int32]{name: "int32", conv: func(u uint64) int32 { return int32(u) }}

	// Int64 decodes a varint reinterpreted as int64.
	Int64 = varintCodec[int64]{name: "int64", conv: func(u uint64) int64 { return int64(u) }}

	// Uint32 decodes a varint truncated to uint32.
	Uint32 = varintCodec[uint32]{name: "uint32", conv: func(u uint64) uint32 { return uint32(u) }}

	// Uint64 decodes a varint as uint64.
	Uint64 = varintCodec[uint64]{name: "uint64", conv: func(u uint64) uint64 { return u }}

	// Sint32 decodes a zigzag-encoded varint as int32.
	Sint32 = varintCodec[int32]{name: "sint32", conv: DecodeZigZag32}

	// Sint64 decodes a zigzag-encoded varint as int64.
	Sint64 = varintCodec[int64]{name: "sint64", conv: DecodeZigZag64}

	// Fixed32 decodes a little-endian fixed32 as uint32.
	Fixed32 = fixed32Codec[uint32]{name: "fixed32", conv: func(bits uint32) uint32 { return bits }}

	// Sfixed32 decodes a little-endian fixed32 reinterpreted as int32; no zigzag.
	Sfixed32 = fixed32Codec[int32]{name: "sfixed32", conv: func(bits uint32) int32 { return int32(bits) }}

	// Float decodes an IEEE-754 little-endian fixed32 as float32.
	Float = fixed32Codec[float32]{name: "float", conv: math.Float32frombits}

	// Fixed64 decodes a little-endian fixed64 as uint64.
	Fixed64 = fixed64Codec[uint64]{name: "fixed64", conv: func(bits uint64) uint64 { return bits }}

	// Sfixed64 decodes a little-endian fixed64 reinterpreted as int64; no zigzag.
	Sfixed64 = fixed64Codec[int64]{name: "sfixed64", conv: func(bits uint64) int64 { return int64(bits) }}

	// Double decodes an IEEE-754 little-endian fixed64 as float64.
	Double = fixed64Codec[float64]{name: "double", conv: math.Float64frombits}

	// String decodes strictly validated UTF-8 text.
	String = stringCodec{}

	// Bytes decodes a raw byte blob without copying.
	Bytes = bytesCodec{}
)

// Enum returns the codec for an enumeration type with underlying int32
// representation. Out-of-range numbers are not rejected: protobuf enums
// accept unknown integers.
func Enum[E ~int32]() PackedCodec[E] {
	return varintCodec[E]{name: "enum", conv: func(u uint64) E { return E(int32(u)) }}
}
