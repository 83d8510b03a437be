package wire

import (
	"strconv"
)

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int32

const (
	WireVarint  WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64 WireType = 1 // fixed64, sfixed64, double
	WireBytes   WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireFixed32 WireType = 5 // fixed32, sfixed32, float
)

// String returns the canonical name of the wire type.
func (wt WireType) String() string {
	switch wt {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireFixed32:
		return "fixed32"
	default:
		return "wiretype(" + strconv.Itoa(int(wt)) + ")"
	}
}

// FieldNumber represents a protobuf field number
type FieldNumber int32

// String returns the field number in decimal form.
func (n FieldNumber) String() string {
	return strconv.Itoa(int(n))
}

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// Value is one decoded-but-uninterpreted field occurrence. It records the
// wire shape and the raw payload, never the target type: the same bytes
// payload may later be read as text, as a byte blob, as an embedded message,
// or as a packed repeated sequence, entirely depending on what the caller
// asks for.
type Value struct {
	wire WireType
	num  uint64 // varint payload, or fixed32/fixed64 bits (little-endian decoded)
	raw  []byte // length-delimited payload
}

// VarintValue builds a varint-shaped Value from its fully decoded uint64 form.
func VarintValue(v uint64) Value {
	return Value{wire: WireVarint, num: v}
}

// Fixed32Value builds a fixed32-shaped Value from its little-endian bits.
func Fixed32Value(bits uint32) Value {
	return Value{wire: WireFixed32, num: uint64(bits)}
}

// Fixed64Value builds a fixed64-shaped Value from its little-endian bits.
func Fixed64Value(bits uint64) Value {
	return Value{wire: WireFixed64, num: bits}
}

// BytesValue builds a length-delimited Value. The payload is not copied; a
// Value is read-only after construction and scoped to one decode call.
func BytesValue(payload []byte) Value {
	return Value{wire: WireBytes, raw: payload}
}

// Wire returns the wire shape of the value.
func (v Value) Wire() WireType {
	return v.wire
}

// Varint returns the varint payload, or a wire-type-mismatch error if the
// value has a different shape.
func (v Value) Varint() (uint64, error) {
	if v.wire != WireVarint {
		return 0, &TypeMismatchError{Want: WireVarint, Got: v.wire}
	}
	return v.num, nil
}

// Fixed32 returns the little-endian-decoded fixed32 bits.
func (v Value) Fixed32() (uint32, error) {
	if v.wire != WireFixed32 {
		return 0, &TypeMismatchError{Want: WireFixed32, Got: v.wire}
	}
	return uint32(v.num), nil
}

// Fixed64 returns the little-endian-decoded fixed64 bits.
func (v Value) Fixed64() (uint64, error) {
	if v.wire != WireFixed64 {
		return 0, &TypeMismatchError{Want: WireFixed64, Got: v.wire}
	}
	return v.num, nil
}

// Bytes returns the length-delimited payload. The slice shares the source
// buffer; callers must not mutate it.
func (v Value) Bytes() ([]byte, error) {
	if v.wire != WireBytes {
		return nil, &TypeMismatchError{Want: WireBytes, Got: v.wire}
	}
	return v.raw, nil
}

// FieldValue is one (field number, wire value) pair in source buffer order,
// the tokenizer's output and the field table's input.
type FieldValue struct {
	Num FieldNumber
	Val Value
}
