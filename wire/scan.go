package wire

import (
	"encoding/binary"
	"fmt"
)

// Scanner splits a raw byte buffer into an ordered sequence of
// (field number, wire value) pairs. It fully decodes the wire-level framing
// (tag varints, lengths, little-endian fixed payloads) but never interprets
// payloads against a target type; that is the field table's callers' job.
type Scanner struct {
	buf []byte
	pos int
}

// NewScanner creates a scanner over the given buffer. The scanner borrows
// the buffer; length-delimited values it produces alias into it.
func NewScanner(data []byte) *Scanner {
	return &Scanner{
		buf: data,
		pos: 0,
	}
}

// More reports whether any input remains.
func (s *Scanner) More() bool {
	return s.pos < len(s.buf)
}

// Next reads the next field occurrence from the current position.
func (s *Scanner) Next() (FieldValue, error) {
	tag, n, err := readVarint(s.buf[s.pos:])
	if err != nil {
		return FieldValue{}, fmt.Errorf("failed to decode field tag: %w", err)
	}
	s.pos += n

	fieldNumber, wireType := ParseTag(Tag(tag))
	if fieldNumber <= 0 {
		return FieldValue{}, fmt.Errorf("invalid field number %d", fieldNumber)
	}

	val, err := s.readValue(wireType)
	if err != nil {
		return FieldValue{}, fmt.Errorf("failed to decode field %d: %w", fieldNumber, err)
	}

	return FieldValue{Num: fieldNumber, Val: val}, nil
}

// readValue reads one wire value of the given shape.
func (s *Scanner) readValue(wireType WireType) (Value, error) {
	switch wireType {
	case WireVarint:
		v, n, err := readVarint(s.buf[s.pos:])
		if err != nil {
			return Value{}, err
		}
		s.pos += n
		return VarintValue(v), nil

	case WireFixed32:
		if s.pos+4 > len(s.buf) {
			return Value{}, fmt.Errorf("not enough data for fixed32: need 4 bytes, have %d", len(s.buf)-s.pos)
		}
		bits := binary.LittleEndian.Uint32(s.buf[s.pos:])
		s.pos += 4
		return Fixed32Value(bits), nil

	case WireFixed64:
		if s.pos+8 > len(s.buf) {
			return Value{}, fmt.Errorf("not enough data for fixed64: need 8 bytes, have %d", len(s.buf)-s.pos)
		}
		bits := binary.LittleEndian.Uint64(s.buf[s.pos:])
		s.pos += 8
		return Fixed64Value(bits), nil

	case WireBytes:
		length, n, err := readVarint(s.buf[s.pos:])
		if err != nil {
			return Value{}, fmt.Errorf("failed to decode bytes length: %w", err)
		}
		s.pos += n
		if uint64(len(s.buf)-s.pos) < length {
			return Value{}, fmt.Errorf("bytes truncated: need %d bytes, have %d", length, len(s.buf)-s.pos)
		}
		payload := s.buf[s.pos : s.pos+int(length)]
		s.pos += int(length)
		return BytesValue(payload), nil

	default:
		return Value{}, fmt.Errorf("unsupported wire type %d", wireType)
	}
}

// readVarint decodes a base-128 varint from the start of buf, returning the
// value and the number of bytes consumed.
func readVarint(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, ErrUnexpectedEOF
	}

	var result uint64
	var shift uint

	for i := 0; i < 10; i++ { // Max 10 bytes for 64-bit varint
		if i >= len(buf) {
			return 0, 0, ErrUnexpectedEOF
		}

		b := buf[i]

		// The tenth byte may only carry bit 63; anything above overflows
		// a 64-bit value.
		if i == 9 && b&0x7F > 1 {
			return 0, 0, ErrVarintOverflow
		}

		// Add the lower 7 bits to result
		result |= uint64(b&0x7F) << shift

		// If MSB is not set, we're done
		if (b & 0x80) == 0 {
			return result, i + 1, nil
		}

		shift += 7
	}

	return 0, 0, ErrVarintTooLong
}

// DecodeZigZag32 decodes a zigzag-encoded 32-bit integer
func DecodeZigZag32(encoded uint64) int32 {
	return int32((uint32(encoded) >> 1) ^ uint32(-int32(encoded&1)))
}

// DecodeZigZag64 decodes a zigzag-encoded 64-bit integer
func DecodeZigZag64(encoded uint64) int64 {
	return int64((encoded >> 1) ^ uint64(-int64(encoded&1)))
}
