package wire

// Field resolution combinators. Each combinator is a deterministic function
// of (field table, field number): it queries the table, runs the matching
// codec, and either produces a value or fails with the first unrecoverable
// error. The only local recovery anywhere is the packed-to-unpacked
// fallback in Packed.

// Field resolves a singular field: the last wire occurrence wins, and a
// wholly absent field yields the codec's declared default.
func Field[T any](tab *Table, num FieldNumber, c Codec[T]) (T, error) {
	v, ok := tab.Last(num)
	if !ok {
		return c.Zero(), nil
	}
	val, err := c.Decode(v)
	if err != nil {
		return c.Zero(), wrapField(err, num)
	}
	return val, nil
}

// Repeated resolves an unpacked repeated field: every occurrence is decoded
// individually in wire order. Failure of any single occurrence aborts the
// whole field with that occurrence's error.
func Repeated[T any](tab *Table, num FieldNumber, c Codec[T]) ([]T, error) {
	occ := tab.All(num)
	if len(occ) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(occ))
	for _, v := range occ {
		val, err := c.Decode(v)
		if err != nil {
			return nil, wrapField(err, num)
		}
		out = append(out, val)
	}
	return out, nil
}

// Packed resolves a packed repeated field: each occurrence is decoded as
// one length-delimited payload of back-to-back scalar encodings. If any
// occurrence fails the packed attempt, the entire field is re-decoded in
// unpacked form instead: legacy or mixed-schema encoders may emit unpacked
// occurrences for a field the current schema declares packed, and both
// attempts are pure, so the retry is safe.
func Packed[T any](tab *Table, num FieldNumber, c PackedCodec[T]) ([]T, error) {
	occ := tab.All(num)
	if len(occ) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(occ))
	for _, v := range occ {
		payload, err := v.Bytes()
		if err != nil {
			return Repeated(tab, num, c)
		}
		vals, err := c.DecodePacked(payload)
		if err != nil {
			return Repeated(tab, num, c)
		}
		out = append(out, vals...)
	}
	return out, nil
}

// MessageCodec describes how an embedded message type decodes from a field
// table and how two decoded instances combine under protobuf merge
// semantics. Parse reads the type's own sub-fields out of the table
// (typically via the combinators in this package); Merge must overwrite
// singular scalars with src, recursively merge embedded sub-messages, and
// concatenate repeated sub-fields.
type MessageCodec[T any] interface {
	Zero() T
	Parse(tab *Table) (T, error)
	Merge(dst, src T) T
}

// Embedded resolves an embedded message field with merge semantics: every
// occurrence is parsed as a nested message and folded into an accumulator
// in strict wire order, starting from the type's default. This reassembles
// messages an encoder legally split across multiple wire occurrences under
// the same field number. An occurrence whose payload fails to parse aborts
// the whole field; it is never skipped.
func Embedded[T any](tab *Table, num FieldNumber, c MessageCodec[T]) (T, error) {
	acc := c.Zero()
	for _, v := range tab.All(num) {
		msg, err := parseEmbedded(v, c)
		if err != nil {
			return c.Zero(), wrapField(err, num)
		}
		acc = c.Merge(acc, msg)
	}
	return acc, nil
}

// EmbeddedList resolves a repeated message field: one element per wire
// occurrence in order, with no merging across occurrences.
func EmbeddedList[T any](tab *Table, num FieldNumber, c MessageCodec[T]) ([]T, error) {
	occ := tab.All(num)
	if len(occ) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(occ))
	for _, v := range occ {
		msg, err := parseEmbedded(v, c)
		if err != nil {
			return nil, wrapField(err, num)
		}
		out = append(out, msg)
	}
	return out, nil
}

// parseEmbedded parses one occurrence's payload as a nested message over
// its own fresh field table.
func parseEmbedded[T any](v Value, c MessageCodec[T]) (T, error) {
	payload, err := v.Bytes()
	if err != nil {
		return c.Zero(), err
	}
	sub, err := Parse(payload)
	if err != nil {
		return c.Zero(), &MalformedError{Kind: "embedded message", Err: err}
	}
	return c.Parse(sub)
}

// ParseMessage is the top-level decode entry: it tokenizes the buffer,
// builds its field table, and parses it as one message of type T.
func ParseMessage[T any](data []byte, c MessageCodec[T]) (T, error) {
	tab, err := Parse(data)
	if err != nil {
		return c.Zero(), err
	}
	return c.Parse(tab)
}
