package wire

// Table groups the wire values of one buffer by field number, preserving
// per-field occurrence order. A table is built once per decode invocation,
// is read-only afterwards, and is never shared across invocations: every
// nested embedded-message decode builds its own table over its own
// sub-payload.
type Table struct {
	fields map[FieldNumber][]Value
}

// BuildTable groups an ordered sequence of (field number, wire value) pairs
// into a field table. Grouping is stable: for a given field number the
// stored sequence preserves input order, and nothing is dropped.
func BuildTable(values []FieldValue) *Table {
	t := &Table{
		fields: make(map[FieldNumber][]Value),
	}
	for _, fv := range values {
		t.fields[fv.Num] = append(t.fields[fv.Num], fv.Val)
	}
	return t
}

// Parse tokenizes a raw buffer and builds its field table.
func Parse(data []byte) (*Table, error) {
	s := NewScanner(data)
	var values []FieldValue
	for s.More() {
		fv, err := s.Next()
		if err != nil {
			return nil, err
		}
		values = append(values, fv)
	}
	return BuildTable(values), nil
}

// Last returns the final wire value recorded for a field number, or false
// if the field is absent. Later occurrences of a singular field override
// earlier ones on the wire, so this is the occurrence singular decoding
// must use.
func (t *Table) Last(num FieldNumber) (Value, bool) {
	occ := t.fields[num]
	if len(occ) == 0 {
		return Value{}, false
	}
	return occ[len(occ)-1], true
}

// All returns every wire value recorded for a field number in original wire
// order, or nil if the field is absent. The returned slice is owned by the
// table and must not be mutated.
func (t *Table) All(num FieldNumber) []Value {
	return t.fields[num]
}

// Len returns the number of distinct field numbers present.
func (t *Table) Len() int {
	return len(t.fields)
}
