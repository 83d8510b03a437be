package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
)

// widget is the embedded-message fixture: a singular scalar, a repeated
// string list, and a recursive sub-message, enough to exercise every merge
// rule.
type widget struct {
	A   uint32
	L   []string
	Sub *widget
}

type widgetCodec struct{}

func (widgetCodec) Zero() *widget { return nil }

func (widgetCodec) Parse(tab *Table) (*widget, error) {
	w := &widget{}
	var err error
	if w.A, err = Field(tab, 1, Uint32); err != nil {
		return nil, err
	}
	if w.L, err = Repeated[string](tab, 2, String); err != nil {
		return nil, err
	}
	if w.Sub, err = Embedded[*widget](tab, 3, widgetCodec{}); err != nil {
		return nil, err
	}
	return w, nil
}

func (widgetCodec) Merge(dst, src *widget) *widget {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	if src.A != 0 {
		dst.A = src.A
	}
	dst.L = append(dst.L, src.L...)
	dst.Sub = widgetCodec{}.Merge(dst.Sub, src.Sub)
	return dst
}

// scope compiles protoscope text into wire bytes.
func scope(t *testing.T, text string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner(text).Exec()
	require.NoError(t, err, "bad protoscope text %q", text)
	return b
}

func parseTable(t *testing.T, text string) *Table {
	t.Helper()
	tab, err := Parse(scope(t, text))
	require.NoError(t, err)
	return tab
}

func TestField_SingularScenario(t *testing.T) {
	// Field 1 as varint 150, field 2 as two string occurrences.
	tab := parseTable(t, `1: 150  2: {"ab"}  2: {"cd"}`)

	v, err := Field(tab, 1, Uint32)
	require.NoError(t, err)
	require.Equal(t, uint32(150), v)

	l, err := Repeated[string](tab, 2, String)
	require.NoError(t, err)
	require.Equal(t, []string{"ab", "cd"}, l)
}

func TestField_LastWins(t *testing.T) {
	tab := parseTable(t, `1: 1  1: 2`)

	v, err := Field(tab, 1, Uint32)
	require.NoError(t, err)
	require.Equal(t, uint32(2), v)
}

func TestField_AbsentYieldsDefault(t *testing.T) {
	tab := parseTable(t, `1: 1`)

	n, err := Field(tab, 9, Int64)
	require.NoError(t, err)
	require.Zero(t, n)

	s, err := Field(tab, 9, String)
	require.NoError(t, err)
	require.Equal(t, "", s)

	l, err := Repeated[string](tab, 9, String)
	require.NoError(t, err)
	require.Nil(t, l)

	w, err := Embedded[*widget](tab, 9, widgetCodec{})
	require.NoError(t, err)
	require.Nil(t, w)
}

func TestField_MismatchNamesField(t *testing.T) {
	tab := parseTable(t, `1: 150`)

	_, err := Field(tab, 1, String)
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, []string{"1"}, fieldErr.FieldPath)

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, WireBytes, mismatch.Want)
	require.Equal(t, WireVarint, mismatch.Got)
}

func TestRepeated_FailsOnAnyBadOccurrence(t *testing.T) {
	tab := parseTable(t, `2: {"ok"}  2: 7`)

	_, err := Repeated[string](tab, 2, String)
	require.Error(t, err)
	require.ErrorIs(t, err, &TypeMismatchError{})
}

func TestPacked_Scenario(t *testing.T) {
	// A single packed payload of three varints...
	packed := parseTable(t, `3: {1 2 3}`)
	got, err := Packed[uint64](packed, 3, Uint64)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, got)

	// ...and the same field as three individual varint occurrences.
	unpacked := parseTable(t, `3: 1  3: 2  3: 3`)
	got, err = Packed[uint64](unpacked, 3, Uint64)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, got)
}

func TestPacked_FallbackMatchesRepeated(t *testing.T) {
	// Anything decodable in unpacked form must decode identically through
	// the packed combinator's fallback.
	tab := parseTable(t, `7: 10  7: 20  7: 30`)

	viaPacked, err := Packed[int32](tab, 7, Int32)
	require.NoError(t, err)
	viaRepeated, err := Repeated[int32](tab, 7, Int32)
	require.NoError(t, err)
	require.Equal(t, viaRepeated, viaPacked)
}

func TestPacked_MultipleSegmentsConcatenate(t *testing.T) {
	tab := parseTable(t, `3: {1 2}  3: {3}`)

	got, err := Packed[uint64](tab, 3, Uint64)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, got)
}

func TestPacked_FallbackFailureSurfaces(t *testing.T) {
	// A bytes payload that is neither a valid packed list nor a valid
	// single scalar fails the whole field after the fallback.
	tab := parseTable(t, "3: {`ff`}")

	_, err := Packed[uint64](tab, 3, Uint64)
	require.Error(t, err)
	require.ErrorIs(t, err, &TypeMismatchError{})
}

func TestEmbedded_MergeScenario(t *testing.T) {
	// Two occurrences of field 4: first sets A=1, L=[x]; second sets A=2,
	// L=[y]. The merged result keeps the newer scalar and both list items.
	tab := parseTable(t, `4: {1: 1  2: {"x"}}  4: {1: 2  2: {"y"}}`)

	w, err := Embedded[*widget](tab, 4, widgetCodec{})
	require.NoError(t, err)
	require.Equal(t, uint32(2), w.A)
	require.Equal(t, []string{"x", "y"}, w.L)
}

func TestEmbedded_RecursiveSubMessageMerge(t *testing.T) {
	// Sub-messages merge recursively rather than overwrite: the second
	// occurrence's Sub brings a list item but no scalar, so the first
	// occurrence's scalar must survive.
	tab := parseTable(t, `4: {3: {1: 7  2: {"a"}}}  4: {3: {2: {"b"}}}`)

	w, err := Embedded[*widget](tab, 4, widgetCodec{})
	require.NoError(t, err)
	require.NotNil(t, w.Sub)
	require.Equal(t, uint32(7), w.Sub.A)
	require.Equal(t, []string{"a", "b"}, w.Sub.L)
}

func TestEmbedded_MergeEqualsConcatenation(t *testing.T) {
	// Parsing the concatenation of two encodings must equal decoding each
	// separately and merging the results.
	a := scope(t, `1: 1  2: {"x"}  3: {2: {"p"}}`)
	b := scope(t, `1: 2  2: {"y"}  3: {1: 9}`)

	wa, err := ParseMessage(a, widgetCodec{})
	require.NoError(t, err)
	wb, err := ParseMessage(b, widgetCodec{})
	require.NoError(t, err)
	merged := widgetCodec{}.Merge(wa, wb)

	concat, err := ParseMessage(append(append([]byte{}, a...), b...), widgetCodec{})
	require.NoError(t, err)

	if diff := cmp.Diff(concat, merged); diff != "" {
		t.Errorf("merge differs from concatenation (-concat +merged):\n%s", diff)
	}
}

func TestEmbedded_BadOccurrenceAborts(t *testing.T) {
	// First occurrence is fine, second has an unparseable payload: the
	// whole field fails, nothing is skipped.
	tab := parseTable(t, "4: {1: 1}  4: {`ff`}")

	_, err := Embedded[*widget](tab, 4, widgetCodec{})
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, []string{"4"}, fieldErr.FieldPath)

	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "embedded message", malformed.Kind)
}

func TestEmbedded_NestedErrorPath(t *testing.T) {
	// An invalid UTF-8 string three levels down must surface the full
	// field path.
	tab := parseTable(t, "4: {3: {2: {`ff`}}}")

	_, err := Embedded[*widget](tab, 4, widgetCodec{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidUTF8)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, []string{"4", "3", "2"}, fieldErr.FieldPath)
}

func TestEmbedded_WrongWireType(t *testing.T) {
	tab := parseTable(t, `4: 12`)

	_, err := Embedded[*widget](tab, 4, widgetCodec{})
	require.Error(t, err)
	require.ErrorIs(t, err, &TypeMismatchError{})
}

func TestEmbeddedList_OneElementPerOccurrence(t *testing.T) {
	tab := parseTable(t, `4: {1: 1}  4: {1: 2}`)

	ws, err := EmbeddedList[*widget](tab, 4, widgetCodec{})
	require.NoError(t, err)
	require.Len(t, ws, 2)
	require.Equal(t, uint32(1), ws[0].A)
	require.Equal(t, uint32(2), ws[1].A)
}

func TestParseMessage_TopLevel(t *testing.T) {
	w, err := ParseMessage(scope(t, `1: 5  2: {"hello"}`), widgetCodec{})
	require.NoError(t, err)
	require.Equal(t, uint32(5), w.A)
	require.Equal(t, []string{"hello"}, w.L)

	_, err = ParseMessage([]byte{0xff}, widgetCodec{})
	require.Error(t, err)
}
