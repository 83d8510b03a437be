package wire

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestBuildTable_GroupingIsStable(t *testing.T) {
	values := []FieldValue{
		{Num: 2, Val: BytesValue([]byte("first"))},
		{Num: 1, Val: VarintValue(10)},
		{Num: 2, Val: BytesValue([]byte("second"))},
		{Num: 1, Val: VarintValue(20)},
		{Num: 2, Val: BytesValue([]byte("third"))},
	}

	tab := BuildTable(values)

	if tab.Len() != 2 {
		t.Fatalf("expected 2 distinct field numbers, got %d", tab.Len())
	}

	occ := tab.All(2)
	if len(occ) != 3 {
		t.Fatalf("expected 3 occurrences of field 2, got %d", len(occ))
	}
	for i, want := range []string{"first", "second", "third"} {
		p, err := occ[i].Bytes()
		if err != nil || string(p) != want {
			t.Errorf("occurrence %d: expected %q, got %q (%v)", i, want, p, err)
		}
	}

	last, ok := tab.Last(1)
	if !ok {
		t.Fatal("field 1 should be present")
	}
	if v, err := last.Varint(); err != nil || v != 20 {
		t.Errorf("expected last occurrence 20, got %d (%v)", v, err)
	}
}

func TestTable_AbsentField(t *testing.T) {
	tab := BuildTable(nil)

	if _, ok := tab.Last(5); ok {
		t.Error("Last should report absence for missing field")
	}
	if occ := tab.All(5); len(occ) != 0 {
		t.Errorf("All should return no entries for missing field, got %d", len(occ))
	}
}

func TestParse_BuildsTableFromBuffer(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 1)
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 2)

	tab, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	occ := tab.All(3)
	if len(occ) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occ))
	}
	for i, want := range []uint64{1, 2} {
		if v, err := occ[i].Varint(); err != nil || v != want {
			t.Errorf("occurrence %d: expected %d, got %d (%v)", i, want, v, err)
		}
	}
}

func TestParse_RejectsMalformedBuffer(t *testing.T) {
	if _, err := Parse([]byte{0x0a, 0xff}); err == nil {
		t.Error("expected error for truncated bytes length")
	}
}
