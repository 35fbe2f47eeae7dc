package db

import "testing"

func TestIndexBuilder_Document(t *testing.T) {
	idx, err := NewIndex("corpus:idx").
		Prefix("corpus:doc:").
		Text("content").
		VectorHNSW("embedding", 1536, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Fields) != 2 || len(idx.Prefixes) != 1 {
		t.Fatalf("unexpected definition: %+v", idx)
	}
	f := idx.Fields[1]
	if f.VectorAlgo != VectorHNSW || f.VectorDim != 1536 || f.VectorDistance != DistanceCosine {
		t.Errorf("vector field = %+v", f)
	}
	if f.VectorM != 16 || f.VectorEFConstruct != 200 {
		t.Errorf("hnsw params = %d/%d", f.VectorM, f.VectorEFConstruct)
	}
}

func TestIndexBuilder_Flat(t *testing.T) {
	idx, err := NewIndex("idx").VectorFlat("embedding", 4, DistanceL2).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Fields[0].VectorAlgo != VectorFlat {
		t.Errorf("algo = %q", idx.Fields[0].VectorAlgo)
	}
}

func TestIndexBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Text("content")},
		{"bad name", NewIndex("bad name").Text("content")},
		{"no fields", NewIndex("idx")},
		{"zero dim", NewIndex("idx").VectorFlat("embedding", 0, DistanceCosine)},
		{"duplicate", NewIndex("idx").Text("content").Text("content")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"idx", "corpus:idx", "a_b-c", "X1"}
	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	invalid := []string{"", "a b", "a/b", "ä"}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
