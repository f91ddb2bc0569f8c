package seqdata

import "testing"

func twoSeqStore(t *testing.T) *Store {
	t.Helper()
	cols := [][][]float64{
		{
			{1, 0, 0, 0, 0}, // A
			{0, 1, 0, 0, 0}, // C
			{0, 0, 1, 0, 0}, // G
		},
		{
			{0, 0, 0, 1, 0}, // T
			{0, 0, 0, 0, 1}, // N
		},
	}
	store, err := New([]string{"seq0", "seq1"}, cols)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStoreDimensions(t *testing.T) {
	store := twoSeqStore(t)

	if got, want := store.NumSequences(), 2; got != want {
		t.Fatalf("NumSequences = %d, want %d", got, want)
	}
	if got, want := store.Len(0), 3; got != want {
		t.Fatalf("Len(0) = %d, want %d", got, want)
	}
	if got, want := store.Len(1), 2; got != want {
		t.Fatalf("Len(1) = %d, want %d", got, want)
	}
}

func TestComplementMirror(t *testing.T) {
	store := twoSeqStore(t)

	// seq0 pos0 is A (index 0); complement is T (index 3).
	comp := store.ComplementColumn(Index{Seq: 0, Pos: 0})
	if comp[SymbolT] != 1 {
		t.Fatalf("complement of A column = %v, want weight on T", comp)
	}

	// N complements to itself.
	comp = store.ComplementColumn(Index{Seq: 1, Pos: 1})
	if comp[SymbolN] != 1 {
		t.Fatalf("complement of N column = %v, want weight on N", comp)
	}
}

func TestFits(t *testing.T) {
	store := twoSeqStore(t)

	if !store.Fits(Index{Seq: 0, Pos: 0}, 3) {
		t.Fatal("expected range of length 3 at pos 0 to fit in a 3-long sequence")
	}
	if store.Fits(Index{Seq: 0, Pos: 1}, 3) {
		t.Fatal("expected range of length 3 at pos 1 to overflow a 3-long sequence")
	}
	if store.Fits(Index{Seq: 1, Pos: -1}, 1) {
		t.Fatal("expected negative position to never fit")
	}
}

func TestRangeColumnReverse(t *testing.T) {
	store := twoSeqStore(t)

	r := Range{Start: Index{Seq: 0, Pos: 0}, Length: 3, Reverse: true}
	// Reversed traversal visits pos2 (G) first; complement of G is C.
	first := store.RangeColumn(r, 0)
	if first[SymbolC] != 1 {
		t.Fatalf("reverse-traversal first column = %v, want weight on C", first)
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	for _, c := range []byte{'A', 'C', 'G', 'T', 'N'} {
		sym, err := EncodeSymbol(c)
		if err != nil {
			t.Fatalf("EncodeSymbol(%q): %v", c, err)
		}
		got, err := DecodeSymbol(sym)
		if err != nil {
			t.Fatalf("DecodeSymbol(%d): %v", sym, err)
		}
		if got != c {
			t.Fatalf("roundtrip %q -> %d -> %q", c, sym, got)
		}
	}
}
