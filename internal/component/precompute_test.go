package component

import (
	"testing"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

func TestPrecomputeMarginalMatchesSequentialLogPredictive(t *testing.T) {
	names := []string{"a", "b"}
	columns := [][][]float64{
		{{1, 0, 0, 0, 0}, {0, 1, 0, 0, 0}, {0, 0, 1, 0, 0}},
		{{0, 0, 0, 1, 0}, {1, 1, 0, 0, 0}},
	}
	store, err := seqdata.New(names, columns)
	if err != nil {
		t.Fatalf("seqdata.New: %v", err)
	}

	model := NewIndependenceBackground([]float64{1, 1, 1, 1, 1})
	table := PrecomputeMarginal(store, model, 2, nil)

	offsets := Offsets(store)
	if len(table) != offsets[len(offsets)-1] {
		t.Fatalf("table length = %d, want %d", len(table), offsets[len(offsets)-1])
	}

	for seq := 0; seq < store.NumSequences(); seq++ {
		for pos := 0; pos < store.Len(seq); pos++ {
			r := seqdata.Range{Start: seqdata.Index{Seq: seq, Pos: pos}, Length: 1}
			want := model.LogPredictive(store, r)
			got := table[offsets[seq]+pos]
			if got != want {
				t.Errorf("table[%d,%d] = %v, want %v", seq, pos, got, want)
			}
		}
	}
}

func TestPrecomputeMarginalEmptyStore(t *testing.T) {
	store, err := seqdata.New(nil, nil)
	if err != nil {
		t.Fatalf("seqdata.New: %v", err)
	}
	model := NewIndependenceBackground([]float64{1, 1, 1, 1, 1})
	table := PrecomputeMarginal(store, model, 4, nil)
	if len(table) != 0 {
		t.Fatalf("table length = %d, want 0", len(table))
	}
}
