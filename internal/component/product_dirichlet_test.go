package component

import (
	"math"
	"testing"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

func oneColStore(t *testing.T, cols [][]float64) *seqdata.Store {
	t.Helper()
	store, err := seqdata.New([]string{"seq0"}, [][][]float64{cols})
	if err != nil {
		t.Fatalf("seqdata.New: %v", err)
	}
	return store
}

func TestProductDirichletAddRemove(t *testing.T) {
	alpha := []float64{1, 1, 1, 1, 1}
	m := NewProductDirichlet(2, alpha)

	store := oneColStore(t, [][]float64{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
	})
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 2}

	m.Add(store, r)
	if m.Count() != 1 {
		t.Fatalf("Count after Add = %v, want 1", m.Count())
	}
	if m.counts[0][seqdata.SymbolA] != 2 {
		t.Fatalf("counts[0][A] = %v, want 2 (alpha 1 + observed 1)", m.counts[0][seqdata.SymbolA])
	}

	m.Remove(store, r)
	if m.Count() != 0 {
		t.Fatalf("Count after Remove = %v, want 0", m.Count())
	}
	if m.counts[0][seqdata.SymbolA] != 1 {
		t.Fatalf("counts[0][A] after Remove = %v, want 1 (back to alpha)", m.counts[0][seqdata.SymbolA])
	}
}

func TestProductDirichletWidthMismatch(t *testing.T) {
	m := NewProductDirichlet(3, []float64{1, 1, 1, 1, 1})
	store := oneColStore(t, [][]float64{{1, 0, 0, 0, 0}, {0, 1, 0, 0, 0}})
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 2}

	if got := m.LogPredictive(store, r); !math.IsInf(got, -1) {
		t.Fatalf("LogPredictive with width mismatch = %v, want -Inf", got)
	}
}

func TestProductDirichletLogPredictiveSetMatchesSequential(t *testing.T) {
	alpha := []float64{1, 1, 1, 1, 1}
	store := oneColStore(t, [][]float64{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
	})
	r1 := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 2}
	r2 := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 2}, Length: 2}

	m := NewProductDirichlet(2, alpha)
	set := m.LogPredictiveSet(store, []seqdata.Range{r1, r2})

	m2 := NewProductDirichlet(2, alpha)
	lp1 := m2.LogPredictive(store, r1)
	m2.Add(store, r1)
	lp2 := m2.LogPredictive(store, r2)

	if math.Abs(set-(lp1+lp2)) > 1e-9 {
		t.Fatalf("LogPredictiveSet = %v, want %v (sequential sum)", set, lp1+lp2)
	}
}

func TestLnBetaSymmetric(t *testing.T) {
	a := lnBeta([]float64{2, 3})
	b := lnBeta([]float64{3, 2})
	if math.Abs(a-b) > 1e-12 {
		t.Fatalf("lnBeta not symmetric: %v vs %v", a, b)
	}
}
