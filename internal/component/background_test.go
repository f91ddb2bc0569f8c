package component

import (
	"math"
	"testing"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

func TestIndependenceBackgroundAddRemove(t *testing.T) {
	m := NewIndependenceBackground([]float64{1, 1, 1, 1, 1})
	store := oneColStore(t, [][]float64{{2, 0, 0, 0, 0}})
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 1}

	before := m.LogPredictive(store, r)
	m.Add(store, r)
	if m.Count() != 1 {
		t.Fatalf("Count = %v, want 1 (one column folded in)", m.Count())
	}
	// The marginal is fixed regardless of what has been folded in: Add
	// must not perturb later LogPredictive calls (spec.md §4.4).
	if after := m.LogPredictive(store, r); math.Abs(before-after) > 1e-9 {
		t.Fatalf("LogPredictive drifted after Add: %v vs %v", before, after)
	}
	m.Remove(store, r)
	if m.Count() != 0 {
		t.Fatalf("Count after Remove = %v, want 0", m.Count())
	}
	if after := m.LogPredictive(store, r); math.Abs(before-after) > 1e-9 {
		t.Fatalf("LogPredictive not restored after Add+Remove: %v vs %v", before, after)
	}
}

func TestDefaultBackgroundFitMovesTowardData(t *testing.T) {
	m := NewDefaultBackground(2, 2) // prior mean alpha_k = 1
	// Heavily A-skewed observation: fitting should push alpha[A] up
	// relative to the other symbols.
	obs := []float64{100, 1, 1, 1, 1}
	m.Fit(obs, DefaultRpropOptions())

	if m.alpha[seqdata.SymbolA] <= m.alpha[seqdata.SymbolC] {
		t.Fatalf("expected fitted alpha[A] (%v) > alpha[C] (%v) given A-skewed data", m.alpha[seqdata.SymbolA], m.alpha[seqdata.SymbolC])
	}
}

func TestIndependenceMixtureNormalizesWeights(t *testing.T) {
	mix := NewIndependenceMixture([]float64{1, 3}, [][]float64{
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
	})
	total := 0.0
	for _, w := range mix.weights {
		total += w
	}
	if math.Abs(total-1) > 1e-12 {
		t.Fatalf("mixture weights sum to %v, want 1", total)
	}
}

func TestEntropyBackgroundLogLikelihoodNonPositive(t *testing.T) {
	m := NewEntropyBackground(0.1)
	store := oneColStore(t, [][]float64{{1, 0, 0, 0, 0}, {0, 1, 0, 0, 0}})
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 2}
	m.Add(store, r)

	if ll := m.LogLikelihood(); ll > 0 {
		t.Fatalf("entropy log-likelihood = %v, want <= 0", ll)
	}
}
