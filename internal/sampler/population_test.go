package sampler

import (
	"testing"
)

func newTestChain(t *testing.T, seed int64, temperature float64) *Chain {
	t.Helper()
	store := testStore(t, 2, 15)
	s := testState(t, 3, store)
	g := NewGibbs(s, NewRNG(seed), 1.0, 0.0, 0.3, temperature)
	return &Chain{State: s, Gibbs: g}
}

func TestRunPopulationMergesStepMajor(t *testing.T) {
	chains := []*Chain{
		newTestChain(t, 1, 1.0),
		newTestChain(t, 2, 0.5),
		newTestChain(t, 3, 0.25),
	}
	const burnin, samples = 2, 4

	merged := RunPopulation(chains, burnin, samples)

	if len(merged.Steps) != samples*len(chains) {
		t.Fatalf("merged history has %d steps, want %d", len(merged.Steps), samples*len(chains))
	}

	// Step-major, chain-minor: the first len(chains) entries are step 0
	// of chain 0, 1, 2 in order, carrying each chain's own temperature.
	wantTemps := []float64{1.0, 0.5, 0.25}
	for i, want := range wantTemps {
		if got := merged.Steps[i].Temperature; got != want {
			t.Fatalf("merged.Steps[%d].Temperature = %v, want %v", i, got, want)
		}
	}
	for i, want := range wantTemps {
		secondRound := len(chains) + i
		if got := merged.Steps[secondRound].Temperature; got != want {
			t.Fatalf("merged.Steps[%d].Temperature = %v, want %v (second step)", secondRound, got, want)
		}
	}
}

func TestRunPopulationEachChainHasOwnHistory(t *testing.T) {
	chains := []*Chain{
		newTestChain(t, 10, 1.0),
		newTestChain(t, 20, 1.0),
	}
	RunPopulation(chains, 1, 3)
	for i, c := range chains {
		if len(c.History.Steps) != 3 {
			t.Fatalf("chain %d recorded %d steps, want 3", i, len(c.History.Steps))
		}
	}
}
