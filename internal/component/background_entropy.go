package component

import (
	"math"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// EntropyBackground scores background columns by cross-entropy against a
// fixed plug-in symbol distribution rather than by full Bayesian
// Dirichlet-multinomial integration. It trades exactness for a cheaper,
// numerically flatter predictive that the original offered as an
// alternative background ("entropy") alongside the Dirichlet-based one.
//
// As with the other background variants, the plug-in distribution is
// fixed once at construction and the per-position score is precomputed
// and cached (spec.md §4.4): Add/Remove never perturb it, they only
// accumulate the already-determined score into the running
// log-likelihood total.
type EntropyBackground struct {
	probs   []float64
	epsilon float64
	marginalTable

	sum    float64
	length float64
}

// NewEntropyBackground builds an entropy-scored background model. epsilon
// seeds a uniform-by-symmetry plug-in distribution: every symbol starts
// with the same pseudocount, so the plug-in probability is 1/AlphabetSize
// regardless of epsilon's magnitude. epsilon is retained for CacheKey and
// as a documented hook for a non-uniform prior distribution.
func NewEntropyBackground(epsilon float64) *EntropyBackground {
	counts := make([]float64, seqdata.AlphabetSize)
	for i := range counts {
		counts[i] = epsilon
	}
	total := 0.0
	for _, c := range counts {
		total += c
	}
	p := make([]float64, len(counts))
	for i, c := range counts {
		p[i] = c / total
	}
	return &EntropyBackground{probs: p, epsilon: epsilon}
}

func (m *EntropyBackground) Add(store *seqdata.Store, r seqdata.Range) {
	m.sum += m.LogPredictive(store, r)
	m.length += float64(r.Length)
}

func (m *EntropyBackground) Remove(store *seqdata.Store, r seqdata.Range) {
	m.sum -= m.LogPredictive(store, r)
	m.length -= float64(r.Length)
}

func (m *EntropyBackground) Count() float64 {
	return m.length
}

// LogPredictive scores r as cross-entropy against the fixed plug-in
// distribution, or as a table lookup once a precomputed marginal has been
// installed.
func (m *EntropyBackground) LogPredictive(store *seqdata.Store, r seqdata.Range) float64 {
	if m.Ready() {
		return m.Sum(r)
	}
	lp := 0.0
	for i := 0; i < r.Length; i++ {
		col := store.RangeColumn(r, i)
		for k, c := range col {
			if c == 0 {
				continue
			}
			lp += c * math.Log(m.probs[k])
		}
	}
	return lp
}

func (m *EntropyBackground) LogPredictiveSet(store *seqdata.Store, ranges []seqdata.Range) float64 {
	lp := 0.0
	for _, r := range ranges {
		lp += m.LogPredictive(store, r)
	}
	return lp
}

// LogLikelihood returns the sum of the fixed marginal over every column
// currently folded into the model, the entropy-model analogue of a
// marginal likelihood.
func (m *EntropyBackground) LogLikelihood() float64 {
	return m.sum
}

func (m *EntropyBackground) Clone() Model {
	return &EntropyBackground{
		probs:         append([]float64(nil), m.probs...),
		epsilon:       m.epsilon,
		marginalTable: m.marginalTable,
		sum:           m.sum,
		length:        m.length,
	}
}

func (m *EntropyBackground) CacheKey() (string, []float64) {
	return "entropy", []float64{m.epsilon}
}
