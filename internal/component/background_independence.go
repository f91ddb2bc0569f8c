package component

import "github.com/fidde/dpmtfbs/internal/seqdata"

// IndependenceBackground models background columns as i.i.d. draws from a
// single Dirichlet-multinomial distribution shared across the whole
// alignment: one pseudocount vector, no notion of position. It is the
// cheapest of the four background variants and the one most amenable to
// the persistent marginal cache (its cache key is just the pseudocount
// vector and a checksum of the data it was fit on).
//
// Per spec.md §4.4 the model's per-position score is a fixed marginal
// fixed once for the whole run and precomputed up front (see
// PrecomputeMarginal): Add/Remove never perturb that score, they only
// update the running log-likelihood and column-count bookkeeping that
// assigning/unassigning columns to this cluster requires.
type IndependenceBackground struct {
	alpha []float64
	marginalTable

	sum    float64
	length float64
}

// NewIndependenceBackground builds a background model with the given
// Dirichlet pseudocount vector (length AlphabetSize).
func NewIndependenceBackground(alpha []float64) *IndependenceBackground {
	return &IndependenceBackground{
		alpha: append([]float64(nil), alpha...),
	}
}

// Add folds r into the background cluster's sufficient statistics. Since
// every position's marginal is fixed and precomputed, this is bookkeeping
// only: it accumulates the range's already-determined log-predictive
// score into the running log-likelihood total.
func (m *IndependenceBackground) Add(store *seqdata.Store, r seqdata.Range) {
	m.sum += m.LogPredictive(store, r)
	m.length += float64(r.Length)
}

// Remove undoes Add.
func (m *IndependenceBackground) Remove(store *seqdata.Store, r seqdata.Range) {
	m.sum -= m.LogPredictive(store, r)
	m.length -= float64(r.Length)
}

// Count returns the number of columns currently folded into the model.
func (m *IndependenceBackground) Count() float64 {
	return m.length
}

// LogPredictive scores r against the model's fixed marginal. Once a
// precomputed table has been installed (SetMarginal) this is a table
// lookup; before that -- only true while PrecomputeMarginal is itself
// evaluating a fresh clone of this model -- it falls back to the raw
// Dirichlet-multinomial prior predictive, independent of any data
// previously folded in.
func (m *IndependenceBackground) LogPredictive(store *seqdata.Store, r seqdata.Range) float64 {
	if m.Ready() {
		return m.Sum(r)
	}
	lp := 0.0
	for i := 0; i < r.Length; i++ {
		col := store.RangeColumn(r, i)
		lp += lnBeta(addVec(m.alpha, col)) - lnBeta(m.alpha)
	}
	return lp
}

func (m *IndependenceBackground) LogPredictiveSet(store *seqdata.Store, ranges []seqdata.Range) float64 {
	lp := 0.0
	for _, r := range ranges {
		lp += m.LogPredictive(store, r)
	}
	return lp
}

// LogLikelihood returns the sum of the fixed marginal over every column
// currently folded into the model.
func (m *IndependenceBackground) LogLikelihood() float64 {
	return m.sum
}

func (m *IndependenceBackground) Clone() Model {
	return &IndependenceBackground{
		alpha:         append([]float64(nil), m.alpha...),
		marginalTable: m.marginalTable,
		sum:           m.sum,
		length:        m.length,
	}
}

// CacheKey returns the identifiers the persistent marginal cache uses to
// recognize an equivalent precomputed model: a stable model identifier and
// its parameter vector (the cache additionally checksums the data).
func (m *IndependenceBackground) CacheKey() (string, []float64) {
	return "independence-dirichlet", append([]float64(nil), m.alpha...)
}
