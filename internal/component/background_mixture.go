package component

import (
	"math"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// IndependenceMixture is a weighted mixture of independence-Dirichlet
// components, each with its own fixed pseudocount vector. It lets a
// background selector express multi-modal base composition (e.g. GC-rich
// vs. AT-rich regions) without falling back to a full position-dependent
// model. Component weights are fixed at construction, matching the
// original's mixture_dirichlet_t, which precomputes its components'
// marginals the same way a single independence-Dirichlet model does.
//
// The mixture itself is the unit PrecomputeMarginal and the persistent
// cache operate on (see CacheKey): the flat table installed via
// SetMarginal already records the weighted combination across components,
// so LogPredictive becomes a plain table lookup once it is ready, exactly
// as for the other background variants.
type IndependenceMixture struct {
	weights    []float64
	components []*IndependenceBackground
	marginalTable

	sum    float64
	length float64
}

// NewIndependenceMixture builds a mixture from parallel weight and alpha
// slices; weights need not be pre-normalized.
func NewIndependenceMixture(weights []float64, alphas [][]float64) *IndependenceMixture {
	if len(weights) != len(alphas) {
		panic("component: IndependenceMixture: weights and alphas length mismatch")
	}
	total := sumVec(weights)
	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / total
	}
	components := make([]*IndependenceBackground, len(alphas))
	for i, a := range alphas {
		components[i] = NewIndependenceBackground(a)
	}
	return &IndependenceMixture{weights: normalized, components: components}
}

// Add folds r into the mixture's sufficient statistics: the bookkeeping
// is forwarded to every component (keeping their own fixed-marginal
// totals consistent, should any caller inspect them directly) and the
// mixture's own running log-likelihood accumulates its combined score.
func (m *IndependenceMixture) Add(store *seqdata.Store, r seqdata.Range) {
	for _, c := range m.components {
		c.Add(store, r)
	}
	m.sum += m.LogPredictive(store, r)
	m.length += float64(r.Length)
}

func (m *IndependenceMixture) Remove(store *seqdata.Store, r seqdata.Range) {
	for _, c := range m.components {
		c.Remove(store, r)
	}
	m.sum -= m.LogPredictive(store, r)
	m.length -= float64(r.Length)
}

func (m *IndependenceMixture) Count() float64 {
	return m.length
}

// LogPredictive scores r as the weighted combination of every component's
// score, or as a table lookup once the mixture's own precomputed marginal
// has been installed.
func (m *IndependenceMixture) LogPredictive(store *seqdata.Store, r seqdata.Range) float64 {
	if m.Ready() {
		return m.Sum(r)
	}
	terms := make([]float64, len(m.components))
	for i, c := range m.components {
		terms[i] = math.Log(m.weights[i]) + c.LogPredictive(store, r)
	}
	return logSumExp(terms)
}

func (m *IndependenceMixture) LogPredictiveSet(store *seqdata.Store, ranges []seqdata.Range) float64 {
	lp := 0.0
	for _, r := range ranges {
		lp += m.LogPredictive(store, r)
	}
	return lp
}

func (m *IndependenceMixture) LogLikelihood() float64 {
	return m.sum
}

func (m *IndependenceMixture) Clone() Model {
	components := make([]*IndependenceBackground, len(m.components))
	for i, c := range m.components {
		components[i] = c.Clone().(*IndependenceBackground)
	}
	return &IndependenceMixture{
		weights:       append([]float64(nil), m.weights...),
		components:    components,
		marginalTable: m.marginalTable,
		sum:           m.sum,
		length:        m.length,
	}
}

func (m *IndependenceMixture) CacheKey() (string, []float64) {
	params := append([]float64(nil), m.weights...)
	for _, c := range m.components {
		_, a := c.CacheKey()
		params = append(params, a...)
	}
	return "independence-mixture", params
}

// logSumExp computes log(sum(exp(terms))) in a numerically stable way.
func logSumExp(terms []float64) float64 {
	max := math.Inf(-1)
	for _, t := range terms {
		if t > max {
			max = t
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, t := range terms {
		sum += math.Exp(t - max)
	}
	return max + math.Log(sum)
}
