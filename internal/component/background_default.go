package component

import (
	"math"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// DefaultBackground is the background model the "default" selector picks
// (the configuration's own default selector is "independence"): an
// independence-Dirichlet model whose pseudocount vector
// (alpha) is itself fit to the data by maximizing the log marginal
// likelihood under a Gamma(shape, rate) prior, using a resilient
// backprop-style gradient ascent (Rprop) rather than a closed-form
// update. Once fit, Add/Remove/LogPredictive behave exactly like
// IndependenceBackground with the fitted alpha held fixed -- per
// spec.md §4.4 the fitted alpha determines a fixed, precomputed marginal,
// not a running posterior (see marginalTable).
type DefaultBackground struct {
	alpha []float64
	marginalTable

	sum    float64
	length float64

	gammaShape float64
	gammaRate  float64
}

// RpropOptions configures the resilient-backprop ascent used to fit alpha.
type RpropOptions struct {
	Iterations int
	InitStep   float64
	MinStep    float64
	MaxStep    float64
	EtaPlus    float64
	EtaMinus   float64
}

// DefaultRpropOptions returns the step-size schedule used when no
// override is given: a conservative initial step with the classical
// Rprop 1.2/0.5 expand/shrink factors.
func DefaultRpropOptions() RpropOptions {
	return RpropOptions{
		Iterations: 200,
		InitStep:   0.1,
		MinStep:    1e-6,
		MaxStep:    10,
		EtaPlus:    1.2,
		EtaMinus:   0.5,
	}
}

// NewDefaultBackground builds a default background model with a Gamma
// prior over each pseudocount component and an initial alpha equal to the
// prior mean (shape/rate).
func NewDefaultBackground(gammaShape, gammaRate float64) *DefaultBackground {
	mean := gammaShape / gammaRate
	alpha := make([]float64, seqdata.AlphabetSize)
	for i := range alpha {
		alpha[i] = mean
	}
	return &DefaultBackground{
		alpha:      alpha,
		gammaShape: gammaShape,
		gammaRate:  gammaRate,
	}
}

// Fit runs Rprop ascent on the log marginal likelihood (plus the Gamma
// prior's log density) of obs -- the total per-symbol counts observed
// over the background ranges the model will be scored against -- and
// replaces alpha with the fitted pseudocounts. Call this once after
// loading the data and before sampling begins; it is the Go counterpart
// of the original's gradient_ascent pass over default_background_t.
func (m *DefaultBackground) Fit(obs []float64, opts RpropOptions) {
	alpha := append([]float64(nil), m.alpha...)
	step := make([]float64, len(alpha))
	prevGrad := make([]float64, len(alpha))
	for i := range step {
		step[i] = opts.InitStep
	}

	for iter := 0; iter < opts.Iterations; iter++ {
		grad := m.gradient(alpha, obs)
		for k := range alpha {
			switch {
			case grad[k]*prevGrad[k] > 0:
				step[k] = math.Min(step[k]*opts.EtaPlus, opts.MaxStep)
			case grad[k]*prevGrad[k] < 0:
				step[k] = math.Max(step[k]*opts.EtaMinus, opts.MinStep)
				grad[k] = 0
			}
			if grad[k] > 0 {
				alpha[k] += step[k]
			} else if grad[k] < 0 {
				alpha[k] -= step[k]
			}
			if alpha[k] < opts.MinStep {
				alpha[k] = opts.MinStep
			}
		}
		prevGrad = grad
	}

	m.alpha = alpha
}

// gradient computes d/dalpha_k of [log marginal likelihood of obs under
// alpha] + [log Gamma(shape, rate) prior density], holding obs fixed.
func (m *DefaultBackground) gradient(alpha, obs []float64) []float64 {
	n := addVec(alpha, obs)
	sumN := sumVec(n)
	sumAlpha := sumVec(alpha)

	digSumN := digamma(sumN)
	digSumAlpha := digamma(sumAlpha)

	grad := make([]float64, len(alpha))
	for k := range alpha {
		grad[k] = digamma(n[k]) - digSumN - digamma(alpha[k]) + digSumAlpha
		grad[k] += (m.gammaShape-1)/alpha[k] - m.gammaRate
	}
	return grad
}

// Add folds r into the background cluster's sufficient statistics. Since
// every position's marginal is fixed and precomputed once alpha has been
// fit, this is bookkeeping only: it accumulates the range's
// already-determined log-predictive score into the running
// log-likelihood total.
func (m *DefaultBackground) Add(store *seqdata.Store, r seqdata.Range) {
	m.sum += m.LogPredictive(store, r)
	m.length += float64(r.Length)
}

// Remove undoes Add.
func (m *DefaultBackground) Remove(store *seqdata.Store, r seqdata.Range) {
	m.sum -= m.LogPredictive(store, r)
	m.length -= float64(r.Length)
}

func (m *DefaultBackground) Count() float64 {
	return m.length
}

// LogPredictive scores r against the model's fixed marginal. Once a
// precomputed table has been installed (SetMarginal) this is a table
// lookup; before that -- only true while PrecomputeMarginal is itself
// evaluating a fresh clone of this model -- it falls back to the raw
// Dirichlet-multinomial prior predictive under the fitted alpha.
func (m *DefaultBackground) LogPredictive(store *seqdata.Store, r seqdata.Range) float64 {
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

func (m *DefaultBackground) LogPredictiveSet(store *seqdata.Store, ranges []seqdata.Range) float64 {
	lp := 0.0
	for _, r := range ranges {
		lp += m.LogPredictive(store, r)
	}
	return lp
}

// LogLikelihood returns the sum of the fixed marginal over every column
// currently folded into the model.
func (m *DefaultBackground) LogLikelihood() float64 {
	return m.sum
}

func (m *DefaultBackground) Clone() Model {
	return &DefaultBackground{
		alpha:         append([]float64(nil), m.alpha...),
		marginalTable: m.marginalTable,
		sum:           m.sum,
		length:        m.length,
		gammaShape:    m.gammaShape,
		gammaRate:     m.gammaRate,
	}
}

func (m *DefaultBackground) CacheKey() (string, []float64) {
	return "default", append([]float64(nil), m.alpha...)
}

func sumVec(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total
}

// digamma approximates the digamma function via the standard recurrence
// (shift x up past 6) plus asymptotic expansion, accurate to float64
// precision for the x > 0 domain pseudocounts live in.
func digamma(x float64) float64 {
	result := 0.0
	for x < 6 {
		result -= 1 / x
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	result += math.Log(x) - 0.5*inv
	result -= inv2 * (1.0/12 - inv2*(1.0/120-inv2*(1.0/252)))
	return result
}
