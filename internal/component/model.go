// Package component implements the pluggable component models that back
// each cluster: a foreground product-Dirichlet model over motif columns,
// and four background models (independence-Dirichlet, entropy,
// default/gradient-ascent, and independence-mixture) over everything else.
//
// Model is a closed sum type by convention, not by sealed interface: the
// four background variants (background_*.go) and the one foreground
// variant (product_dirichlet.go) are the only implementations samplers
// are expected to dispatch over, matching the fixed-set dynamic dispatch
// the original C++ used virtual calls for.
package component

import "github.com/fidde/dpmtfbs/internal/seqdata"

// Model is the statistical interface every cluster's component model
// implements: accumulate or release evidence from a range, and score how
// well a range fits the accumulated evidence.
type Model interface {
	// Add folds the counts of r into the model's running statistics.
	Add(store *seqdata.Store, r seqdata.Range)
	// Remove undoes a prior Add of the same range.
	Remove(store *seqdata.Store, r seqdata.Range)
	// Count returns how much has been folded into the model's running
	// statistics: motif occurrences for the foreground ProductDirichlet,
	// columns for the background models.
	Count() float64
	// LogPredictive returns the log predictive probability of r under
	// the model's current (posterior) parameters, without folding it in.
	// Returns math.Inf(-1) if r's length does not match the model's
	// column width (W for foreground models; ignored by background
	// models, which are width-1 and evaluated column-by-column).
	LogPredictive(store *seqdata.Store, r seqdata.Range) float64
	// LogPredictiveSet scores a batch of ranges that are assumed to
	// share the same per-column identity (a TFBS's aligned columns
	// across co-assigned ranges), summing counts once per column before
	// evaluating. Used by the foreground model only; background models
	// may fall back to summing LogPredictive over the set.
	LogPredictiveSet(store *seqdata.Store, ranges []seqdata.Range) float64
	// LogLikelihood returns the marginal log likelihood of all data
	// folded into the model so far, integrating out its parameters.
	LogLikelihood() float64
	// Clone returns an independent copy of the model with the same
	// running statistics, used to checkpoint state for Metropolis moves.
	Clone() Model
}
