package sampler

import (
	"math"
	"math/rand"

	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/seqdata"
	"github.com/fidde/dpmtfbs/internal/state"
)

// Gibbs reassigns every sampling position once per Sweep, using the
// Dirichlet-process (or Pitman-Yor, when Discount > 0) mixture weights
// over the currently used foreground clusters, a fresh cluster, and the
// background.
type Gibbs struct {
	State    *state.State
	Rng      *rand.Rand
	Alpha    float64
	Discount float64
	Lambda   float64
	// Temperature anneals the log-predictive terms (raises the
	// integrand to 1/Temperature) the way a parallel-tempered chain's
	// hot replicas do; 1.0 recovers the untempered posterior.
	Temperature float64

	// MetropolisMoveProbability is the chance, per sweep, that a
	// whole-cluster or single-range shift move is proposed between
	// Gibbs sweeps (spec.md §4.6). Zero (the NewGibbs default) disables
	// Metropolis moves entirely.
	MetropolisMoveProbability float64

	indices []seqdata.Index
}

// NewGibbs builds a sampler over every position in s's data store.
func NewGibbs(s *state.State, rng *rand.Rand, alpha, discount, lambda, temperature float64) *Gibbs {
	var indices []seqdata.Index
	for seq := 0; seq < s.Store.NumSequences(); seq++ {
		for pos := 0; pos < s.Store.Len(seq); pos++ {
			indices = append(indices, seqdata.Index{Seq: seq, Pos: pos})
		}
	}
	return &Gibbs{
		State:       s,
		Rng:         rng,
		Alpha:       alpha,
		Discount:    discount,
		Lambda:      lambda,
		Temperature: temperature,
		indices:     indices,
	}
}

type candidate struct {
	weight  float64
	kind    candidateKind
	tag     cluster.Tag
	reverse bool
}

type candidateKind int

const (
	candidateBackground candidateKind = iota
	candidateExisting
	candidateFresh
)

// Sweep performs one full pass over every position, in a fresh random
// order, and returns how many positions changed cluster.
func (g *Gibbs) Sweep() int {
	order := g.Rng.Perm(len(g.indices))
	switches := 0
	for _, i := range order {
		if g.step(g.indices[i]) {
			switches++
		}
	}
	return switches
}

// step resamples the cluster assignment of idx and reports whether it
// changed.
func (g *Gibbs) step(idx seqdata.Index) bool {
	s := g.State

	prevTag, prevReverse, wasStart := s.TFBSAt(idx)
	wasBackground := !wasStart
	if !wasStart {
		// Interior of someone else's site: not independently resampled.
		if _, free := s.GetFreeRange(idx); !free {
			return false
		}
	}

	// Retract the current assignment. RemoveTFBS folds the whole W-wide
	// site back into background first, so both branches leave idx itself
	// needing one more single-column release: idx is never left
	// double-counted in background while the interior columns of a
	// retracted site settle into their restored background ownership.
	if wasStart {
		_ = s.RemoveTFBS(idx)
	}
	s.RemoveBackground(idx)

	// candidates always includes at least the background option.
	chosen := g.sample(g.candidates(idx))
	changed := false
	switch chosen.kind {
	case candidateBackground:
		s.AddBackground(idx)
		changed = wasBackground == false
	case candidateExisting:
		_ = s.AddTFBS(idx, chosen.tag, chosen.reverse)
		changed = wasBackground || prevTag != chosen.tag || prevReverse != chosen.reverse
	case candidateFresh:
		c, err := s.Manager.AcquireFreeCluster(s.ForegroundBaseline)
		if err != nil {
			s.AddBackground(idx)
			return wasBackground == false
		}
		_ = s.AddTFBS(idx, c.Tag, chosen.reverse)
		changed = true
	}
	return changed
}

// candidates builds the mixture over background, every currently used
// foreground cluster (both strands), and one fresh cluster (both
// strands), skipping foreground options that would not fit at idx.
func (g *Gibbs) candidates(idx seqdata.Index) []candidate {
	s := g.State
	var out []candidate

	bgRange := seqdata.Range{Start: idx, Length: 1}
	out = append(out, candidate{
		weight: math.Log(1-g.Lambda) + s.BackgroundCluster.Model.LogPredictive(s.Store, bgRange)/g.Temperature,
		kind:   candidateBackground,
	})

	if !s.ValidTFBSPosition(idx) {
		return out
	}

	numTFBS := float64(s.NumTFBS())
	denom := numTFBS + g.Alpha

	for _, tag := range s.Manager.UsedClusters() {
		c := s.Manager.Get(tag)
		if c == nil || !c.Destructible || c.BaselineTag != s.ForegroundBaseline {
			continue
		}
		size := float64(c.Size) - g.Discount
		if size <= 0 {
			continue
		}
		for _, reverse := range [...]bool{false, true} {
			r := seqdata.Range{Start: idx, Length: s.Width, Reverse: reverse}
			lp := c.Model.LogPredictive(s.Store, r)
			out = append(out, candidate{
				weight:  math.Log(g.Lambda*size/denom) + lp/g.Temperature,
				kind:    candidateExisting,
				tag:     tag,
				reverse: reverse,
			})
		}
	}

	template := s.Manager.PeekBaseline(s.ForegroundBaseline)
	if template != nil {
		freshWeight := math.Log(g.Lambda * g.Alpha / denom)
		for _, reverse := range [...]bool{false, true} {
			r := seqdata.Range{Start: idx, Length: s.Width, Reverse: reverse}
			lp := template.LogPredictive(s.Store, r)
			out = append(out, candidate{
				weight:  freshWeight + lp/g.Temperature,
				kind:    candidateFresh,
				reverse: reverse,
			})
		}
	}
	return out
}

// sample draws one candidate from the log-space weights using the
// numerically stable exp-normalize-and-cumulate method.
func (g *Gibbs) sample(candidates []candidate) candidate {
	maxW := math.Inf(-1)
	for _, c := range candidates {
		if c.weight > maxW {
			maxW = c.weight
		}
	}
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, c := range candidates {
		w := math.Exp(c.weight - maxW)
		weights[i] = w
		total += w
	}
	target := g.Rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if target <= cumulative {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}
