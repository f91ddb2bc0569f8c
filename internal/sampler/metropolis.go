package sampler

import (
	"math"
	"math/rand"

	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/seqdata"
	"github.com/fidde/dpmtfbs/internal/state"
)

// MetropolisStep proposes one whole-cluster or single-range shift move,
// interleaved between Gibbs sweeps per spec.md §4.6. With probability
// 1-MetropolisMoveProbability it does nothing. A rejected proposal
// restores the pre-move checkpoint, leaving the state exactly as it was
// before MetropolisStep was called.
func (g *Gibbs) MetropolisStep() {
	if g.MetropolisMoveProbability <= 0 || g.Rng.Float64() >= g.MetropolisMoveProbability {
		return
	}
	tags := g.foregroundTags()
	if len(tags) == 0 {
		return
	}
	tag := tags[g.Rng.Intn(len(tags))]
	if g.Rng.Intn(2) == 0 {
		g.proposeClusterShift(tag)
	} else {
		g.proposeSingleShift(tag)
	}
}

// foregroundTags lists every currently used, destructible cluster sharing
// this sampler's foreground baseline — the clusters a shift move may
// target.
func (g *Gibbs) foregroundTags() []cluster.Tag {
	s := g.State
	var tags []cluster.Tag
	for _, tag := range s.Manager.UsedClusters() {
		c := s.Manager.Get(tag)
		if c != nil && c.Destructible && c.BaselineTag == s.ForegroundBaseline {
			tags = append(tags, tag)
		}
	}
	return tags
}

// proposeClusterShift proposes move_left/move_right of every range owned
// by tag by a small random step, accepting per the Metropolis-Hastings
// rule against the state's total log-likelihood.
func (g *Gibbs) proposeClusterShift(tag cluster.Tag) {
	s := g.State
	before := totalLogLikelihood(s)
	cp := s.Save()

	n := 1 + g.Rng.Intn(3)
	var moved bool
	if g.Rng.Intn(2) == 0 {
		moved = s.MoveLeft(tag, n)
	} else {
		moved = s.MoveRight(tag, n)
	}
	if !moved {
		// shiftCluster already rolled back to leave the cluster
		// nonempty; nothing further to undo.
		return
	}
	if !acceptMove(g.Rng, before, totalLogLikelihood(s)) {
		s.Restore(cp)
	}
}

// proposeSingleShift proposes shifting one randomly chosen site owned by
// tag by one column, accepting per the Metropolis-Hastings rule.
func (g *Gibbs) proposeSingleShift(tag cluster.Tag) {
	s := g.State

	var sites []seqdata.Index
	s.ForEachTFBS(func(seq, pos, _ int, t cluster.Tag, _ bool) {
		if t == tag {
			sites = append(sites, seqdata.Index{Seq: seq, Pos: pos})
		}
	})
	if len(sites) == 0 {
		return
	}
	from := sites[g.Rng.Intn(len(sites))]
	tagAt, reverse, ok := s.TFBSAt(from)
	if !ok {
		return
	}

	step := 1
	if g.Rng.Intn(2) == 0 {
		step = -1
	}
	to := seqdata.Index{Seq: from.Seq, Pos: from.Pos + step}

	before := totalLogLikelihood(s)
	cp := s.Save()

	if err := s.RemoveTFBS(from); err != nil {
		return
	}
	if !s.ValidTFBSPosition(to) {
		s.Restore(cp)
		return
	}
	s.RemoveBackground(to)
	if err := s.AddTFBS(to, tagAt, reverse); err != nil {
		s.Restore(cp)
		return
	}
	if !acceptMove(g.Rng, before, totalLogLikelihood(s)) {
		s.Restore(cp)
	}
}

// totalLogLikelihood sums every currently used cluster's marginal
// log-likelihood, the quantity the Metropolis acceptance ratio compares
// before and after a proposed move.
func totalLogLikelihood(s *state.State) float64 {
	total := 0.0
	for _, tag := range s.Manager.UsedClusters() {
		if c := s.Manager.Get(tag); c != nil {
			total += c.Model.LogLikelihood()
		}
	}
	return total
}

// acceptMove implements min(1, exp(after-before)) acceptance.
func acceptMove(rng *rand.Rand, before, after float64) bool {
	delta := after - before
	if delta >= 0 {
		return true
	}
	return rng.Float64() < math.Exp(delta)
}
