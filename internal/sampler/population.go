package sampler

import (
	"math"
	"math/rand"
	"sync"

	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/state"
)

// Chain bundles one population member's state, its Gibbs sampler, and
// its recorded history. The population driver owns a slice of these and
// never lets one chain's goroutine touch another's.
type Chain struct {
	State   *state.State
	Gibbs   *Gibbs
	History History
}

// RunPopulation runs len(chains) independent chains concurrently, each
// for burnin discarded sweeps followed by samples recorded sweeps, and
// returns the merged, step-major/chain-minor history. Chain i's
// Gibbs.Temperature is used as the recorded temperature for every step
// it produces.
func RunPopulation(chains []*Chain, burnin, samples int) *History {
	var wg sync.WaitGroup
	wg.Add(len(chains))
	for _, c := range chains {
		c := c
		go func() {
			defer wg.Done()
			runChain(c, burnin, samples)
		}()
	}
	wg.Wait()

	histories := make([]*History, len(chains))
	for i, c := range chains {
		histories[i] = &c.History
	}
	return MergeStepMajor(histories)
}

func runChain(c *Chain, burnin, samples int) {
	for i := 0; i < burnin; i++ {
		c.Gibbs.Sweep()
		c.Gibbs.MetropolisStep()
	}
	for i := 0; i < samples; i++ {
		switches := c.Gibbs.Sweep()
		c.Gibbs.MetropolisStep()
		ll, numComponents, sizes := chainScalars(c.State)
		logPosterior := ll + partitionLogPrior(sizes, c.Gibbs.Alpha, c.Gibbs.Discount)
		c.History.Append(Step{
			Switches:      switches,
			LogLikelihood: ll,
			LogPosterior:  logPosterior,
			NumComponents: numComponents,
			Temperature:   c.Gibbs.Temperature,
		}, snapshotPartition(c.State))
	}
}

// chainScalars sums every used cluster's marginal log-likelihood (the
// background's included), counts how many foreground clusters are
// currently occupied, and collects their sizes for the partition prior.
func chainScalars(s *state.State) (logLikelihood float64, numComponents int, sizes []int) {
	for _, tag := range s.Manager.UsedClusters() {
		c := s.Manager.Get(tag)
		if c == nil {
			continue
		}
		logLikelihood += c.Model.LogLikelihood()
		if c.Destructible && c.BaselineTag == s.ForegroundBaseline {
			numComponents++
			sizes = append(sizes, c.Size)
		}
	}
	return logLikelihood, numComponents, sizes
}

// partitionLogPrior returns the log exchangeable partition probability
// (EPPF) of a Pitman-Yor process with concentration alpha and discount d
// over a partition of the foreground TFBS sites into clusters of the
// given sizes -- the mixture prior term the Gibbs sampler's own
// candidate weights already encode (see Gibbs.candidates), added to the
// data log-likelihood so LogPosterior scores an actual joint posterior
// rather than duplicating LogLikelihood. d == 0 recovers the ordinary
// Dirichlet process (Chinese restaurant process) partition prior.
func partitionLogPrior(sizes []int, alpha, discount float64) float64 {
	n := 0
	for _, sz := range sizes {
		n += sz
	}
	if n == 0 {
		return 0
	}
	lp := 0.0
	for i := 1; i < len(sizes); i++ {
		lp += math.Log(alpha + float64(i)*discount)
	}
	for j := 1; j < n; j++ {
		lp -= math.Log(alpha + float64(j))
	}
	for _, sz := range sizes {
		for m := 1; m < sz; m++ {
			lp += math.Log(float64(m) - discount)
		}
	}
	return lp
}

// snapshotPartition records every currently placed binding site as a
// Site, the minimal representation the posterior estimator needs to
// compute partition distances.
func snapshotPartition(s *state.State) Partition {
	var sites Partition
	s.ForEachTFBS(func(seq, pos, width int, tag cluster.Tag, reverse bool) {
		sites = append(sites, Site{Seq: seq, Pos: pos, Width: width, Tag: tag, Reverse: reverse})
	})
	return sites
}

// NewRNG seeds a chain-local random source. Each chain must use its own
// *rand.Rand: math/rand.Rand is not safe for concurrent use, matching
// the "RNG owned by exactly one chain" rule the population driver
// depends on.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
