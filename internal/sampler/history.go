// Package sampler implements the Gibbs sampler that reassigns sequence
// positions between the background and foreground (motif) clusters, and
// the population driver that runs several such chains in parallel and
// merges their sampling histories.
package sampler

import "github.com/fidde/dpmtfbs/internal/cluster"

// Site is one placed binding site, recorded as part of a partition
// snapshot in a sampling history.
type Site struct {
	Seq     int
	Pos     int
	Width   int
	Tag     cluster.Tag
	Reverse bool
}

// Partition is the set of binding sites placed at one sampling step.
type Partition []Site

// Step holds the per-step scalars a sampling history records alongside
// each partition: how many positions switched cluster this step, the
// running log-likelihood and log-posterior, the number of occupied
// foreground clusters, and the chain's annealing temperature.
type Step struct {
	Switches      int
	LogLikelihood float64
	LogPosterior  float64
	NumComponents int
	Temperature   float64
}

// History is one chain's ordered record of sampling steps and the
// partition observed after each.
type History struct {
	Steps      []Step
	Partitions []Partition
}

// Append records one sampling step.
func (h *History) Append(step Step, partition Partition) {
	h.Steps = append(h.Steps, step)
	h.Partitions = append(h.Partitions, partition)
}

// MergeStepMajor pools per-chain histories into one, interleaving in
// step-major, chain-minor order: step 0 of every chain, then step 1 of
// every chain, and so on. Chains must all have the same length; a
// shorter chain's tail is treated as absent for steps beyond its length.
func MergeStepMajor(histories []*History) *History {
	merged := &History{}
	maxLen := 0
	for _, h := range histories {
		if len(h.Steps) > maxLen {
			maxLen = len(h.Steps)
		}
	}
	for step := 0; step < maxLen; step++ {
		for _, h := range histories {
			if step >= len(h.Steps) {
				continue
			}
			merged.Steps = append(merged.Steps, h.Steps[step])
			merged.Partitions = append(merged.Partitions, h.Partitions[step])
		}
	}
	return merged
}
