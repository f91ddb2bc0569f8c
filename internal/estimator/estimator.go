package estimator

import "github.com/fidde/dpmtfbs/internal/sampler"

// Loss combines a list of pairwise partition distances into the
// objective Estimate minimizes. Mean uses quadratic loss (sum of squared
// distances); Median uses linear loss (sum of distances).
type Loss func(distances []int) float64

// QuadraticLoss sums squared distances, the loss the Frechet mean
// minimizes.
func QuadraticLoss(distances []int) float64 {
	total := 0.0
	for _, d := range distances {
		total += float64(d) * float64(d)
	}
	return total
}

// LinearLoss sums distances, the loss the geometric median minimizes.
func LinearLoss(distances []int) float64 {
	total := 0.0
	for _, d := range distances {
		total += float64(d)
	}
	return total
}

// pooled filters h to the samples the estimator is allowed to use:
// partitions recorded at temperature <= 1 (temperature > 1 marks an
// annealed replica that never represents the target posterior).
func pooled(h *sampler.History) []int {
	var idx []int
	for i, step := range h.Steps {
		if step.Temperature <= 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Estimate returns the index (into h.Partitions) of the sample that
// minimizes loss over its distances to every other pooled sample. It is
// O(m^2) in the number of pooled samples, which is acceptable for the
// sample counts a sampling run typically records.
func Estimate(h *sampler.History, loss Loss) (int, sampler.Partition) {
	idx := pooled(h)
	if len(idx) == 0 {
		return -1, nil
	}

	best := idx[0]
	bestLoss := loss(distancesTo(h, idx, idx[0]))
	for _, k := range idx[1:] {
		l := loss(distancesTo(h, idx, k))
		if l < bestLoss {
			bestLoss = l
			best = k
		}
	}
	return best, h.Partitions[best]
}

func distancesTo(h *sampler.History, pool []int, k int) []int {
	distances := make([]int, 0, len(pool))
	for _, i := range pool {
		distances = append(distances, Distance(h.Partitions[i], h.Partitions[k]))
	}
	return distances
}

// Mean returns the Frechet mean partition: the pooled sample closest, in
// squared-distance, to every other pooled sample.
func Mean(h *sampler.History) sampler.Partition {
	_, p := Estimate(h, QuadraticLoss)
	return p
}

// Median returns the geometric median partition: the pooled sample
// closest, in total distance, to every other pooled sample.
func Median(h *sampler.History) sampler.Partition {
	_, p := Estimate(h, LinearLoss)
	return p
}

// MAP returns the pooled sample with the largest recorded log-posterior.
func MAP(h *sampler.History) sampler.Partition {
	idx := pooled(h)
	if len(idx) == 0 {
		return nil
	}
	best := idx[0]
	for _, i := range idx[1:] {
		if h.Steps[i].LogPosterior > h.Steps[best].LogPosterior {
			best = i
		}
	}
	return h.Partitions[best]
}
