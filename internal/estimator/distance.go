// Package estimator derives point estimates (Frechet mean, geometric
// median, MAP) from a pooled sampling history of partitions.
package estimator

import "github.com/fidde/dpmtfbs/internal/sampler"

// position identifies one aligned column, independent of which package
// defines the coordinate type, so this package stays decoupled from
// seqdata.
type position struct {
	Seq, Pos int
}

// clusterOf maps every position covered by a partition to the tag of
// the foreground site that owns it.
func clusterOf(p sampler.Partition) map[position]int {
	m := make(map[position]int)
	for _, site := range p {
		for k := 0; k < site.Width; k++ {
			m[position{Seq: site.Seq, Pos: site.Pos + k}] = int(site.Tag)
		}
	}
	return m
}

// Distance counts, over every unordered pair of positions covered by
// either a or b, how many pairs the two partitions disagree on whether
// the pair lies inside the same foreground cluster. A position not
// covered by a given partition is never "the same cluster" as anything
// under that partition.
func Distance(a, b sampler.Partition) int {
	ca := clusterOf(a)
	cb := clusterOf(b)

	union := make(map[position]struct{}, len(ca)+len(cb))
	for p := range ca {
		union[p] = struct{}{}
	}
	for p := range cb {
		union[p] = struct{}{}
	}

	positions := make([]position, 0, len(union))
	for p := range union {
		positions = append(positions, p)
	}

	distance := 0
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if sameCluster(ca, positions[i], positions[j]) != sameCluster(cb, positions[i], positions[j]) {
				distance++
			}
		}
	}
	return distance
}

func sameCluster(c map[position]int, i, j position) bool {
	ti, ok1 := c[i]
	tj, ok2 := c[j]
	return ok1 && ok2 && ti == tj
}
