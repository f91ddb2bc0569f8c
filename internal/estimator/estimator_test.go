package estimator

import (
	"testing"

	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/sampler"
)

func site(seq, pos, width, tag int) sampler.Site {
	return sampler.Site{Seq: seq, Pos: pos, Width: width, Tag: cluster.Tag(tag)}
}

func TestDistanceIdenticalPartitionsIsZero(t *testing.T) {
	a := sampler.Partition{site(0, 0, 3, 1), site(0, 5, 3, 2)}
	b := sampler.Partition{site(0, 0, 3, 1), site(0, 5, 3, 2)}
	if d := Distance(a, b); d != 0 {
		t.Fatalf("Distance(identical) = %d, want 0", d)
	}
}

func TestDistanceDetectsMergedClusters(t *testing.T) {
	a := sampler.Partition{site(0, 0, 2, 1), site(0, 2, 2, 2)}
	b := sampler.Partition{site(0, 0, 2, 1), site(0, 2, 2, 1)}
	if d := Distance(a, b); d == 0 {
		t.Fatalf("expected nonzero distance when b merges two clusters a keeps separate")
	}
}

func TestMAPPicksHighestLogPosterior(t *testing.T) {
	h := &sampler.History{
		Steps: []sampler.Step{
			{LogPosterior: -10, Temperature: 1},
			{LogPosterior: -2, Temperature: 1},
			{LogPosterior: -5, Temperature: 1},
		},
		Partitions: []sampler.Partition{
			{site(0, 0, 2, 1)},
			{site(0, 2, 2, 9)},
			{site(0, 4, 2, 3)},
		},
	}
	got := MAP(h)
	if len(got) != 1 || got[0].Tag != 9 {
		t.Fatalf("MAP = %v, want the step-1 partition (tag 9)", got)
	}
}

func TestMAPExcludesTemperatureAboveOne(t *testing.T) {
	h := &sampler.History{
		Steps: []sampler.Step{
			{LogPosterior: 100, Temperature: 2}, // hottest, highest posterior, must be excluded
			{LogPosterior: -5, Temperature: 1},
		},
		Partitions: []sampler.Partition{
			{site(0, 0, 2, 1)},
			{site(0, 2, 2, 9)},
		},
	}
	got := MAP(h)
	if len(got) != 1 || got[0].Tag != 9 {
		t.Fatalf("MAP = %v, want the temperature<=1 partition (tag 9)", got)
	}
}

func TestMeanAndMedianReturnPooledSample(t *testing.T) {
	h := &sampler.History{
		Steps: []sampler.Step{
			{Temperature: 1}, {Temperature: 1}, {Temperature: 1},
		},
		Partitions: []sampler.Partition{
			{site(0, 0, 2, 1)},
			{site(0, 0, 2, 1), site(0, 4, 2, 2)},
			{site(0, 0, 2, 1)},
		},
	}
	mean := Mean(h)
	median := Median(h)
	if mean == nil || median == nil {
		t.Fatalf("Mean/Median returned nil on a non-empty pooled history")
	}
}
