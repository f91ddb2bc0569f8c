package report

import (
	"strings"
	"testing"

	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/component"
	"github.com/fidde/dpmtfbs/internal/sampler"
	"github.com/fidde/dpmtfbs/internal/seqdata"
)

func uniformStore(t *testing.T, numSeq, length int) *seqdata.Store {
	t.Helper()
	names := make([]string, numSeq)
	columns := make([][][]float64, numSeq)
	for s := range columns {
		names[s] = "seq"
		columns[s] = make([][]float64, length)
		for p := range columns[s] {
			columns[s][p] = []float64{1, 1, 1, 1, 0}
		}
	}
	store, err := seqdata.New(names, columns)
	if err != nil {
		t.Fatalf("seqdata.New: %v", err)
	}
	return store
}

func TestFromHistoryComputesInclusionFraction(t *testing.T) {
	store := uniformStore(t, 2, 5)
	h := &sampler.History{
		Partitions: []sampler.Partition{
			{{Seq: 0, Pos: 1, Width: 3, Tag: 1}},
			{},
		},
		Steps: []sampler.Step{{Temperature: 1}, {Temperature: 1}},
	}

	p := FromHistory(store, h)
	if p[0][1] != 0.5 {
		t.Fatalf("posterior[0][1] = %v, want 0.5", p[0][1])
	}
	if p[0][0] != 0 {
		t.Fatalf("posterior[0][0] = %v, want 0", p[0][0])
	}
}

func TestWriteProducesAllSections(t *testing.T) {
	store := uniformStore(t, 1, 3)
	posterior := FromHistory(store, &sampler.History{})

	manager := cluster.NewManager()
	bg := manager.AddFixedCluster(component.NewIndependenceBackground([]float64{1, 1, 1, 1, 1}))
	baseline := manager.RegisterBaseline(component.NewProductDirichlet(2, []float64{1, 1, 1, 1, 1}))
	fg, err := manager.AcquireFreeCluster(baseline)
	if err != nil {
		t.Fatalf("AcquireFreeCluster: %v", err)
	}
	manager.AddWord(fg, store, seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 2})
	_ = bg

	var buf strings.Builder
	hist := &sampler.History{}
	if err := Write(&buf, store, posterior, []*sampler.History{hist}, manager); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"posterior =", "components =", "switches =", "likelihood =", "cluster =", "cluster_"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing section %q:\n%s", want, out)
		}
	}
}
