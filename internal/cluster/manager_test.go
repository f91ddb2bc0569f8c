package cluster

import (
	"testing"

	"github.com/fidde/dpmtfbs/internal/component"
	"github.com/fidde/dpmtfbs/internal/seqdata"
)

func testStore(t *testing.T) *seqdata.Store {
	t.Helper()
	store, err := seqdata.New([]string{"seq0"}, [][][]float64{{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
	}})
	if err != nil {
		t.Fatalf("seqdata.New: %v", err)
	}
	return store
}

func TestAcquireFreeClusterReusesEmptyCluster(t *testing.T) {
	m := NewManager()
	base := m.RegisterBaseline(component.NewProductDirichlet(1, []float64{1, 1, 1, 1, 1}))
	store := testStore(t)

	c1, err := m.AcquireFreeCluster(base)
	if err != nil {
		t.Fatalf("AcquireFreeCluster: %v", err)
	}
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 1}
	m.AddWord(c1, store, r)
	m.RemoveWord(c1, store, r)

	c2, err := m.AcquireFreeCluster(base)
	if err != nil {
		t.Fatalf("AcquireFreeCluster (reuse): %v", err)
	}
	if c2.Tag != c1.Tag {
		t.Fatalf("expected reuse of emptied cluster %d, got fresh cluster %d", c1.Tag, c2.Tag)
	}
}

func TestAddWordMovesClusterToUsed(t *testing.T) {
	m := NewManager()
	base := m.RegisterBaseline(component.NewProductDirichlet(1, []float64{1, 1, 1, 1, 1}))
	store := testStore(t)

	c, _ := m.AcquireFreeCluster(base)
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 1}
	m.AddWord(c, store, r)

	used := m.UsedClusters()
	found := false
	for _, tag := range used {
		if tag == c.Tag {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cluster %d in used set after AddWord, got %v", c.Tag, used)
	}
	if got := m.ClusterOf(r.Start); got != c.Tag {
		t.Fatalf("ClusterOf(%v) = %d, want %d", r.Start, got, c.Tag)
	}
}

func TestEventCallbacksFire(t *testing.T) {
	m := NewManager()
	base := m.RegisterBaseline(component.NewProductDirichlet(1, []float64{1, 1, 1, 1, 1}))
	store := testStore(t)

	var events []Event
	c, _ := m.AcquireFreeCluster(base)
	c.OnEvent = func(_ *Cluster, ev Event) {
		events = append(events, ev)
	}

	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 1}
	m.AddWord(c, store, r)
	m.RemoveWord(c, store, r)

	want := []Event{EventAddWord, EventNonempty, EventRemoveWord, EventEmpty}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i, ev := range want {
		if events[i] != ev {
			t.Fatalf("events[%d] = %v, want %v", i, events[i], ev)
		}
	}
}

func TestFixedClusterNeverFreed(t *testing.T) {
	m := NewManager()
	c := m.AddFixedCluster(component.NewIndependenceBackground([]float64{1, 1, 1, 1, 1}))
	store := testStore(t)
	r := seqdata.Range{Start: seqdata.Index{Seq: 0, Pos: 0}, Length: 1}

	m.AddWord(c, store, r)
	m.RemoveWord(c, store, r)

	used := m.UsedClusters()
	if len(used) != 1 || used[0] != c.Tag {
		t.Fatalf("expected fixed cluster %d to remain used even when empty, got %v", c.Tag, used)
	}
}
