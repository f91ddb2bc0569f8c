package cluster

import (
	"fmt"
	"sync"

	"github.com/fidde/dpmtfbs/internal/component"
	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// Manager owns every cluster a partition state can assign ranges to. It
// keeps destructible clusters in one of two pools -- used (nonempty) or
// free (empty, ready for reuse) -- and maintains the single source of
// truth for which cluster owns which column, the way the
// original's ClusterManager tracked cluster_assignments under its own
// lock. A single sync.RWMutex guards all of it, matching the teacher's
// per-store mutex convention rather than one lock per map.
type Manager struct {
	mu sync.RWMutex

	clusters map[Tag]*Cluster
	baseline map[Tag]component.Model // baseline tag -> template model, cloned for new destructible clusters
	used     map[Tag]struct{}
	free     []Tag

	nextTag    Tag
	nextBase   Tag
	assignment map[seqdata.Index]Tag
}

// NewManager creates an empty cluster manager.
func NewManager() *Manager {
	return &Manager{
		clusters:   make(map[Tag]*Cluster),
		baseline:   make(map[Tag]component.Model),
		used:       make(map[Tag]struct{}),
		assignment: make(map[seqdata.Index]Tag),
	}
}

// RegisterBaseline stores model as a template new destructible clusters
// are cloned from, and returns the baseline tag future calls to
// AcquireFreeCluster must pass.
func (m *Manager) RegisterBaseline(model component.Model) Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBase++
	m.baseline[m.nextBase] = model
	return m.nextBase
}

// AddFixedCluster registers a non-destructible cluster (such as a shared
// background component) that always stays in the used pool, even when
// empty, because nothing should ever reclaim it.
func (m *Manager) AddFixedCluster(model component.Model) *Cluster {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTag++
	c := &Cluster{Tag: m.nextTag, Model: model, Destructible: false}
	m.clusters[c.Tag] = c
	m.used[c.Tag] = struct{}{}
	return c
}

// newDestructibleCluster clones baselineTag's template and registers the
// resulting cluster in the free pool. Caller must hold m.mu.
func (m *Manager) newDestructibleCluster(baselineTag Tag) (*Cluster, error) {
	template, ok := m.baseline[baselineTag]
	if !ok {
		return nil, fmt.Errorf("cluster: unknown baseline tag %d", baselineTag)
	}
	m.nextTag++
	c := &Cluster{
		Tag:          m.nextTag,
		BaselineTag:  baselineTag,
		Model:        template.Clone(),
		Destructible: true,
	}
	m.clusters[c.Tag] = c
	m.free = append(m.free, c.Tag)
	return c, nil
}

// AcquireFreeCluster returns an empty destructible cluster cloned from
// baselineTag, reusing one from the free pool when available and
// minting a new one otherwise. This is the Go counterpart of
// get_free_cluster in the original ClusterManager.
func (m *Manager) AcquireFreeCluster(baselineTag Tag) (*Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, tag := range m.free {
		c := m.clusters[tag]
		if c.BaselineTag == baselineTag {
			m.free = append(m.free[:i], m.free[i+1:]...)
			return c, nil
		}
	}
	return m.newDestructibleCluster(baselineTag)
}

// PeekBaseline returns the prototype model registered under baselineTag,
// for read-only scoring (e.g. a fresh-cluster prior predictive) without
// minting an actual cluster. Returns nil if baselineTag is unknown.
func (m *Manager) PeekBaseline(baselineTag Tag) component.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseline[baselineTag]
}

// Get returns the cluster registered under tag, or nil if none exists.
func (m *Manager) Get(tag Tag) *Cluster {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clusters[tag]
}

// ClusterOf returns the tag assigned to idx, or 0 (never a valid tag) if
// idx has not been assigned.
func (m *Manager) ClusterOf(idx seqdata.Index) Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assignment[idx]
}

// UsedClusters returns the tags of every cluster that is either
// non-destructible or currently nonempty, in unspecified order.
func (m *Manager) UsedClusters() []Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tags := make([]Tag, 0, len(m.used))
	for tag := range m.used {
		tags = append(tags, tag)
	}
	return tags
}

// AddWord assigns r to cluster c: folds r into c's component model,
// records c as the owner of every column r covers in the assignment map
// -- enforcing "exactly one cluster owns this position" by panicking if
// any of them is already owned, which would only happen if a caller
// failed to release a position before reassigning it -- and fires the
// occupancy-transition events an observer (Manager itself consumes none
// directly; see Cluster.OnEvent) depends on.
func (m *Manager) AddWord(c *Cluster, store *seqdata.Store, r seqdata.Range) {
	m.mu.Lock()
	wasEmpty := c.Empty()
	c.Model.Add(store, r)
	c.Size++
	for i := 0; i < r.Length; i++ {
		idx := seqdata.Index{Seq: r.Start.Seq, Pos: r.Start.Pos + i}
		if owner, ok := m.assignment[idx]; ok {
			m.mu.Unlock()
			panic(fmt.Sprintf("cluster: AddWord: %v already owned by cluster %d, cannot assign to %d", idx, owner, c.Tag))
		}
		m.assignment[idx] = c.Tag
	}
	if c.Destructible && wasEmpty {
		m.used[c.Tag] = struct{}{}
		for i, tag := range m.free {
			if tag == c.Tag {
				m.free = append(m.free[:i], m.free[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()

	c.fire(EventAddWord)
	if c.Destructible && wasEmpty {
		c.fire(EventNonempty)
	}
}

// RemoveWord unassigns r from cluster c: removes r from c's component
// model, clears every column r covers from the assignment map, and moves
// c back to the free pool if it just became empty.
func (m *Manager) RemoveWord(c *Cluster, store *seqdata.Store, r seqdata.Range) {
	m.mu.Lock()
	c.Model.Remove(store, r)
	c.Size--
	for i := 0; i < r.Length; i++ {
		idx := seqdata.Index{Seq: r.Start.Seq, Pos: r.Start.Pos + i}
		delete(m.assignment, idx)
	}
	becameEmpty := c.Destructible && c.Empty()
	if becameEmpty {
		delete(m.used, c.Tag)
		m.free = append(m.free, c.Tag)
	}
	m.mu.Unlock()

	c.fire(EventRemoveWord)
	if becameEmpty {
		c.fire(EventEmpty)
	}
}

// modelSnapshot captures everything about a cluster a checkpoint needs
// to restore: its component model's running statistics and its size
// (occupancy is implied by size, so used/free pool membership can be
// recomputed on restore rather than snapshotted separately).
type modelSnapshot struct {
	model component.Model
	size  int
}

// Snapshot clones the running state of every registered cluster so a
// sampler can later roll back a rejected Metropolis move. This is the Go
// counterpart of the original's save/restore pair on dpm-tfbs-state,
// done here at the cluster-model granularity Manager owns. The result is
// opaque to callers outside this package; pass it back to Restore
// unmodified.
func (m *Manager) Snapshot() interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[Tag]modelSnapshot, len(m.clusters))
	for tag, c := range m.clusters {
		snap[tag] = modelSnapshot{model: c.Model.Clone(), size: c.Size}
	}
	return snap
}

// Restore replaces every cluster's running state with what Snapshot
// captured, and recomputes the used/free pools from the restored sizes.
// It panics if passed anything other than a value previously returned by
// Snapshot, which would itself indicate a programming error.
func (m *Manager) Restore(snapshot interface{}) {
	snap := snapshot.(map[Tag]modelSnapshot)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.free = m.free[:0]
	for tag, s := range snap {
		c, ok := m.clusters[tag]
		if !ok {
			continue
		}
		c.Model = s.model
		c.Size = s.size
		if c.Destructible {
			if c.Size > 0 {
				m.used[tag] = struct{}{}
			} else {
				delete(m.used, tag)
				m.free = append(m.free, tag)
			}
		}
	}
}
