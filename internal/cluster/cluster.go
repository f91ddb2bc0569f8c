// Package cluster implements the mixture components a partition state
// assigns positions to: a Cluster pairs a tag with a component model and
// the set of ranges currently assigned to it, and Manager tracks the
// pool of used and free (destructible) clusters the Gibbs sampler draws
// new components from.
package cluster

import "github.com/fidde/dpmtfbs/internal/component"

// Event identifies a cluster occupancy transition a Manager reacts to.
type Event int

const (
	// EventAddWord fires after a range is assigned into a cluster.
	EventAddWord Event = iota
	// EventRemoveWord fires after a range is unassigned from a cluster.
	EventRemoveWord
	// EventEmpty fires the moment a destructible cluster's size drops to 0.
	EventEmpty
	// EventNonempty fires the moment a destructible cluster's size rises from 0.
	EventNonempty
)

// Tag identifies a cluster. Tag 0 is never assigned by a Manager.
type Tag int

// Cluster is one mixture component: a tag, the baseline it was cloned
// from (0 for fixed, non-destructible clusters such as the default
// background), its component model, and how many ranges are currently
// assigned to it.
type Cluster struct {
	Tag          Tag
	BaselineTag  Tag
	Model        component.Model
	Destructible bool
	Size         int

	// OnEvent, when set, is invoked by Manager after every occupancy
	// change to this cluster. It replaces the C++ original's
	// Observed<cluster_event_t> subclassing with a plain callback field,
	// Go's idiomatic equivalent for a single fixed observer.
	OnEvent func(c *Cluster, ev Event)
}

func (c *Cluster) fire(ev Event) {
	if c.OnEvent != nil {
		c.OnEvent(c, ev)
	}
}

// Empty reports whether the cluster currently owns no ranges.
func (c *Cluster) Empty() bool {
	return c.Size == 0
}
