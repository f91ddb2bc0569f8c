// Package state implements the partition state a Gibbs sampler mutates:
// which columns currently start a transcription factor binding site, and
// which cluster (foreground motif component or shared background
// component) owns every such column and every plain background column.
package state

import (
	"fmt"

	"github.com/fidde/dpmtfbs/internal/cluster"
	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// State tracks TFBS placement over one aligned data set. Width columns
// starting at a TFBS position belong to whichever foreground cluster was
// assigned to that site; every other column belongs to the single shared
// background cluster.
type State struct {
	Store   *seqdata.Store
	Manager *cluster.Manager

	Width              int
	BackgroundCluster  *cluster.Cluster
	ForegroundBaseline cluster.Tag

	// tfbsStart maps a TFBS's starting index to (the tag of) the
	// foreground cluster it belongs to, and whether it was placed on
	// the reverse strand.
	tfbsStart map[seqdata.Index]tfbsEntry
	// covered marks every column consumed by some TFBS (its W columns),
	// so background assignment and new-TFBS validity can be checked in
	// O(1) instead of scanning all placed sites.
	covered map[seqdata.Index]bool
}

type tfbsEntry struct {
	tag     cluster.Tag
	reverse bool
}

// New creates a state with no TFBS placed: every column is implicitly
// background. Call AddBackground for each column before sampling if the
// component models are meant to see all data up front.
func New(store *seqdata.Store, manager *cluster.Manager, width int, background *cluster.Cluster, foregroundBaseline cluster.Tag) *State {
	return &State{
		Store:              store,
		Manager:            manager,
		Width:              width,
		BackgroundCluster:  background,
		ForegroundBaseline: foregroundBaseline,
		tfbsStart:          make(map[seqdata.Index]tfbsEntry),
		covered:            make(map[seqdata.Index]bool),
	}
}

// NumTFBS returns how many binding sites are currently placed.
func (s *State) NumTFBS() int {
	return len(s.tfbsStart)
}

// ValidTFBSPosition reports whether a width-W site could be placed
// starting at idx: it must fit inside its sequence and not overlap any
// column already covered by another site.
func (s *State) ValidTFBSPosition(idx seqdata.Index) bool {
	if !s.Store.Fits(idx, s.Width) {
		return false
	}
	for i := 0; i < s.Width; i++ {
		if s.covered[seqdata.Index{Seq: idx.Seq, Pos: idx.Pos + i}] {
			return false
		}
	}
	return true
}

// GetFreeRange returns the single-column background range at idx,
// and false if idx is already covered by a TFBS.
func (s *State) GetFreeRange(idx seqdata.Index) (seqdata.Range, bool) {
	if s.covered[idx] {
		return seqdata.Range{}, false
	}
	return seqdata.Range{Start: idx, Length: 1}, true
}

// AddBackground assigns idx's single column to the shared background
// cluster.
func (s *State) AddBackground(idx seqdata.Index) {
	r := seqdata.Range{Start: idx, Length: 1}
	s.Manager.AddWord(s.BackgroundCluster, s.Store, r)
}

// RemoveBackground unassigns idx's single column from the shared
// background cluster.
func (s *State) RemoveBackground(idx seqdata.Index) {
	r := seqdata.Range{Start: idx, Length: 1}
	s.Manager.RemoveWord(s.BackgroundCluster, s.Store, r)
}

// AddTFBS places a width-W binding site at idx, assigned to the cluster
// tagged tag, reading the forward strand unless reverse is set. idx must
// have passed ValidTFBSPosition, and idx's own column must already have
// been released from the background cluster by the caller (the
// candidate-resampling step in package sampler always retracts a
// position's current assignment, background or TFBS, before scoring and
// re-placing it). AddTFBS releases the remaining W-1 interior columns
// from background itself, so that every column the site now covers
// belongs to exactly this foreground cluster and no other.
func (s *State) AddTFBS(idx seqdata.Index, tag cluster.Tag, reverse bool) error {
	c := s.Manager.Get(tag)
	if c == nil {
		return fmt.Errorf("state: AddTFBS: no cluster with tag %d", tag)
	}
	for i := 1; i < s.Width; i++ {
		s.RemoveBackground(seqdata.Index{Seq: idx.Seq, Pos: idx.Pos + i})
	}
	r := seqdata.Range{Start: idx, Length: s.Width, Reverse: reverse}
	s.Manager.AddWord(c, s.Store, r)
	s.tfbsStart[idx] = tfbsEntry{tag: tag, reverse: reverse}
	for i := 0; i < s.Width; i++ {
		s.covered[seqdata.Index{Seq: idx.Seq, Pos: idx.Pos + i}] = true
	}
	return nil
}

// RemoveTFBS retracts the binding site starting at idx, releasing its
// full W-column range from the foreground cluster and folding every one
// of those columns back into the shared background cluster -- the
// mirror image of AddTFBS's release-then-claim, keeping "exactly one
// cluster owns this position" true at every step boundary rather than
// only at positions the sampler happens to revisit.
func (s *State) RemoveTFBS(idx seqdata.Index) error {
	entry, ok := s.tfbsStart[idx]
	if !ok {
		return fmt.Errorf("state: RemoveTFBS: no site at %v", idx)
	}
	c := s.Manager.Get(entry.tag)
	if c == nil {
		return fmt.Errorf("state: RemoveTFBS: no cluster with tag %d", entry.tag)
	}
	r := seqdata.Range{Start: idx, Length: s.Width, Reverse: entry.reverse}
	s.Manager.RemoveWord(c, s.Store, r)
	delete(s.tfbsStart, idx)
	for i := 0; i < s.Width; i++ {
		pos := seqdata.Index{Seq: idx.Seq, Pos: idx.Pos + i}
		delete(s.covered, pos)
		s.AddBackground(pos)
	}
	return nil
}

// ForEachTFBS calls fn once for every currently placed binding site, in
// unspecified order.
func (s *State) ForEachTFBS(fn func(seq, pos, width int, tag cluster.Tag, reverse bool)) {
	for idx, entry := range s.tfbsStart {
		fn(idx.Seq, idx.Pos, s.Width, entry.tag, entry.reverse)
	}
}

// TFBSAt returns the cluster tag and strand of the site starting at idx,
// and false if no site starts there.
func (s *State) TFBSAt(idx seqdata.Index) (tag cluster.Tag, reverse bool, ok bool) {
	entry, ok := s.tfbsStart[idx]
	return entry.tag, entry.reverse, ok
}

// MoveTFBS shifts the site currently starting at from to start at to,
// keeping its cluster assignment and strand. The sampler's single-range
// Metropolis shift move does not call it; that move performs the same
// remove-then-add sequence inline. Callers must check
// ValidTFBSPosition(to) (after temporarily removing the site at from, so
// the move doesn't spuriously collide with itself) before calling this.
func (s *State) MoveTFBS(from, to seqdata.Index) error {
	entry, ok := s.tfbsStart[from]
	if !ok {
		return fmt.Errorf("state: MoveTFBS: no site at %v", from)
	}
	if err := s.RemoveTFBS(from); err != nil {
		return err
	}
	s.RemoveBackground(to)
	if err := s.AddTFBS(to, entry.tag, entry.reverse); err != nil {
		// Put the original placement back so the caller isn't left
		// with a silently dropped site. from's column is currently
		// background (RemoveTFBS's restore), matching AddTFBS's
		// precondition once it is freed again.
		s.RemoveBackground(from)
		_ = s.AddTFBS(from, entry.tag, entry.reverse)
		return err
	}
	return nil
}

// MoveLeft shifts every range owned by foreground cluster tag n columns
// toward lower positions (MoveRight shifts toward higher positions). A
// shifted range that would fall outside its sequence or collide with
// another site (including another just-shifted site from the same
// cluster) is dropped: its original columns become plain background
// instead of moving. If every range drops, the cluster would end up
// empty; MoveLeft/MoveRight undo the whole operation and report false in
// that case, matching the Metropolis proposal's "reject, restore" path.
func (s *State) MoveLeft(tag cluster.Tag, n int) bool {
	return s.shiftCluster(tag, -n)
}

// MoveRight shifts every range owned by foreground cluster tag n columns
// toward higher positions. See MoveLeft.
func (s *State) MoveRight(tag cluster.Tag, n int) bool {
	return s.shiftCluster(tag, n)
}

func (s *State) shiftCluster(tag cluster.Tag, delta int) bool {
	cp := s.Save()

	var starts []seqdata.Index
	for idx, entry := range s.tfbsStart {
		if entry.tag == tag {
			starts = append(starts, idx)
		}
	}
	if len(starts) == 0 {
		return true
	}

	entries := make(map[seqdata.Index]tfbsEntry, len(starts))
	for _, idx := range starts {
		entries[idx] = s.tfbsStart[idx]
		_ = s.RemoveTFBS(idx)
	}

	for _, idx := range starts {
		entry := entries[idx]
		shifted := seqdata.Index{Seq: idx.Seq, Pos: idx.Pos + delta}
		if s.ValidTFBSPosition(shifted) {
			s.RemoveBackground(shifted)
			_ = s.AddTFBS(shifted, entry.tag, entry.reverse)
		}
		// Else: dropped. RemoveTFBS already folded idx's whole old range
		// back into background above; nothing further moves.
	}

	c := s.Manager.Get(tag)
	if c == nil || c.Empty() {
		s.Restore(cp)
		return false
	}
	return true
}

// Checkpoint is an opaque save point produced by Save and consumed by
// Restore. The cluster snapshot type is whatever Manager.Snapshot
// returns; State never inspects it, only threads it back through
// Manager.Restore.
type Checkpoint struct {
	clusters  interface{}
	tfbsStart map[seqdata.Index]tfbsEntry
	covered   map[seqdata.Index]bool
}

// Save captures enough of the current partition to undo a rejected
// Metropolis move: every cluster's running statistics plus the TFBS
// bookkeeping Manager doesn't own.
func (s *State) Save() Checkpoint {
	tfbsCopy := make(map[seqdata.Index]tfbsEntry, len(s.tfbsStart))
	for k, v := range s.tfbsStart {
		tfbsCopy[k] = v
	}
	coveredCopy := make(map[seqdata.Index]bool, len(s.covered))
	for k, v := range s.covered {
		coveredCopy[k] = v
	}
	return Checkpoint{
		clusters:  s.Manager.Snapshot(),
		tfbsStart: tfbsCopy,
		covered:   coveredCopy,
	}
}

// Restore rolls the partition back to a previously saved checkpoint.
func (s *State) Restore(cp Checkpoint) {
	s.Manager.Restore(cp.clusters)
	s.tfbsStart = cp.tfbsStart
	s.covered = cp.covered
}
