package component

import (
	"sync"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// CacheKeyer is implemented by the background models (every variant
// except the foreground ProductDirichlet): a stable model identifier
// plus the parameter vector that, together with a checksum of the data,
// the persistent marginal cache uses to recognize a reusable precomputed
// table (spec.md §4.4/§6).
type CacheKeyer interface {
	Model
	CacheKey() (string, []float64)
}

// MarginalSetter is implemented by every background model: it accepts the
// flat per-position log-marginal table PrecomputeMarginal produces (or a
// cache hit decodes), indexed through offsets exactly as Offsets builds
// them. Once installed, LogPredictive becomes a pure table lookup, per
// spec.md §4.4 -- the precompute step is the only place these models
// evaluate their underlying prior/posterior formula directly.
type MarginalSetter interface {
	Model
	SetMarginal(table []float64, offsets []int)
}

// marginalTable is embedded by every background model to hold the
// installed precomputed table. Before SetMarginal is called (only true
// during the precompute pass itself, see PrecomputeMarginal) Ready
// reports false and callers must fall back to evaluating their raw prior
// formula directly.
type marginalTable struct {
	table   []float64
	offsets []int
}

// SetMarginal installs a precomputed per-position log-marginal table.
func (t *marginalTable) SetMarginal(table []float64, offsets []int) {
	t.table = table
	t.offsets = offsets
}

// Ready reports whether a table has been installed.
func (t *marginalTable) Ready() bool {
	return t.table != nil
}

// Sum adds up the table's entries covering r -- positions are
// independent, so this is the entirety of a background model's
// log-predictive score once a table is installed.
func (t *marginalTable) Sum(r seqdata.Range) float64 {
	lp := 0.0
	base := t.offsets[r.Start.Seq] + r.Start.Pos
	for i := 0; i < r.Length; i++ {
		lp += t.table[base+i]
	}
	return lp
}

// Offsets returns the cumulative per-sequence column count, so a
// (seq, pos) pair can be flattened to the single linear index the
// persistent cache's log-marginal table is indexed by.
func Offsets(store *seqdata.Store) []int {
	offsets := make([]int, store.NumSequences()+1)
	for s := 0; s < store.NumSequences(); s++ {
		offsets[s+1] = offsets[s] + store.Len(s)
	}
	return offsets
}

// PrecomputeMarginal evaluates model's single-column log-predictive at
// every position of store -- model must not yet have had anything added
// to it, since the table records the prior predictive, not a posterior
// conditioned on data the model has already folded in -- splitting the
// work across a fixed pool of workers the way spec.md §4.4 requires, and
// reports (done, total) progress after each worker-local chunk
// completes. progress may be nil.
func PrecomputeMarginal(store *seqdata.Store, model Model, workers int, progress func(done, total int)) []float64 {
	offsets := Offsets(store)
	total := offsets[len(offsets)-1]
	table := make([]float64, total)

	if workers <= 0 {
		workers = 1
	}
	if workers > total && total > 0 {
		workers = total
	}
	if total == 0 {
		return table
	}

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	chunk := (total + workers - 1) / workers

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > total {
			hi = total
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			seq := 0
			for i := lo; i < hi; i++ {
				for seq+1 < len(offsets) && i >= offsets[seq+1] {
					seq++
				}
				pos := i - offsets[seq]
				r := seqdata.Range{Start: seqdata.Index{Seq: seq, Pos: pos}, Length: 1}
				table[i] = model.LogPredictive(store, r)
			}
			mu.Lock()
			done += hi - lo
			if progress != nil {
				progress(done, total)
			}
			mu.Unlock()
		}(lo, hi)
	}
	wg.Wait()
	return table
}
