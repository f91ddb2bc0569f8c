package seqdata

import "fmt"

// Store holds an immutable set of aligned sequences as per-column soft
// count vectors (fractional counts, to support ambiguity-weighted input),
// plus a precomputed reverse-complement mirror so background and
// foreground component models never have to permute counts on the fly.
//
// Store is read-only after New returns; callers share one *Store across
// goroutines without locking.
type Store struct {
	columns     [][][]float64 // columns[seq][pos][symbol]
	complement  [][][]float64 // complement[seq][pos][symbol], complement permutation of columns[seq][pos]; not column-reversed
	seqLengths  []int
	names       []string
}

// New builds a Store from per-sequence column count vectors. Each sequence
// must carry AlphabetSize counts per column.
func New(names []string, columns [][][]float64) (*Store, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("seqdata: %d names but %d sequences", len(names), len(columns))
	}
	complement := make([][][]float64, len(columns))
	lengths := make([]int, len(columns))
	for s, seq := range columns {
		lengths[s] = len(seq)
		complement[s] = make([][]float64, len(seq))
		for p, col := range seq {
			if len(col) != AlphabetSize {
				return nil, fmt.Errorf("seqdata: sequence %d column %d has %d counts, want %d", s, p, len(col), AlphabetSize)
			}
			complement[s][p] = ComplementVector(col)
		}
	}
	return &Store{
		columns:    columns,
		complement: complement,
		seqLengths: lengths,
		names:      names,
	}, nil
}

// NumSequences returns how many aligned sequences the store holds.
func (s *Store) NumSequences() int {
	return len(s.columns)
}

// Len returns the length of sequence seq.
func (s *Store) Len(seq int) int {
	return s.seqLengths[seq]
}

// Name returns the label of sequence seq.
func (s *Store) Name(seq int) string {
	return s.names[seq]
}

// Column returns the forward count vector at idx.
func (s *Store) Column(idx Index) []float64 {
	return s.columns[idx.Seq][idx.Pos]
}

// ComplementColumn returns the complemented count vector at idx,
// i.e. the column as it would read on the opposite strand.
func (s *Store) ComplementColumn(idx Index) []float64 {
	return s.complement[idx.Seq][idx.Pos]
}

// Fits reports whether a range of the given length starting at idx lies
// entirely within its sequence.
func (s *Store) Fits(idx Index, length int) bool {
	return idx.Pos >= 0 && idx.Pos+length <= s.seqLengths[idx.Seq]
}

// RangeColumn returns the count vector at the i'th position of r in
// traversal order, pulling from the complement mirror when r is reversed.
func (s *Store) RangeColumn(r Range, i int) []float64 {
	idx := r.columnAt(i)
	if r.Reverse {
		return s.ComplementColumn(idx)
	}
	return s.Column(idx)
}
