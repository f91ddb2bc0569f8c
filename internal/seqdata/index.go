package seqdata

import "fmt"

// Index addresses a single aligned column: the sequence it belongs to and
// the offset within that sequence.
type Index struct {
	Seq int
	Pos int
}

// Range addresses a contiguous span of columns starting at Start, read
// either forward or, when Reverse is true, as the reverse complement.
type Range struct {
	Start   Index
	Length  int
	Reverse bool
}

// String renders a Range for log and error messages.
func (r Range) String() string {
	dir := "+"
	if r.Reverse {
		dir = "-"
	}
	return fmt.Sprintf("(%d:%d,%d%s)", r.Start.Seq, r.Start.Pos, r.Length, dir)
}

// End returns the index one past the last column the range covers when
// read forward (independent of Reverse, which only affects the direction
// data is pulled from the store).
func (r Range) End() Index {
	return Index{Seq: r.Start.Seq, Pos: r.Start.Pos + r.Length}
}

// columnAt returns the index of the i'th column in traversal order,
// accounting for Reverse.
func (r Range) columnAt(i int) Index {
	if r.Reverse {
		return Index{Seq: r.Start.Seq, Pos: r.Start.Pos + r.Length - 1 - i}
	}
	return Index{Seq: r.Start.Seq, Pos: r.Start.Pos + i}
}
