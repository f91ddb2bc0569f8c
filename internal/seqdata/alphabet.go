// Package seqdata holds aligned sequence data as per-column soft count
// vectors, together with the coordinate types (Index, Range) samplers use
// to address it.
package seqdata

import "fmt"

// AlphabetSize is the number of symbols tracked per column: A, C, G, T, N.
const AlphabetSize = 5

const (
	SymbolA = iota
	SymbolC
	SymbolG
	SymbolT
	SymbolN
)

// complement maps each symbol to its Watson-Crick complement; N maps to
// itself since it carries no base identity.
var complement = [AlphabetSize]int{
	SymbolA: SymbolT,
	SymbolC: SymbolG,
	SymbolG: SymbolC,
	SymbolT: SymbolA,
	SymbolN: SymbolN,
}

var symbolNames = [AlphabetSize]byte{'A', 'C', 'G', 'T', 'N'}

// DecodeSymbol returns the single-letter code for a symbol index.
func DecodeSymbol(sym int) (byte, error) {
	if sym < 0 || sym >= AlphabetSize {
		return 0, fmt.Errorf("seqdata: symbol index %d out of range", sym)
	}
	return symbolNames[sym], nil
}

// EncodeSymbol maps a FASTA letter to its symbol index. Lowercase letters
// are accepted and treated the same as uppercase.
func EncodeSymbol(c byte) (int, error) {
	switch c {
	case 'A', 'a':
		return SymbolA, nil
	case 'C', 'c':
		return SymbolC, nil
	case 'G', 'g':
		return SymbolG, nil
	case 'T', 't':
		return SymbolT, nil
	case 'N', 'n', '-', '.':
		return SymbolN, nil
	default:
		return 0, fmt.Errorf("seqdata: unrecognized symbol %q", c)
	}
}

// ComplementVector returns the complement of a count vector: the
// counts at position i are moved to complement(i), and the vector is not
// reversed in place (callers traverse columns in reverse order separately).
func ComplementVector(v []float64) []float64 {
	out := make([]float64, AlphabetSize)
	for i, c := range v {
		out[complement[i]] = c
	}
	return out
}
