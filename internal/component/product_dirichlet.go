package component

import (
	"math"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// ProductDirichlet is the foreground motif model: a width-W product of
// independent Dirichlet-multinomial distributions, one per motif column.
// Ranges folded into it must all have length W; forward and
// reverse-complement ranges are folded in using the same alpha matrix,
// since the model has no notion of strand beyond which data mirror it
// reads from (see the reverse-orientation decision in DESIGN.md).
type ProductDirichlet struct {
	width  int
	alpha  [][]float64 // prior pseudocounts, width x AlphabetSize
	counts [][]float64 // alpha + folded observations, width x AlphabetSize
	sites  float64
}

// NewProductDirichlet builds a foreground model of the given width with a
// shared pseudocount vector replicated across all W columns. alpha must
// have AlphabetSize entries.
func NewProductDirichlet(width int, alpha []float64) *ProductDirichlet {
	m := &ProductDirichlet{
		width:  width,
		alpha:  make([][]float64, width),
		counts: make([][]float64, width),
	}
	for i := 0; i < width; i++ {
		a := make([]float64, seqdata.AlphabetSize)
		c := make([]float64, seqdata.AlphabetSize)
		copy(a, alpha)
		copy(c, alpha)
		m.alpha[i] = a
		m.counts[i] = c
	}
	return m
}

// Width returns the motif width this model was constructed with.
func (m *ProductDirichlet) Width() int {
	return m.width
}

// AlphaPlusCounts returns the K x W matrix of alpha+n values (one column
// per motif position, one row per alphabet symbol) the "cluster_<tag> ="
// report section dumps for this model.
func (m *ProductDirichlet) AlphaPlusCounts() [][]float64 {
	out := make([][]float64, seqdata.AlphabetSize)
	for k := range out {
		out[k] = make([]float64, m.width)
		for i := 0; i < m.width; i++ {
			out[k][i] = m.counts[i][k]
		}
	}
	return out
}

func (m *ProductDirichlet) Add(store *seqdata.Store, r seqdata.Range) {
	if r.Length != m.width {
		panic("component: ProductDirichlet.Add: range length does not match model width")
	}
	for i := 0; i < m.width; i++ {
		col := store.RangeColumn(r, i)
		for k, c := range col {
			m.counts[i][k] += c
		}
	}
	m.sites++
}

func (m *ProductDirichlet) Remove(store *seqdata.Store, r seqdata.Range) {
	if r.Length != m.width {
		panic("component: ProductDirichlet.Remove: range length does not match model width")
	}
	for i := 0; i < m.width; i++ {
		col := store.RangeColumn(r, i)
		for k, c := range col {
			m.counts[i][k] -= c
		}
	}
	m.sites--
}

func (m *ProductDirichlet) Count() float64 {
	return m.sites
}

func (m *ProductDirichlet) LogPredictive(store *seqdata.Store, r seqdata.Range) float64 {
	if r.Length != m.width {
		return math.Inf(-1)
	}
	lp := 0.0
	for i := 0; i < m.width; i++ {
		col := store.RangeColumn(r, i)
		combined := addVec(m.counts[i], col)
		lp += lnBeta(combined) - lnBeta(m.counts[i])
	}
	return lp
}

func (m *ProductDirichlet) LogPredictiveSet(store *seqdata.Store, ranges []seqdata.Range) float64 {
	if len(ranges) == 0 {
		return 0
	}
	perColumn := make([][]float64, m.width)
	for i := range perColumn {
		perColumn[i] = make([]float64, seqdata.AlphabetSize)
	}
	for _, r := range ranges {
		if r.Length != m.width {
			return math.Inf(-1)
		}
		for i := 0; i < m.width; i++ {
			col := store.RangeColumn(r, i)
			for k, c := range col {
				perColumn[i][k] += c
			}
		}
	}
	lp := 0.0
	for i := 0; i < m.width; i++ {
		combined := addVec(m.counts[i], perColumn[i])
		lp += lnBeta(combined) - lnBeta(m.counts[i])
	}
	return lp
}

func (m *ProductDirichlet) LogLikelihood() float64 {
	ll := 0.0
	for i := 0; i < m.width; i++ {
		ll += lnBeta(m.counts[i]) - lnBeta(m.alpha[i])
	}
	return ll
}

func (m *ProductDirichlet) Clone() Model {
	out := &ProductDirichlet{
		width: m.width,
		sites: m.sites,
	}
	out.alpha = make([][]float64, m.width)
	out.counts = make([][]float64, m.width)
	for i := 0; i < m.width; i++ {
		out.alpha[i] = append([]float64(nil), m.alpha[i]...)
		out.counts[i] = append([]float64(nil), m.counts[i]...)
	}
	return out
}

// lnBeta computes the log multivariate Beta function of v:
// sum(lgamma(v_k)) - lgamma(sum(v_k)).
func lnBeta(v []float64) float64 {
	sum := 0.0
	lgammaSum := 0.0
	for _, x := range v {
		lg, _ := math.Lgamma(x)
		lgammaSum += lg
		sum += x
	}
	lgSum, _ := math.Lgamma(sum)
	return lgammaSum - lgSum
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}
