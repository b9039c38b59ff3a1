package projection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	perplexityTol   = 1e-5
	perplexitySteps = 100
)

// entry is one nonzero of a sparse affinity row.
type entry struct {
	j int
	p float64
}

// affinities holds the symmetric joint probabilities P as sparse rows,
// sorted by column. Rows sum to 1 over the whole matrix.
type affinities [][]entry

// rows copies the rows of x into plain slices.
func rows(x mat.Matrix) [][]float64 {
	n, _ := x.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, x)
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var s float64
	for k := range a {
		d := a[k] - b[k]
		s += d * d
	}
	return s
}

// candidates returns, for every row, the indices and squared distances of
// the k nearest other rows, closest first. A full neighbourhood (k = n-1)
// compares every pair; smaller k queries a k-d tree.
func candidates(xs [][]float64, k int) ([][]int, [][]float64) {
	if k < len(xs)-1 {
		return treeCandidates(xs, k)
	}
	return allCandidates(xs, k)
}

// allCandidates is candidates by pairwise comparison. Ties break by index.
func allCandidates(xs [][]float64, k int) ([][]int, [][]float64) {
	n := len(xs)
	idx := make([][]int, n)
	dist := make([][]float64, n)

	order := make([]int, 0, n-1)
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		order = order[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d[j] = sqDist(xs[i], xs[j])
			order = append(order, j)
		}
		sort.SliceStable(order, func(a, b int) bool {
			return d[order[a]] < d[order[b]]
		})

		idx[i] = make([]int, k)
		dist[i] = make([]float64, k)
		for m := 0; m < k; m++ {
			idx[i][m] = order[m]
			dist[i][m] = d[order[m]]
		}
	}
	return idx, dist
}

// conditional fills out with P(j|i) over the given squared distances,
// searching the Gaussian precision so the row entropy matches
// log(perplexity).
func conditional(dist []float64, perplexity float64, out []float64) {
	target := math.Log(perplexity)

	dmin := math.Inf(1)
	for _, d := range dist {
		if d < dmin {
			dmin = d
		}
	}

	beta := 1.0
	lo, hi := math.Inf(-1), math.Inf(1)
	for step := 0; step < perplexitySteps; step++ {
		var sum, dsum float64
		for m, d := range dist {
			p := math.Exp(-(d - dmin) * beta)
			out[m] = p
			sum += p
			dsum += (d - dmin) * p
		}
		h := math.Log(sum) + beta*dsum/sum

		diff := h - target
		if math.Abs(diff) < perplexityTol {
			break
		}
		if diff > 0 {
			lo = beta
			if math.IsInf(hi, 1) {
				beta *= 2
			} else {
				beta = (beta + hi) / 2
			}
		} else {
			hi = beta
			if math.IsInf(lo, -1) {
				beta /= 2
			} else {
				beta = (beta + lo) / 2
			}
		}
	}

	var sum float64
	for _, p := range out {
		sum += p
	}
	for m := range out {
		out[m] /= sum
	}
}

// jointAffinities computes the symmetric P from k nearest neighbours per
// row. With k = n-1 the result is the exact dense P.
func jointAffinities(xs [][]float64, perplexity float64, k int) affinities {
	n := len(xs)
	idx, dist := candidates(xs, k)

	acc := make([]map[int]float64, n)
	for i := range acc {
		acc[i] = make(map[int]float64, 2*k)
	}

	buf := make([]float64, k)
	for i := 0; i < n; i++ {
		cond := buf[:len(dist[i])]
		conditional(dist[i], perplexity, cond)
		for m, j := range idx[i] {
			acc[i][j] += cond[m]
			acc[j][i] += cond[m]
		}
	}

	norm := 2 * float64(n)
	P := make(affinities, n)
	for i, row := range acc {
		P[i] = make([]entry, 0, len(row))
		for j, p := range row {
			P[i] = append(P[i], entry{j: j, p: p / norm})
		}
		sort.Slice(P[i], func(a, b int) bool { return P[i][a].j < P[i][b].j })
	}
	return P
}
