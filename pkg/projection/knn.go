package projection

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// point is a row of the input that remembers its index.
type point struct {
	i int
	v []float64
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.v[d] - c.(point).v[d]
}

func (p point) Dims() int { return len(p.v) }

func (p point) Distance(c kdtree.Comparable) float64 {
	return sqDist(p.v, c.(point).v)
}

// points is the kdtree.Interface over rows. Building the tree reorders it.
type points []point

func (p points) Index(i int) kdtree.Comparable { return p[i] }
func (p points) Len() int                       { return len(p) }
func (p points) Pivot(d kdtree.Dim) int         { return plane{Dim: d, points: p}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// plane sorts points along one dimension for median partitioning.
type plane struct {
	kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool { return p.points[i].v[p.Dim] < p.points[j].v[p.Dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Swap(i, j int)      { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

// treeCandidates answers candidates for k < n-1 with k+1 nearest queries
// on a k-d tree, dropping the query row itself.
func treeCandidates(xs [][]float64, k int) ([][]int, [][]float64) {
	n := len(xs)
	pts := make(points, n)
	for i, v := range xs {
		pts[i] = point{i: i, v: v}
	}
	tree := kdtree.New(pts, false)

	idx := make([][]int, n)
	dist := make([][]float64, n)
	found := make([]kdtree.ComparableDist, 0, k+1)
	for i, v := range xs {
		keep := kdtree.NewNKeeper(k + 1)
		tree.NearestSet(keep, point{i: i, v: v})

		found = found[:0]
		for _, c := range keep.Heap {
			// an unfilled keeper holds a nil sentinel
			if c.Comparable == nil || c.Comparable.(point).i == i {
				continue
			}
			found = append(found, c)
		}
		sort.Slice(found, func(a, b int) bool {
			if found[a].Dist != found[b].Dist {
				return found[a].Dist < found[b].Dist
			}
			return found[a].Comparable.(point).i < found[b].Comparable.(point).i
		})

		m := min(k, len(found))
		idx[i] = make([]int, m)
		dist[i] = make([]float64, m)
		for j := 0; j < m; j++ {
			idx[i][j] = found[j].Comparable.(point).i
			dist[i][j] = found[j].Dist
		}
	}
	return idx, dist
}
