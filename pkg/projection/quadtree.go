package projection

import "math"

// maxTreeDepth stops subdivision for points that are nearly coincident.
const maxTreeDepth = 32

// quadTree is a Barnes-Hut space partition of the 2-D embedding. Leaves
// hold point indices; inner nodes summarise their subtree by count and
// centre of mass.
type quadTree struct {
	minX, minY, maxX, maxY float64

	count      int
	sumX, sumY float64

	points   []int
	children *[4]quadTree
}

// newQuadTree indexes every point of y, stored as interleaved x,y pairs.
func newQuadTree(y []float64) *quadTree {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < len(y); i += 2 {
		minX = math.Min(minX, y[i])
		maxX = math.Max(maxX, y[i])
		minY = math.Min(minY, y[i+1])
		maxY = math.Max(maxY, y[i+1])
	}
	// pad so points on the upper bound fall inside a child
	pad := 1e-5 * math.Max(1, math.Max(maxX-minX, maxY-minY))
	t := &quadTree{minX: minX - pad, minY: minY - pad, maxX: maxX + pad, maxY: maxY + pad}
	for i := 0; i < len(y)/2; i++ {
		t.insert(y, i, 0)
	}
	return t
}

func (t *quadTree) insert(y []float64, i, depth int) {
	px, py := y[2*i], y[2*i+1]
	t.count++
	t.sumX += px
	t.sumY += py

	if t.children != nil {
		t.child(px, py).insert(y, i, depth+1)
		return
	}

	if len(t.points) == 0 || depth >= maxTreeDepth || t.coincident(y, px, py) {
		t.points = append(t.points, i)
		return
	}

	t.split()
	for _, p := range t.points {
		t.child(y[2*p], y[2*p+1]).insert(y, p, depth+1)
	}
	t.points = nil
	t.child(px, py).insert(y, i, depth+1)
}

func (t *quadTree) coincident(y []float64, px, py float64) bool {
	p := t.points[0]
	return y[2*p] == px && y[2*p+1] == py
}

func (t *quadTree) split() {
	midX := (t.minX + t.maxX) / 2
	midY := (t.minY + t.maxY) / 2
	t.children = &[4]quadTree{
		{minX: t.minX, minY: t.minY, maxX: midX, maxY: midY},
		{minX: midX, minY: t.minY, maxX: t.maxX, maxY: midY},
		{minX: t.minX, minY: midY, maxX: midX, maxY: t.maxY},
		{minX: midX, minY: midY, maxX: t.maxX, maxY: t.maxY},
	}
}

func (t *quadTree) contains(px, py float64) bool {
	return px >= t.minX && px <= t.maxX && py >= t.minY && py <= t.maxY
}

func (t *quadTree) child(px, py float64) *quadTree {
	q := 0
	if px >= (t.minX+t.maxX)/2 {
		q |= 1
	}
	if py >= (t.minY+t.maxY)/2 {
		q |= 2
	}
	return &t.children[q]
}

// repulsion accumulates the unnormalised repulsive force on point i and
// its contribution to the normalisation sum Z. Cells whose width over
// distance is below theta are treated as a single body.
func (t *quadTree) repulsion(y []float64, i int, theta float64) (fx, fy, z float64) {
	if t.count == 0 {
		return 0, 0, 0
	}
	px, py := y[2*i], y[2*i+1]

	if t.children == nil {
		for _, j := range t.points {
			if j == i {
				continue
			}
			dx, dy := px-y[2*j], py-y[2*j+1]
			w := 1 / (1 + dx*dx + dy*dy)
			z += w
			fx += w * w * dx
			fy += w * w * dy
		}
		return fx, fy, z
	}

	n := float64(t.count)
	dx, dy := px-t.sumX/n, py-t.sumY/n
	d2 := dx*dx + dy*dy
	width := math.Max(t.maxX-t.minX, t.maxY-t.minY)
	if !t.contains(px, py) && width*width < theta*theta*d2 {
		w := 1 / (1 + d2)
		return n * w * w * dx, n * w * w * dy, n * w
	}

	for c := range t.children {
		cx, cy, cz := t.children[c].repulsion(y, i, theta)
		fx += cx
		fy += cy
		z += cz
	}
	return fx, fy, z
}
