// Package projection reduces embedding matrices to two dimensions with
// t-distributed stochastic neighbour embedding (t-SNE).
//
// The optimiser follows the usual schedule: PCA initialisation, early
// exaggeration with low momentum, then plain gradient descent with high
// momentum and per-coordinate adaptive gains. Affinities and repulsion are
// either exact or Barnes-Hut approximated.
package projection

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Method selects how affinities and gradients are computed.
type Method string

const (
	// MethodBarnesHut uses sparse nearest-neighbour affinities and quadtree
	// repulsion. O(N log N) per iteration.
	MethodBarnesHut Method = "barnes_hut"

	// MethodExact uses dense affinities and pairwise repulsion. O(N²).
	MethodExact Method = "exact"
)

const (
	exaggeration      = 12.0
	exaggerationIters = 250
	initialMomentum   = 0.5
	finalMomentum     = 0.8
	minGain           = 0.01
	initScale         = 1e-4
	minLearningRate   = 50.0
)

// Options configures a projection run.
type Options struct {
	Method Method

	// PerplexityCap bounds the perplexity; the effective value is
	// min(PerplexityCap, N-1).
	PerplexityCap float64

	Iterations int
	Seed       uint64

	// Theta is the Barnes-Hut opening angle. Ignored by MethodExact.
	Theta float64

	// LearningRate of zero selects max(N/exaggeration/4, 50).
	LearningRate float64

	// Progress, when set, is called after every iteration with the
	// 1-based iteration number and the current KL divergence.
	Progress func(iter int, kl float64)
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Method:        MethodBarnesHut,
		PerplexityCap: 30,
		Iterations:    500,
		Seed:          42,
		Theta:         0.5,
	}
}

// Validate checks parameter ranges.
func (o Options) Validate() error {
	invalid := func(field, format string, args ...interface{}) error {
		return werrors.AttachSuggestions(
			werrors.Projectionf(werrors.ErrProjectionInvalidParams, format, args...).
				WithContext("field", field))
	}
	switch o.Method {
	case MethodBarnesHut, MethodExact:
	default:
		return invalid("method", "unknown projection method %q", o.Method)
	}
	if !(o.PerplexityCap >= 1) {
		return invalid("perplexity_cap", "perplexity cap must be at least 1, got %g", o.PerplexityCap)
	}
	if o.Iterations <= 0 {
		return invalid("iterations", "iterations must be positive, got %d", o.Iterations)
	}
	if o.Method == MethodBarnesHut && !(o.Theta > 0) {
		return invalid("theta", "theta must be positive, got %g", o.Theta)
	}
	if o.LearningRate < 0 {
		return invalid("learning_rate", "learning rate must not be negative, got %g", o.LearningRate)
	}
	return nil
}

// Perplexity returns the perplexity used for n points.
func Perplexity(n int, capValue float64) float64 {
	return math.Min(capValue, float64(n-1))
}

// LearningRate returns the step size used for n points when none is
// configured.
func LearningRate(n int) float64 {
	return math.Max(float64(n)/exaggeration/4, minLearningRate)
}

// Run embeds the rows of x in two dimensions. Row i of the result is the
// position of row i of x.
func Run(ctx context.Context, x mat.Matrix, opts Options) (*mat.Dense, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	if n < 2 {
		return nil, werrors.AttachSuggestions(
			werrors.Projectionf(werrors.ErrProjectionTooFewPoints,
				"need at least 2 points to project, got %d", n).
				WithContext("points", fmt.Sprint(n)))
	}

	perplexity := Perplexity(n, opts.PerplexityCap)
	k := n - 1
	if opts.Method == MethodBarnesHut {
		k = min(n-1, int(3*perplexity))
	}
	P := jointAffinities(rows(x), perplexity, k)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	y := initEmbedding(x, rng)

	lr := opts.LearningRate
	if lr == 0 {
		lr = LearningRate(n)
	}

	o := optimizer{
		P:      P,
		y:      y,
		grad:   make([]float64, 2*n),
		update: make([]float64, 2*n),
		gains:  make([]float64, 2*n),
		method: opts.Method,
		theta:  opts.Theta,
		lr:     lr,
	}
	for i := range o.gains {
		o.gains[i] = 1
	}

	for iter := 0; iter < opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, werrors.Projection(werrors.ErrProjectionCancelled, "projection cancelled").
				WithCause(err).
				WithContext("iteration", fmt.Sprint(iter))
		}

		exag, momentum := 1.0, finalMomentum
		if iter < exaggerationIters {
			exag, momentum = exaggeration, initialMomentum
		}
		kl := o.step(exag, momentum)

		if opts.Progress != nil {
			opts.Progress(iter+1, kl)
		}
	}

	return mat.NewDense(n, 2, y), nil
}

// initEmbedding projects the centred data on its first two principal
// components, scaled so the first coordinate has standard deviation 1e-4.
// Degenerate inputs fall back to small Gaussian noise.
func initEmbedding(x mat.Matrix, rng *rand.Rand) []float64 {
	n, d := x.Dims()
	y := make([]float64, 2*n)

	var pc stat.PC
	if pc.PrincipalComponents(x, nil) {
		var vecs mat.Dense
		pc.VectorsTo(&vecs)
		_, nc := vecs.Dims()
		nc = min(nc, 2)

		means := make([]float64, d)
		for k := range means {
			means[k] = stat.Mean(mat.Col(nil, k, x), nil)
		}
		for i := 0; i < n; i++ {
			for c := 0; c < nc; c++ {
				var s float64
				for k := 0; k < d; k++ {
					s += (x.At(i, k) - means[k]) * vecs.At(k, c)
				}
				y[2*i+c] = s
			}
		}

		first := make([]float64, n)
		for i := range first {
			first[i] = y[2*i]
		}
		if sd := stat.PopStdDev(first, nil); sd > 0 && !math.IsNaN(sd) {
			for i := range y {
				y[i] = y[i] / sd * initScale
			}
			return y
		}
	}

	for i := range y {
		y[i] = rng.NormFloat64() * initScale
	}
	return y
}

// optimizer carries gradient-descent state between iterations. y, grad,
// update and gains are interleaved x,y pairs.
type optimizer struct {
	P      affinities
	y      []float64
	grad   []float64
	update []float64
	gains  []float64

	method Method
	theta  float64
	lr     float64

	// repulsion scratch
	rep []float64
}

// step applies one gradient update and returns the KL divergence of the
// positions it was computed at.
func (o *optimizer) step(exag, momentum float64) float64 {
	kl := o.gradient(exag)

	for i, g := range o.grad {
		if o.update[i]*g < 0 {
			o.gains[i] += 0.2
		} else {
			o.gains[i] *= 0.8
		}
		if o.gains[i] < minGain {
			o.gains[i] = minGain
		}
		o.update[i] = momentum*o.update[i] - o.lr*o.gains[i]*g
		o.y[i] += o.update[i]
	}
	o.center()
	return kl
}

// gradient fills o.grad with dC/dy and returns KL(P||Q).
func (o *optimizer) gradient(exag float64) float64 {
	n := len(o.y) / 2
	if o.rep == nil {
		o.rep = make([]float64, 2*n)
	}

	var z float64
	switch o.method {
	case MethodExact:
		z = o.exactRepulsion()
	default:
		tree := newQuadTree(o.y)
		for i := 0; i < n; i++ {
			fx, fy, zi := tree.repulsion(o.y, i, o.theta)
			o.rep[2*i], o.rep[2*i+1] = fx, fy
			z += zi
		}
	}
	if z == 0 {
		z = math.SmallestNonzeroFloat64
	}

	var kl float64
	for i, row := range o.P {
		var ax, ay float64
		yix, yiy := o.y[2*i], o.y[2*i+1]
		for _, e := range row {
			dx, dy := yix-o.y[2*e.j], yiy-o.y[2*e.j+1]
			w := 1 / (1 + dx*dx + dy*dy)
			ax += exag * e.p * w * dx
			ay += exag * e.p * w * dy
			if e.p > 0 {
				kl += e.p * math.Log(e.p/math.Max(w/z, math.SmallestNonzeroFloat64))
			}
		}
		o.grad[2*i] = 4 * (ax - o.rep[2*i]/z)
		o.grad[2*i+1] = 4 * (ay - o.rep[2*i+1]/z)
	}
	return kl
}

func (o *optimizer) exactRepulsion() float64 {
	n := len(o.y) / 2
	for i := range o.rep {
		o.rep[i] = 0
	}
	var z float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := o.y[2*i]-o.y[2*j], o.y[2*i+1]-o.y[2*j+1]
			w := 1 / (1 + dx*dx + dy*dy)
			z += 2 * w
			o.rep[2*i] += w * w * dx
			o.rep[2*i+1] += w * w * dy
			o.rep[2*j] -= w * w * dx
			o.rep[2*j+1] -= w * w * dy
		}
	}
	return z
}

// center keeps the embedding at zero mean.
func (o *optimizer) center() {
	n := float64(len(o.y) / 2)
	var mx, my float64
	for i := 0; i < len(o.y); i += 2 {
		mx += o.y[i]
		my += o.y[i+1]
	}
	mx /= n
	my /= n
	for i := 0; i < len(o.y); i += 2 {
		o.y[i] -= mx
		o.y[i+1] -= my
	}
}
