package projection

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// clusters returns two well separated groups of size per in dim dimensions.
func clusters(per, dim int) *mat.Dense {
	x := mat.NewDense(2*per, dim, nil)
	for i := 0; i < 2*per; i++ {
		base := 0.0
		if i >= per {
			base = 10
		}
		for k := 0; k < dim; k++ {
			x.Set(i, k, base+0.01*float64((i*7+k*3)%11))
		}
	}
	return x
}

// gaussianClusters returns two unit-variance blobs of size per whose
// centres are 10 apart on every axis.
func gaussianClusters(per, dim int) *mat.Dense {
	rng := rand.New(rand.NewPCG(7, 11))
	x := mat.NewDense(2*per, dim, nil)
	for i := 0; i < 2*per; i++ {
		base := 0.0
		if i >= per {
			base = 10
		}
		for k := 0; k < dim; k++ {
			x.Set(i, k, base+rng.NormFloat64())
		}
	}
	return x
}

func quickOptions(method Method) Options {
	opts := DefaultOptions()
	opts.Method = method
	opts.Iterations = 300
	return opts
}

func TestPerplexity(t *testing.T) {
	tests := []struct {
		n    int
		cap  float64
		want float64
	}{
		{2, 30, 1},
		{10, 30, 9},
		{31, 30, 30},
		{500, 30, 30},
		{500, 5, 5},
	}
	for _, tt := range tests {
		if got := Perplexity(tt.n, tt.cap); got != tt.want {
			t.Errorf("Perplexity(%d, %g) = %g, want %g", tt.n, tt.cap, got, tt.want)
		}
	}
}

func TestLearningRate(t *testing.T) {
	if got := LearningRate(10); got != 50 {
		t.Errorf("LearningRate(10) = %g, want floor of 50", got)
	}
	if got := LearningRate(4800); got != 100 {
		t.Errorf("LearningRate(4800) = %g, want 100", got)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		field  string
	}{
		{"defaults", func(*Options) {}, ""},
		{"exact", func(o *Options) { o.Method = MethodExact; o.Theta = 0 }, ""},
		{"unknown method", func(o *Options) { o.Method = "umap" }, "method"},
		{"zero perplexity", func(o *Options) { o.PerplexityCap = 0 }, "perplexity_cap"},
		{"fractional perplexity", func(o *Options) { o.PerplexityCap = 0.2 }, "perplexity_cap"},
		{"unit perplexity", func(o *Options) { o.PerplexityCap = 1 }, ""},
		{"NaN perplexity", func(o *Options) { o.PerplexityCap = math.NaN() }, "perplexity_cap"},
		{"zero iterations", func(o *Options) { o.Iterations = 0 }, "iterations"},
		{"zero theta", func(o *Options) { o.Theta = 0 }, "theta"},
		{"negative learning rate", func(o *Options) { o.LearningRate = -1 }, "learning_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ge, ok := werrors.AsGlyphError(err)
			if !ok || ge.Code != werrors.ErrProjectionInvalidParams {
				t.Fatalf("expected PROJECTION_INVALID_PARAMS, got %v", err)
			}
			if ge.Context["field"] != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ge.Context["field"])
			}
		})
	}
}

func TestRun_TooFewPoints(t *testing.T) {
	x := mat.NewDense(1, 3, []float64{1, 2, 3})
	_, err := Run(context.Background(), x, DefaultOptions())
	if !werrors.IsCode(err, werrors.ErrProjectionTooFewPoints) {
		t.Fatalf("expected PROJECTION_TOO_FEW_POINTS, got %v", err)
	}
}

func TestRun_Shape(t *testing.T) {
	for _, method := range []Method{MethodBarnesHut, MethodExact} {
		t.Run(string(method), func(t *testing.T) {
			x := clusters(6, 5)
			y, err := Run(context.Background(), x, quickOptions(method))
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			r, c := y.Dims()
			if r != 12 || c != 2 {
				t.Fatalf("expected 12x2 output, got %dx%d", r, c)
			}
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					if v := y.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
						t.Fatalf("non-finite coordinate at (%d,%d): %g", i, j, v)
					}
				}
			}
		})
	}
}

func TestRun_TwoPoints(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	y, err := Run(context.Background(), x, quickOptions(MethodBarnesHut))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if r, _ := y.Dims(); r != 2 {
		t.Errorf("expected 2 rows, got %d", r)
	}
}

func TestRun_SeparatesClusters(t *testing.T) {
	for _, method := range []Method{MethodBarnesHut, MethodExact} {
		t.Run(string(method), func(t *testing.T) {
			const per = 40
			// perplexity well below the group size so P stays local
			opts := quickOptions(method)
			opts.PerplexityCap = 10
			opts.Iterations = 500
			y, err := Run(context.Background(), gaussianClusters(per, 4), opts)
			if err != nil {
				t.Fatal(err)
			}

			centroid := func(from int) (float64, float64) {
				var cx, cy float64
				for i := from; i < from+per; i++ {
					cx += y.At(i, 0)
					cy += y.At(i, 1)
				}
				return cx / per, cy / per
			}
			ax, ay := centroid(0)
			bx, by := centroid(per)
			between := math.Hypot(ax-bx, ay-by)

			var within float64
			for i := 0; i < per; i++ {
				within = math.Max(within, math.Hypot(y.At(i, 0)-ax, y.At(i, 1)-ay))
				within = math.Max(within, math.Hypot(y.At(per+i, 0)-bx, y.At(per+i, 1)-by))
			}
			if between <= within {
				t.Errorf("clusters not separated: centroid distance %g, max spread %g", between, within)
			}
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	x := clusters(5, 3)
	opts := quickOptions(MethodBarnesHut)
	opts.Iterations = 50

	a, err := Run(context.Background(), x, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(context.Background(), x, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.RawMatrix().Data, b.RawMatrix().Data); diff != "" {
		t.Errorf("same seed produced different layouts (-a +b):\n%s", diff)
	}
}

func TestRun_IdenticalRows(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1})
	opts := quickOptions(MethodBarnesHut)
	opts.Iterations = 20
	y, err := Run(context.Background(), x, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, v := range y.RawMatrix().Data {
		if math.IsNaN(v) {
			t.Fatal("identical rows produced NaN coordinates")
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := quickOptions(MethodExact)

	calls := 0
	opts.Progress = func(iter int, kl float64) {
		calls++
		if iter == 3 {
			cancel()
		}
	}
	_, err := Run(ctx, clusters(4, 3), opts)
	if !werrors.IsCode(err, werrors.ErrProjectionCancelled) {
		t.Fatalf("expected PROJECTION_CANCELLED, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected the run to stop after 3 iterations, got %d", calls)
	}
}

func TestRun_Progress(t *testing.T) {
	opts := quickOptions(MethodBarnesHut)
	opts.Iterations = 30

	var iters []int
	var last float64
	opts.Progress = func(iter int, kl float64) {
		iters = append(iters, iter)
		last = kl
	}
	if _, err := Run(context.Background(), clusters(4, 3), opts); err != nil {
		t.Fatal(err)
	}
	if len(iters) != 30 || iters[0] != 1 || iters[29] != 30 {
		t.Errorf("unexpected progress iterations %v", iters)
	}
	if math.IsNaN(last) || last < 0 {
		t.Errorf("KL divergence should be a non-negative number, got %g", last)
	}
}

func TestJointAffinities(t *testing.T) {
	xs := rows(clusters(5, 3))
	for _, k := range []int{3, len(xs) - 1} {
		P := jointAffinities(xs, 2, k)

		var total float64
		dense := make(map[[2]int]float64)
		for i, row := range P {
			for _, e := range row {
				if e.j == i {
					t.Fatalf("self affinity at row %d", i)
				}
				total += e.p
				dense[[2]int{i, e.j}] = e.p
			}
		}
		if math.Abs(total-1) > 1e-9 {
			t.Errorf("k=%d: affinities sum to %g, want 1", k, total)
		}
		for ij, p := range dense {
			if q := dense[[2]int{ij[1], ij[0]}]; math.Abs(p-q) > 1e-12 {
				t.Errorf("k=%d: P not symmetric at %v: %g vs %g", k, ij, p, q)
			}
		}
	}
}

func TestConditional_MatchesPerplexity(t *testing.T) {
	dist := []float64{0.5, 1, 2, 4, 8, 16}
	out := make([]float64, len(dist))
	conditional(dist, 3, out)

	var h, sum float64
	for _, p := range out {
		sum += p
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	if diff := cmp.Diff(1.0, sum, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("row does not sum to 1:\n%s", diff)
	}
	if got := math.Exp(h); math.Abs(got-3) > 1e-3 {
		t.Errorf("row perplexity = %g, want 3", got)
	}
}

func TestTreeCandidates_MatchPairwise(t *testing.T) {
	xs := rows(gaussianClusters(30, 6))
	for _, k := range []int{1, 5, 20} {
		treeIdx, treeDist := treeCandidates(xs, k)
		allIdx, allDist := allCandidates(xs, k)
		if diff := cmp.Diff(allIdx, treeIdx); diff != "" {
			t.Errorf("k=%d: neighbour indices differ (-pairwise +tree):\n%s", k, diff)
		}
		if diff := cmp.Diff(allDist, treeDist, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("k=%d: neighbour distances differ (-pairwise +tree):\n%s", k, diff)
		}
	}
}

func TestTreeCandidates_DuplicateRows(t *testing.T) {
	xs := [][]float64{{0, 0}, {0, 0}, {0, 0}, {0, 0}, {5, 5}}
	idx, dist := treeCandidates(xs, 2)
	for i, row := range idx {
		if len(row) != 2 {
			t.Fatalf("row %d: expected 2 neighbours, got %d", i, len(row))
		}
		for _, j := range row {
			if j == i {
				t.Errorf("row %d lists itself as a neighbour", i)
			}
		}
	}
	if dist[0][0] != 0 || dist[0][1] != 0 {
		t.Errorf("coincident rows should be at distance 0, got %v", dist[0])
	}
}
