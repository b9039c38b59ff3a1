package render

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Options controls figure layout.
type Options struct {
	Title string

	// Width and Height are the figure size.
	Width, Height vg.Length

	// DPI applies to raster output.
	DPI int

	PointRadius vg.Length
	LabelSize   vg.Length
}

// DefaultOptions returns a 12x10 inch figure at 150 DPI.
func DefaultOptions() Options {
	return Options{
		Title:       "Cipher Symbol Embeddings (t-SNE 2D)",
		Width:       12 * vg.Inch,
		Height:      10 * vg.Inch,
		DPI:         150,
		PointRadius: vg.Points(4),
		LabelSize:   vg.Points(7),
	}
}

// vowelOrder keeps the vowel legend stable and readable.
var vowelOrder = map[string]int{CategoryVowel: 0, CategoryConsonant: 1, CategoryOther: 2}

// Categories returns the distinct categories of pts under mode, in legend
// order.
func Categories(pts []Point, mode Mode) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, p := range pts {
		c := Category(p, mode)
		if !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	if mode == ModeVowel {
		sort.Slice(cats, func(i, j int) bool { return vowelOrder[cats[i]] < vowelOrder[cats[j]] })
	} else {
		sort.Strings(cats)
	}
	return cats
}

// Build assembles a fresh plot for pts.
func Build(pts []Point, mode Mode, opts Options) (*plot.Plot, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Dimension 1"
	p.Y.Label.Text = "Dimension 2"
	p.Legend.Top = true
	p.Legend.Left = false

	groups := make(map[string]plotter.XYs)
	for _, pt := range pts {
		c := Category(pt, mode)
		groups[c] = append(groups[c], plotter.XY{X: pt.X, Y: pt.Y})
	}

	palette := len(plotutil.SoftColors)
	for i, c := range Categories(pts, mode) {
		s, err := plotter.NewScatter(groups[c])
		if err != nil {
			return nil, werrors.Wrap(err, werrors.ErrPlotInputMismatch, werrors.CategoryRender, "invalid scatter data").
				WithContext("category", c)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i / palette)
		s.GlyphStyle.Radius = opts.PointRadius
		p.Add(s)
		p.Legend.Add(c, s)
	}

	if len(pts) > 0 {
		xys := make(plotter.XYs, len(pts))
		labels := make([]string, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
			labels[i] = pt.Label
		}
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return nil, werrors.Wrap(err, werrors.ErrPlotInputMismatch, werrors.CategoryRender, "invalid label data")
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Font.Size = opts.LabelSize
			l.TextStyle[i].XAlign = text.XCenter
			l.TextStyle[i].YAlign = text.YCenter
		}
		p.Add(l)
	}
	return p, nil
}

// Render draws pts under mode and saves the figure to path. PNG output
// honours opts.DPI; .svg, .pdf and other formats known to plot.Save use
// their native resolution. Parent directories are created as needed.
func Render(pts []Point, mode Mode, path string, opts Options) error {
	if path == "" {
		return werrors.AttachSuggestions(
			werrors.Render(werrors.ErrPlotNoPath, "no output path given for plot").
				WithContext("mode", string(mode)))
	}

	p, err := Build(pts, mode, opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return werrors.IOWrap(err, werrors.ErrIODirCreateFailed, "failed to create plot directory").
				WithContext("path", dir)
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".png" {
		err = savePNG(p, path, opts)
	} else {
		err = p.Save(opts.Width, opts.Height, path)
	}
	if err != nil {
		return werrors.Wrap(err, werrors.ErrPlotSaveFailed, werrors.CategoryRender, "failed to save plot").
			WithContext("path", path)
	}
	return nil
}

func savePNG(p *plot.Plot, path string, opts Options) error {
	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
