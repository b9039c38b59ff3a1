package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/r3d91ll/glyph/pkg/cipherkey"
	"github.com/r3d91ll/glyph/pkg/config"
	"github.com/r3d91ll/glyph/pkg/corpus"
	"github.com/r3d91ll/glyph/pkg/embedding"
	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"github.com/r3d91ll/glyph/pkg/export"
	"github.com/r3d91ll/glyph/pkg/projection"
	"github.com/r3d91ll/glyph/pkg/render"
	"github.com/r3d91ll/glyph/pkg/spinner"
	"gonum.org/v1/plot/vg"
)

// errHelp signals that -h was handled and the command should exit cleanly.
var errHelp = errors.New("help requested")

// commonFlags are shared by every subcommand that reads inputs.
type commonFlags struct {
	configPath string
	keyPath    string
	vectors    string
	outDir     string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", config.DefaultPath, "Config file path")
	fs.StringVar(&c.keyPath, "key", "", "Key file (overrides inputs.key)")
	fs.StringVar(&c.vectors, "vectors", "", "Vector file (overrides inputs.vectors)")
	fs.StringVar(&c.outDir, "out", "", "Output directory (overrides corpus/plot output_dir)")
}

// load reads the config and applies flag overrides.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.keyPath != "" {
		cfg.Inputs.Key = c.keyPath
	}
	if c.vectors != "" {
		cfg.Inputs.Vectors = c.vectors
	}
	if c.outDir != "" {
		cfg.Corpus.OutputDir = c.outDir
		cfg.Plot.OutputDir = c.outDir
	}
	return cfg, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return werrors.Wrap(err, werrors.ErrCommandInvalidArgs, werrors.CategoryCommand, "invalid flags").
			WithContext("command", fs.Name())
	}
	if fs.NArg() > 0 {
		return werrors.Commandf(werrors.ErrCommandInvalidArgs, "unexpected argument %q", fs.Arg(0)).
			WithContext("command", fs.Name())
	}
	return nil
}

// loadMapping reads the key file and inverts its cipher key, warning
// about ids listed under more than one letter.
func loadMapping(path string, logger *log.Logger) (*cipherkey.Mapping, error) {
	key, err := cipherkey.Load(path)
	if err != nil {
		return nil, err
	}
	if err := key.Require(cipherkey.FieldKey); err != nil {
		return nil, err
	}
	m := cipherkey.Invert(key.Letters)
	for _, c := range m.Collisions() {
		logger.Printf("[mapping] warning: id %s listed under %s, using %q",
			c.ID, strings.Join(c.Letters, ", "), c.Letters[len(c.Letters)-1])
	}
	return m, nil
}

// loadVectors reads the configured vector file behind a spinner.
func loadVectors(cfg *config.Config, quiet bool) (*embedding.Table, error) {
	var sp *spinner.Spinner
	if !quiet {
		sp = spinner.New("Loading vectors")
		sp.Start()
	}
	tbl, err := embedding.LoadFile(cfg.Inputs.Vectors, embedding.LoadOptions{
		SkipUnknown:   cfg.Vectors.SkipUnknown,
		UnknownMarker: cfg.Vectors.UnknownMarker,
	})
	if sp != nil {
		if err != nil {
			sp.Fail("failed to load vectors")
		} else {
			sp.Success(fmt.Sprintf("Loaded %d vectors", tbl.Len()))
		}
	}
	return tbl, err
}

func runCorpus(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("corpus", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := parseFlags(fs, args); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	key, err := cipherkey.Load(cfg.Inputs.Key)
	if err != nil {
		return err
	}

	res, err := corpus.Build(key, corpus.Options{
		Dir:            cfg.Corpus.OutputDir,
		PlaintextFile:  cfg.Corpus.Plaintext,
		CiphertextFile: cfg.Corpus.Ciphertext,
		CombinedFile:   cfg.Corpus.Combined,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Corpus written (%d aligned tokens)\n", res.Alignment.Len())
	fmt.Printf("  %s\n  %s\n  %s\n", res.PlaintextPath, res.CiphertextPath, res.CombinedPath)
	return nil
}

func runPlot(ctx context.Context, args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	modeFlag := fs.String("mode", "", "Render a single mode: letter, plaincipher or vowel")
	quiet := fs.Bool("quiet", false, "Hide the spinner and progress bar")
	if err := parseFlags(fs, args); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	modes := render.Modes
	if *modeFlag != "" {
		m, err := render.ParseMode(*modeFlag)
		if err != nil {
			return err
		}
		modes = []render.Mode{m}
	}

	mapping, err := loadMapping(cfg.Inputs.Key, logger)
	if err != nil {
		return err
	}

	tbl, err := loadVectors(cfg, *quiet)
	if err != nil {
		return err
	}
	logger.Printf("[plot] loaded %d vectors of dimension %d from %s", tbl.Len(), tbl.Dim(), cfg.Inputs.Vectors)

	opts := projectionOptions(cfg.Projection)
	var bar *spinner.ProgressBar
	if !*quiet {
		bar = spinner.NewProgress(opts.Iterations, "Projecting")
		opts.Progress = bar.Observe()
		bar.Start()
	}
	coords, err := projection.Run(ctx, tbl.Vectors, opts)
	if bar != nil {
		if err != nil {
			bar.Fail("projection failed")
		} else {
			bar.Done("projection complete")
		}
	}
	if err != nil {
		return err
	}

	pts, err := render.Points(tbl.Vocab, coords, mapping, cfg.Mapping.Unknown)
	if err != nil {
		return err
	}

	manifest := export.NewManifestBuilder().
		WithToolVersion(version).
		WithParameters(manifestParameters(cfg, opts)).
		WithPoints(len(pts))
	if err := manifest.WithInput("key", cfg.Inputs.Key); err != nil {
		return err
	}
	if err := manifest.WithInput("vectors", cfg.Inputs.Vectors); err != nil {
		return err
	}

	renderOpts := renderOptions(cfg.Plot)
	for _, mode := range modes {
		name, ok := cfg.Plot.Outputs[string(mode)]
		if !ok || name == "" {
			logger.Printf("[plot] no output configured for mode %s, skipping", mode)
			continue
		}
		path := filepath.Join(cfg.Plot.OutputDir, name)
		if err := render.Render(pts, mode, path, renderOpts); err != nil {
			return err
		}
		logger.Printf("[plot] wrote %s (%s)", path, mode)
		manifest.WithOutput(path)
	}

	if cfg.Export.CSV != "" {
		path := filepath.Join(cfg.Plot.OutputDir, cfg.Export.CSV)
		if err := writeCoordinates(path, pts, cfg.Export); err != nil {
			return err
		}
		logger.Printf("[plot] wrote %s", path)
		manifest.WithOutput(path)
	}

	if cfg.Export.Manifest != "" {
		path := filepath.Join(cfg.Plot.OutputDir, cfg.Export.Manifest)
		m := manifest.Build()
		if err := m.WriteFile(path); err != nil {
			return err
		}
		logger.Printf("[plot] wrote %s (run %s, fingerprint %s)", path, m.RunID, m.ShortFingerprint())
	}

	fmt.Printf("✓ Plotted %d symbols\n", len(pts))
	return nil
}

func runNeighbors(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("neighbors", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	k := fs.Int("k", 5, "Neighbours per symbol")
	symbols := fs.String("symbols", "", "Comma-separated symbols to query (default: every cipher token)")
	quiet := fs.Bool("quiet", false, "Hide the loading spinner")
	if err := parseFlags(fs, args); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}
	if *k <= 0 {
		return werrors.Commandf(werrors.ErrCommandInvalidArgs, "-k must be positive, got %d", *k).
			WithContext("flag", "k")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	mapping, err := loadMapping(cfg.Inputs.Key, logger)
	if err != nil {
		return err
	}
	tbl, err := loadVectors(cfg, *quiet)
	if err != nil {
		return err
	}

	var query []string
	if *symbols != "" {
		for _, s := range strings.Split(*symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				query = append(query, s)
			}
		}
	} else {
		for _, s := range tbl.Vocab {
			if render.IsNumeric(s) {
				query = append(query, s)
			}
		}
	}

	ix, err := embedding.NewIndex(tbl)
	if err != nil {
		return err
	}
	letterOf := func(s string) string {
		return render.LetterFor(s, mapping, cfg.Mapping.Unknown)
	}
	return embedding.WriteReport(os.Stdout, ix, query, *k, letterOf)
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("config", config.DefaultPath, "Config file path")
	if err := parseFlags(fs, args); err != nil {
		if err == errHelp {
			return nil
		}
		return err
	}

	if _, err := os.Stat(*path); err == nil {
		fmt.Printf("Config already exists at: %s\n", *path)
		return nil
	}
	if err := config.InitConfig(*path); err != nil {
		return err
	}
	fmt.Printf("Config initialized at: %s\n", *path)
	fmt.Println("Edit this file to point at your key and vector files.")
	return nil
}

func projectionOptions(pc config.ProjectionConfig) projection.Options {
	return projection.Options{
		Method:        projection.Method(pc.Method),
		PerplexityCap: pc.PerplexityCap,
		Iterations:    pc.Iterations,
		Seed:          pc.Seed,
		Theta:         pc.Theta,
		LearningRate:  pc.LearningRate,
	}
}

func renderOptions(pc config.PlotConfig) render.Options {
	return render.Options{
		Title:       pc.Title,
		Width:       vg.Length(pc.WidthInch) * vg.Inch,
		Height:      vg.Length(pc.HeightInch) * vg.Inch,
		DPI:         pc.DPI,
		PointRadius: vg.Points(pc.PointRadius),
		LabelSize:   vg.Points(pc.LabelSize),
	}
}

func manifestParameters(cfg *config.Config, opts projection.Options) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"projection.method":         string(opts.Method),
		"projection.perplexity_cap": f(opts.PerplexityCap),
		"projection.iterations":     strconv.Itoa(opts.Iterations),
		"projection.seed":           strconv.FormatUint(opts.Seed, 10),
		"projection.theta":          f(opts.Theta),
		"projection.learning_rate":  f(opts.LearningRate),
		"vectors.skip_unknown":      strconv.FormatBool(cfg.Vectors.SkipUnknown),
		"vectors.unknown_marker":    cfg.Vectors.UnknownMarker,
		"mapping.unknown":           cfg.Mapping.Unknown,
	}
}

func writeCoordinates(path string, pts []render.Point, ec config.ExportConfig) error {
	dialect, err := export.ParseDialect(ec.Dialect)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return werrors.IOWrap(err, werrors.ErrIODirCreateFailed, "failed to create export directory").
				WithContext("path", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return werrors.WriteFailed(path, err)
	}
	cw := export.NewCSVWriter(f, &export.CSVConfig{
		Dialect:       dialect,
		IncludeHeader: true,
		Precision:     ec.Precision,
	})
	if err := cw.WriteAll(pts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return werrors.WriteFailed(path, err)
	}
	return nil
}
