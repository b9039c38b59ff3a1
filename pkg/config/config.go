// Package config handles glyph configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "glyph.yaml"

// Config is the root configuration structure.
type Config struct {
	Inputs     InputsConfig     `yaml:"inputs"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Vectors    VectorsConfig    `yaml:"vectors"`
	Mapping    MappingConfig    `yaml:"mapping"`
	Projection ProjectionConfig `yaml:"projection"`
	Plot       PlotConfig       `yaml:"plot"`
	Export     ExportConfig     `yaml:"export"`
}

// InputsConfig names the input files.
type InputsConfig struct {
	Key     string `yaml:"key"`
	Vectors string `yaml:"vectors"`
}

// CorpusConfig holds corpus builder output settings.
type CorpusConfig struct {
	OutputDir  string `yaml:"output_dir"`
	Plaintext  string `yaml:"plaintext"`
	Ciphertext string `yaml:"ciphertext"`
	Combined   string `yaml:"combined"`
}

// VectorsConfig holds vector file parsing settings.
type VectorsConfig struct {
	// SkipUnknown drops lines whose symbol equals UnknownMarker.
	SkipUnknown   bool   `yaml:"skip_unknown"`
	UnknownMarker string `yaml:"unknown_marker"`
}

// MappingConfig holds cipher-to-letter lookup settings.
type MappingConfig struct {
	// Unknown is the letter reported for ids missing from the key.
	Unknown string `yaml:"unknown"`
}

// ProjectionConfig holds t-SNE parameters.
type ProjectionConfig struct {
	Method        string  `yaml:"method"` // "barnes_hut" or "exact"
	PerplexityCap float64 `yaml:"perplexity_cap"`
	Iterations    int     `yaml:"iterations"`
	Seed          uint64  `yaml:"seed"`
	Theta         float64 `yaml:"theta"`

	// LearningRate of 0 selects max(N/exaggeration/4, 50).
	LearningRate float64 `yaml:"learning_rate"`
}

// PlotConfig holds plot rendering settings.
type PlotConfig struct {
	OutputDir string `yaml:"output_dir"`

	// Outputs maps a coloring mode to its image file name.
	// Modes run in the order letter, plaincipher, vowel.
	Outputs map[string]string `yaml:"outputs"`

	Title       string  `yaml:"title"`
	WidthInch   float64 `yaml:"width_inch"`
	HeightInch  float64 `yaml:"height_inch"`
	DPI         int     `yaml:"dpi"`
	PointRadius float64 `yaml:"point_radius"`
	LabelSize   float64 `yaml:"label_size"`
}

// ExportConfig holds coordinate CSV and manifest settings.
type ExportConfig struct {
	CSV       string `yaml:"csv"`
	Dialect   string `yaml:"dialect"`
	Precision int    `yaml:"precision"`
	Manifest  string `yaml:"manifest"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Inputs: InputsConfig{
			Key:     "key.json",
			Vectors: "vectors.txt",
		},
		Corpus: CorpusConfig{
			OutputDir:  ".",
			Plaintext:  "plaintext.txt",
			Ciphertext: "ciphertext.txt",
			Combined:   "combined.txt",
		},
		Vectors: VectorsConfig{
			SkipUnknown:   true,
			UnknownMarker: "<unk>",
		},
		Mapping: MappingConfig{
			Unknown: "?",
		},
		Projection: ProjectionConfig{
			Method:        "barnes_hut",
			PerplexityCap: 30,
			Iterations:    500,
			Seed:          42,
			Theta:         0.5,
		},
		Plot: PlotConfig{
			OutputDir: ".",
			Outputs: map[string]string{
				"letter":      "plot_letter.png",
				"plaincipher": "plot_plain.png",
				"vowel":       "plot_vc.png",
			},
			Title:       "Cipher Symbol Embeddings (t-SNE 2D)",
			WidthInch:   12,
			HeightInch:  10,
			DPI:         150,
			PointRadius: 4,
			LabelSize:   7,
		},
		Export: ExportConfig{
			CSV:       "coords.csv",
			Dialect:   "standard",
			Precision: 6,
			Manifest:  "manifest.json",
		},
	}
}

// Validate checks value ranges. Errors carry the offending field in context.
func (c *Config) Validate() error {
	invalid := func(field, reason string) error {
		return werrors.AttachSuggestions(
			werrors.Configf(werrors.ErrConfigInvalid, "invalid %s: %s", field, reason).
				WithContext("field", field))
	}

	switch c.Projection.Method {
	case "barnes_hut", "exact":
	default:
		return invalid("projection.method", fmt.Sprintf("%q is not barnes_hut or exact", c.Projection.Method))
	}
	if !(c.Projection.PerplexityCap >= 1) {
		return invalid("projection.perplexity_cap", "must be at least 1")
	}
	if c.Projection.Iterations <= 0 {
		return invalid("projection.iterations", "must be positive")
	}
	if c.Projection.Theta < 0 || c.Projection.Theta > 1 {
		return invalid("projection.theta", "must be within [0, 1]")
	}
	if c.Projection.Method == "barnes_hut" && c.Projection.Theta == 0 {
		return invalid("projection.theta", "must be positive for barnes_hut")
	}
	if c.Projection.LearningRate < 0 {
		return invalid("projection.learning_rate", "must not be negative")
	}
	if c.Plot.DPI <= 0 {
		return invalid("plot.dpi", "must be positive")
	}
	if c.Plot.WidthInch <= 0 || c.Plot.HeightInch <= 0 {
		return invalid("plot.width_inch/height_inch", "must be positive")
	}
	for mode := range c.Plot.Outputs {
		switch mode {
		case "letter", "plaincipher", "vowel":
		default:
			return invalid("plot.outputs", fmt.Sprintf("unknown mode %q", mode))
		}
	}
	switch c.Export.Dialect {
	case "standard", "tsv":
	default:
		return invalid("export.dialect", fmt.Sprintf("%q is not standard or tsv", c.Export.Dialect))
	}
	if c.Export.Precision < 0 {
		return invalid("export.precision", "must not be negative")
	}
	return nil
}

// Load loads configuration from a file. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, werrors.FileNotFound(path, err)
		}
		return nil, werrors.Wrap(err, werrors.ErrConfigReadFailed, werrors.CategoryConfig, "failed to read config").
			WithContext("path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, werrors.AttachSuggestions(
			werrors.Wrap(err, werrors.ErrConfigParseFailed, werrors.CategoryConfig, "failed to parse config").
				WithContext("path", path))
	}

	if err := cfg.Validate(); err != nil {
		if ge, ok := werrors.AsGlyphError(err); ok {
			ge.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return werrors.IOWrap(err, werrors.ErrIODirCreateFailed, "failed to create config directory").
				WithContext("path", dir)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return werrors.Wrap(err, werrors.ErrConfigWriteFailed, werrors.CategoryConfig, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return werrors.AttachSuggestions(
			werrors.Wrap(err, werrors.ErrConfigWriteFailed, werrors.CategoryConfig, "failed to write config file").
				WithContext("path", path))
	}
	return nil
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}
	return Default().Save(path)
}
