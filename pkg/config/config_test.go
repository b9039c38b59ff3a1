package config

import (
	"os"
	"path/filepath"
	"testing"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Projection.PerplexityCap != 30 {
		t.Errorf("expected perplexity cap 30, got %v", cfg.Projection.PerplexityCap)
	}
	if cfg.Projection.Iterations != 500 {
		t.Errorf("expected 500 iterations, got %d", cfg.Projection.Iterations)
	}
	if cfg.Plot.Outputs["plaincipher"] != "plot_plain.png" {
		t.Errorf("unexpected plaincipher output %q", cfg.Plot.Outputs["plaincipher"])
	}
	if cfg.Mapping.Unknown != "?" {
		t.Errorf("expected unknown placeholder '?', got %q", cfg.Mapping.Unknown)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/to/glyph.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !werrors.IsCode(err, werrors.ErrIOFileNotFound) {
		t.Errorf("expected IO_FILE_NOT_FOUND, got %v", err)
	}
}

func TestLoad_YAMLParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "projection: [unclosed\n  method: exact\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}

	gerr, ok := err.(*werrors.GlyphError)
	if !ok {
		t.Fatalf("expected *werrors.GlyphError, got %T", err)
	}
	if gerr.Code != werrors.ErrConfigParseFailed {
		t.Errorf("expected code %q, got %q", werrors.ErrConfigParseFailed, gerr.Code)
	}
	if gerr.Context["path"] != path {
		t.Errorf("expected path context %q, got %q", path, gerr.Context["path"])
	}
	if gerr.Cause == nil {
		t.Error("expected cause to be set")
	}
	if len(gerr.Suggestions) == 0 {
		t.Error("expected suggestions to be attached")
	}
}

func TestLoad_PartialOverridesKeepDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "glyph.yaml", `
projection:
  perplexity_cap: 20
  method: exact
plot:
  dpi: 300
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Projection.PerplexityCap != 20 {
		t.Errorf("expected perplexity cap 20, got %v", cfg.Projection.PerplexityCap)
	}
	if cfg.Projection.Method != "exact" {
		t.Errorf("expected method exact, got %q", cfg.Projection.Method)
	}
	if cfg.Projection.Iterations != 500 {
		t.Errorf("iterations should keep default 500, got %d", cfg.Projection.Iterations)
	}
	if cfg.Plot.DPI != 300 {
		t.Errorf("expected dpi 300, got %d", cfg.Plot.DPI)
	}
	if cfg.Inputs.Key != "key.json" {
		t.Errorf("inputs.key should keep default, got %q", cfg.Inputs.Key)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"bad method", func(c *Config) { c.Projection.Method = "umap" }, "projection.method"},
		{"zero perplexity", func(c *Config) { c.Projection.PerplexityCap = 0 }, "projection.perplexity_cap"},
		{"fractional perplexity", func(c *Config) { c.Projection.PerplexityCap = 0.2 }, "projection.perplexity_cap"},
		{"zero iterations", func(c *Config) { c.Projection.Iterations = 0 }, "projection.iterations"},
		{"theta too large", func(c *Config) { c.Projection.Theta = 1.5 }, "projection.theta"},
		{"zero theta barnes_hut", func(c *Config) { c.Projection.Theta = 0 }, "projection.theta"},
		{"zero dpi", func(c *Config) { c.Plot.DPI = 0 }, "plot.dpi"},
		{"unknown mode", func(c *Config) { c.Plot.Outputs["rainbow"] = "x.png" }, "plot.outputs"},
		{"bad dialect", func(c *Config) { c.Export.Dialect = "excel" }, "export.dialect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			gerr, ok := werrors.AsGlyphError(err)
			if !ok {
				t.Fatalf("expected GlyphError, got %T", err)
			}
			if gerr.Code != werrors.ErrConfigInvalid {
				t.Errorf("expected CONFIG_INVALID, got %q", gerr.Code)
			}
			if gerr.Context["field"] != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, gerr.Context["field"])
			}
		})
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Projection.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", cfg.Projection.Seed)
	}

	cfg, err = LoadOrDefault("")
	if err != nil || cfg == nil {
		t.Fatalf("empty path should return defaults, got %v", err)
	}
}

func TestInitConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "glyph.yaml")
	if err := InitConfig(path); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after init failed: %v", err)
	}
	if cfg.Vectors.UnknownMarker != "<unk>" {
		t.Errorf("expected unknown marker '<unk>', got %q", cfg.Vectors.UnknownMarker)
	}

	// A second init leaves an existing file alone.
	if err := os.WriteFile(path, []byte("plot:\n  dpi: 72\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitConfig(path); err != nil {
		t.Fatalf("second InitConfig failed: %v", err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Plot.DPI != 72 {
		t.Errorf("InitConfig overwrote an existing file (dpi=%d)", cfg.Plot.DPI)
	}
}
