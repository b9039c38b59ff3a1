package errors

import "strings"

// Registry maps error codes to their remediation suggestions.
type Registry struct {
	suggestions map[string][]string
}

// NewRegistry creates a new suggestion registry.
func NewRegistry() *Registry {
	return &Registry{
		suggestions: make(map[string][]string),
	}
}

// Register adds a suggestion for an error code.
func (r *Registry) Register(code, text string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], text)
	return r
}

// Get returns the suggestions for an error code in registration order.
func (r *Registry) Get(code string) []string {
	return r.suggestions[code]
}

// HasSuggestions returns true if any suggestions exist for the error code.
func (r *Registry) HasSuggestions(code string) bool {
	return len(r.suggestions[code]) > 0
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func init() {
	defaultRegistry.
		Register(ErrConfigParseFailed, "Check glyph.yaml for YAML syntax errors").
		Register(ErrConfigParseFailed, "Run 'glyph init' to write a fresh default configuration").
		Register(ErrConfigInvalid, "Review the error context for which field is invalid").
		Register(ErrConfigWriteFailed, "Ensure you have write access to the config directory")

	defaultRegistry.
		Register(ErrKeyParseFailed, "The key file must be a JSON (or YAML) object").
		Register(ErrKeyFieldMissing, `The key file needs "plaintext", "ciphertext" and "key" fields`).
		Register(ErrKeyFieldType, `"plaintext" and "ciphertext" are strings; "key" maps letters to lists of ids`).
		Register(ErrKeyUnsupportedFormat, "Use a .json, .yaml or .yml key file")

	defaultRegistry.
		Register(ErrVectorsDimensionMismatch, "Every vector line must carry the same number of values").
		Register(ErrVectorsParseFailed, "Vector lines look like: symbol 0.12 -0.4 ...").
		Register(ErrVectorsEmpty, "Check that the vector file is the text output of the embedding trainer")

	defaultRegistry.
		Register(ErrProjectionTooFewPoints, "Projection needs at least two symbols with vectors").
		Register(ErrProjectionInvalidParams, "Check the projection section of glyph.yaml")

	defaultRegistry.
		Register(ErrPlotInvalidMode, "Valid modes: letter, plaincipher, vowel").
		Register(ErrExportInvalidDialect, "Valid dialects: standard, tsv").
		Register(ErrCommandUnknown, "Run 'glyph help' for the list of commands").
		Register(ErrIOFileNotFound, "Check the path, or set it in glyph.yaml").
		Register(ErrIODirCreateFailed, "Check that the parent directory is writable")
}

// AttachSuggestions adds suggestions from the default registry to err.
func AttachSuggestions(err *GlyphError) *GlyphError {
	if err == nil {
		return nil
	}
	if s := defaultRegistry.Get(err.Code); len(s) > 0 {
		err.Suggestions = append(err.Suggestions, s...)
	}
	return err
}

// FormatSuggestionList formats a list of suggestions for display.
func FormatSuggestionList(suggestions []string) string {
	var sb strings.Builder
	for i, s := range suggestions {
		sb.WriteString("→ ")
		sb.WriteString(s)
		if i < len(suggestions)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
