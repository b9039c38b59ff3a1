package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	werrors "github.com/r3d91ll/glyph/pkg/errors"
)

// HashAlgorithm identifies the digest used for inputs and fingerprints.
const HashAlgorithm = "SHA-256"

// InputFile records one input file and its digest.
type InputFile struct {
	Role   string `json:"role"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}

// Manifest describes one plot run well enough to reproduce it.
type Manifest struct {
	// RunID is unique per run and excluded from the fingerprint.
	RunID string `json:"run_id"`

	ToolVersion string    `json:"tool_version"`
	CreatedAt   time.Time `json:"created_at"`

	Inputs []InputFile `json:"inputs"`

	// Parameters holds projection and rendering settings as strings.
	Parameters map[string]string `json:"parameters,omitempty"`

	// Points is the number of projected symbols.
	Points int `json:"points"`

	// Fingerprint is a SHA-256 over version, inputs, parameters and point
	// count. Identical runs share a fingerprint.
	Fingerprint string `json:"fingerprint"`
	Algorithm   string `json:"algorithm"`

	Outputs []string `json:"outputs"`
}

// ManifestBuilder assembles a Manifest.
type ManifestBuilder struct {
	m *Manifest
}

// NewManifestBuilder starts a manifest with a fresh run id.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{
		m: &Manifest{
			RunID:      uuid.New().String(),
			Parameters: make(map[string]string),
		},
	}
}

// WithToolVersion sets the tool version.
func (mb *ManifestBuilder) WithToolVersion(version string) *ManifestBuilder {
	mb.m.ToolVersion = version
	return mb
}

// WithInputDigest records an input whose digest is already known.
func (mb *ManifestBuilder) WithInputDigest(role, path, digest string, size int64) *ManifestBuilder {
	mb.m.Inputs = append(mb.m.Inputs, InputFile{Role: role, Path: path, SHA256: digest, Bytes: size})
	return mb
}

// WithInput hashes path and records it under role.
func (mb *ManifestBuilder) WithInput(role, path string) error {
	digest, size, err := HashFile(path)
	if err != nil {
		return err
	}
	mb.WithInputDigest(role, path, digest, size)
	return nil
}

// WithParameter adds a setting. Keys are sorted when fingerprinting.
func (mb *ManifestBuilder) WithParameter(key, value string) *ManifestBuilder {
	mb.m.Parameters[key] = value
	return mb
}

// WithParameters adds several settings.
func (mb *ManifestBuilder) WithParameters(params map[string]string) *ManifestBuilder {
	for k, v := range params {
		mb.m.Parameters[k] = v
	}
	return mb
}

// WithPoints sets the number of projected symbols.
func (mb *ManifestBuilder) WithPoints(n int) *ManifestBuilder {
	mb.m.Points = n
	return mb
}

// WithOutput records a written file.
func (mb *ManifestBuilder) WithOutput(path string) *ManifestBuilder {
	mb.m.Outputs = append(mb.m.Outputs, path)
	return mb
}

// Build stamps the creation time and fingerprint.
func (mb *ManifestBuilder) Build() *Manifest {
	mb.m.CreatedAt = time.Now().UTC()
	mb.m.Algorithm = HashAlgorithm
	mb.m.Fingerprint = computeFingerprint(mb.m)
	return mb.m
}

// computeFingerprint hashes a canonical rendering of the reproducible
// fields. Order is fixed; inputs are sorted by role then path.
func computeFingerprint(m *Manifest) string {
	var sb strings.Builder

	sb.WriteString("version:")
	sb.WriteString(m.ToolVersion)
	sb.WriteString("|")

	inputs := append([]InputFile(nil), m.Inputs...)
	sort.Slice(inputs, func(i, j int) bool {
		if inputs[i].Role != inputs[j].Role {
			return inputs[i].Role < inputs[j].Role
		}
		return inputs[i].Path < inputs[j].Path
	})
	for _, in := range inputs {
		sb.WriteString("input:")
		sb.WriteString(in.Role)
		sb.WriteString("=")
		sb.WriteString(in.SHA256)
		sb.WriteString("|")
	}

	sb.WriteString("points:")
	sb.WriteString(fmt.Sprintf("%d", m.Points))
	sb.WriteString("|")

	if len(m.Parameters) > 0 {
		sb.WriteString("params:")
		keys := make([]string, 0, len(m.Parameters))
		for k := range m.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(m.Parameters[k])
		}
		sb.WriteString("|")
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 8 characters of the fingerprint.
func (m *Manifest) ShortFingerprint() string {
	if len(m.Fingerprint) >= 8 {
		return m.Fingerprint[:8]
	}
	return m.Fingerprint
}

// Verify recomputes the fingerprint and reports whether it matches.
func (m *Manifest) Verify() bool {
	return computeFingerprint(m) == m.Fingerprint
}

// WriteFile writes the manifest as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return werrors.Internal(werrors.ErrIOWriteFailed, "failed to encode manifest").WithCause(err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return werrors.IOWrap(err, werrors.ErrIODirCreateFailed, "failed to create manifest directory").
				WithContext("path", dir)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return werrors.WriteFailed(path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteFile.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, werrors.FileNotFound(path, err)
		}
		return nil, werrors.ReadFailed(path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrIOReadFailed, werrors.CategoryIO, "failed to decode manifest").
			WithContext("path", path)
	}
	return &m, nil
}

// HashFile returns the hex SHA-256 digest and size of a file.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, werrors.FileNotFound(path, err)
		}
		return "", 0, werrors.ReadFailed(path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, werrors.ReadFailed(path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
