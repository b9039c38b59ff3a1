// Package corpus turns a key file's plaintext and ciphertext into the flat
// text corpora consumed by the embedding trainer.
package corpus

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/r3d91ll/glyph/pkg/cipherkey"
	werrors "github.com/r3d91ll/glyph/pkg/errors"
)

// Default output file names.
const (
	DefaultPlaintextFile  = "plaintext.txt"
	DefaultCiphertextFile = "ciphertext.txt"
	DefaultCombinedFile   = "combined.txt"
)

// Alignment is the result of truncating two sequences to a common length.
type Alignment struct {
	Plaintext  []string
	Ciphertext []string

	// PlaintextLen and CiphertextLen are the lengths before truncation.
	PlaintextLen  int
	CiphertextLen int
}

// Truncated reports whether either sequence was cut.
func (a Alignment) Truncated() bool {
	return a.PlaintextLen != a.CiphertextLen
}

// Len is the aligned length.
func (a Alignment) Len() int {
	return len(a.Plaintext)
}

// Align cuts both sequences to min(len(plain), len(cipher)), keeping each
// prefix. Equal-length input is returned unchanged.
func Align(plain, cipher []string) Alignment {
	n := len(plain)
	if len(cipher) < n {
		n = len(cipher)
	}
	return Alignment{
		Plaintext:     plain[:n],
		Ciphertext:    cipher[:n],
		PlaintextLen:  len(plain),
		CiphertextLen: len(cipher),
	}
}

// Options controls where the corpora are written.
type Options struct {
	// Dir is the output directory. Empty means the working directory.
	Dir string

	PlaintextFile  string
	CiphertextFile string
	CombinedFile   string

	// Logger receives progress and warnings. Nil uses log.Default().
	Logger *log.Logger
}

func (o *Options) defaults() {
	if o.PlaintextFile == "" {
		o.PlaintextFile = DefaultPlaintextFile
	}
	if o.CiphertextFile == "" {
		o.CiphertextFile = DefaultCiphertextFile
	}
	if o.CombinedFile == "" {
		o.CombinedFile = DefaultCombinedFile
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Result lists what Build produced.
type Result struct {
	Alignment Alignment

	PlaintextPath  string
	CiphertextPath string
	CombinedPath   string
}

// Build aligns the key's plaintext characters with its ciphertext tokens and
// writes three corpora: space-joined plaintext, space-joined ciphertext, and
// a combined file holding the ciphertext line followed by the plaintext line.
//
// Files are written in that order with no rollback; a failure leaves the
// files already written in place.
func Build(key *cipherkey.Key, opts Options) (*Result, error) {
	if err := key.Require(cipherkey.FieldPlaintext, cipherkey.FieldCiphertext); err != nil {
		return nil, err
	}
	opts.defaults()
	logger := opts.Logger

	a := Align(key.PlaintextSymbols(), key.CiphertextTokens())
	if a.Truncated() {
		logger.Printf("[corpus] warning: plaintext (%d) and ciphertext (%d) lengths differ, truncating both to %d",
			a.PlaintextLen, a.CiphertextLen, a.Len())
	} else {
		logger.Printf("[corpus] plaintext and ciphertext lengths match (%d)", a.Len())
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, werrors.AttachSuggestions(
				werrors.IOWrap(err, werrors.ErrIODirCreateFailed, "failed to create output directory").
					WithContext("path", opts.Dir))
		}
	}

	res := &Result{
		Alignment:      a,
		PlaintextPath:  filepath.Join(opts.Dir, opts.PlaintextFile),
		CiphertextPath: filepath.Join(opts.Dir, opts.CiphertextFile),
		CombinedPath:   filepath.Join(opts.Dir, opts.CombinedFile),
	}

	plain := strings.Join(a.Plaintext, " ")
	cipher := strings.Join(a.Ciphertext, " ")

	files := []struct {
		path, content, what string
	}{
		{res.PlaintextPath, plain, "character-level corpus"},
		{res.CiphertextPath, cipher, "numeric-token corpus"},
		{res.CombinedPath, cipher + "\n" + plain + "\n", "ciphertext + plaintext for joint training"},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return nil, werrors.WriteFailed(f.path, err)
		}
		logger.Printf("[corpus] wrote %s (%s)", f.path, f.what)
	}

	return res, nil
}
