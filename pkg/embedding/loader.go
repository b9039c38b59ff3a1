// Package embedding loads pretrained symbol vectors from the plain-text
// format written by GloVe-style trainers: one symbol followed by its vector
// components per line, whitespace-delimited.
package embedding

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultUnknownMarker is the reserved symbol trainers emit for
// out-of-vocabulary tokens.
const DefaultUnknownMarker = "<unk>"

// maxLineBytes bounds a single vector line.
const maxLineBytes = 16 << 20

// LoadOptions controls which lines enter the table.
type LoadOptions struct {
	// SkipUnknown drops lines whose symbol equals UnknownMarker.
	SkipUnknown bool

	// UnknownMarker defaults to DefaultUnknownMarker when empty.
	UnknownMarker string
}

// Table pairs an ordered vocabulary with its embedding matrix.
// Row i of Vectors is the vector of Vocab[i].
type Table struct {
	Vocab   []string
	Vectors *mat.Dense
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Vocab)
}

// Dim returns the vector dimensionality.
func (t *Table) Dim() int {
	_, c := t.Vectors.Dims()
	return c
}

// Vector returns a copy of row i.
func (t *Table) Vector(i int) []float64 {
	return mat.Row(nil, i, t.Vectors)
}

// Load parses vectors from r.
//
// Lines with two or fewer fields are skipped as headers or noise. Symbols
// are kept in file order, duplicates included. Every kept line must have the
// same number of components.
func Load(r io.Reader, opts LoadOptions) (*Table, error) {
	marker := opts.UnknownMarker
	if marker == "" {
		marker = DefaultUnknownMarker
	}

	var (
		vocab []string
		data  []float64
		dim   int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) <= 2 {
			continue
		}
		symbol := fields[0]
		if opts.SkipUnknown && symbol == marker {
			continue
		}

		values := fields[1:]
		if dim == 0 {
			dim = len(values)
		} else if len(values) != dim {
			return nil, werrors.AttachSuggestions(
				werrors.Inputf(werrors.ErrVectorsDimensionMismatch,
					"vector for %q has %d components, expected %d", symbol, len(values), dim).
					WithContext("line", strconv.Itoa(lineNo)).
					WithContext("symbol", symbol))
		}

		for _, v := range values {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, werrors.AttachSuggestions(
					werrors.Inputf(werrors.ErrVectorsParseFailed, "vector for %q has a non-numeric component", symbol).
						WithCause(err).
						WithContext("line", strconv.Itoa(lineNo)).
						WithContext("symbol", symbol))
			}
			data = append(data, f)
		}
		vocab = append(vocab, symbol)
	}
	if err := sc.Err(); err != nil {
		return nil, werrors.IOWrap(err, werrors.ErrIOReadFailed, "failed to read vectors").
			WithContext("line", strconv.Itoa(lineNo+1))
	}

	if len(vocab) == 0 {
		return nil, werrors.AttachSuggestions(
			werrors.Input(werrors.ErrVectorsEmpty, "no vectors found"))
	}

	return &Table{
		Vocab:   vocab,
		Vectors: mat.NewDense(len(vocab), dim, data),
	}, nil
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, werrors.AttachSuggestions(werrors.FileNotFound(path, err))
		}
		return nil, werrors.ReadFailed(path, err)
	}
	defer f.Close()

	t, err := Load(f, opts)
	if err != nil {
		if ge, ok := werrors.AsGlyphError(err); ok {
			ge.WithContext("path", path)
		}
		return nil, err
	}
	return t, nil
}
