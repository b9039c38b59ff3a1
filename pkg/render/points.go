// Package render draws projected symbol embeddings as labelled scatter
// plots, colouring points by their plaintext letter, by plaintext versus
// ciphertext origin, or by vowel versus consonant.
package render

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/r3d91ll/glyph/pkg/cipherkey"
	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kind says which side of the corpus a symbol comes from.
type Kind string

const (
	KindPlaintext  Kind = "plaintext"
	KindCiphertext Kind = "ciphertext"
)

// Point is one symbol placed in the plane, with everything needed to draw
// or export it.
type Point struct {
	Symbol string
	Letter string
	Label  string
	Kind   Kind
	X, Y   float64
}

// IsNumeric reports whether a symbol looks like a cipher token id.
func IsNumeric(symbol string) bool {
	if symbol == "" {
		return false
	}
	for _, r := range symbol {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LetterFor returns the letter a symbol stands for. Cipher ids go through
// the mapping; a single-character plaintext symbol is its own letter;
// anything else is unknown.
func LetterFor(symbol string, m *cipherkey.Mapping, unknown string) string {
	if IsNumeric(symbol) {
		return m.LetterOf(symbol, unknown)
	}
	if utf8.RuneCountInString(symbol) == 1 {
		return symbol
	}
	return unknown
}

// Label returns the text drawn next to a point: symbol:letter for cipher
// ids, the bare symbol otherwise.
func Label(symbol, letter string) string {
	if IsNumeric(symbol) {
		return symbol + ":" + letter
	}
	return symbol
}

// Points pairs each vocabulary entry with its row of coords.
func Points(vocab []string, coords mat.Matrix, m *cipherkey.Mapping, unknown string) ([]Point, error) {
	r, c := coords.Dims()
	if r != len(vocab) || c < 2 {
		return nil, werrors.Renderf(werrors.ErrPlotInputMismatch,
			"%d symbols but coordinates are %dx%d", len(vocab), r, c).
			WithContext("symbols", fmt.Sprint(len(vocab)))
	}

	pts := make([]Point, len(vocab))
	for i, sym := range vocab {
		letter := LetterFor(sym, m, unknown)
		kind := KindPlaintext
		if IsNumeric(sym) {
			kind = KindCiphertext
		}
		pts[i] = Point{
			Symbol: sym,
			Letter: letter,
			Label:  Label(sym, letter),
			Kind:   kind,
			X:      coords.At(i, 0),
			Y:      coords.At(i, 1),
		}
	}
	return pts, nil
}

// Mode selects how points are grouped into coloured categories.
type Mode string

const (
	ModeLetter      Mode = "letter"
	ModePlainCipher Mode = "plaincipher"
	ModeVowel       Mode = "vowel"
)

// Modes lists every mode in rendering order.
var Modes = []Mode{ModeLetter, ModePlainCipher, ModeVowel}

// Vowel categories.
const (
	CategoryVowel     = "vowel"
	CategoryConsonant = "consonant"
	CategoryOther     = "other"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", werrors.AttachSuggestions(
		werrors.Renderf(werrors.ErrPlotInvalidMode, "unknown plot mode %q", s).
			WithContext("mode", s))
}

// Category returns the colour group of p under mode.
func Category(p Point, mode Mode) string {
	switch mode {
	case ModePlainCipher:
		return string(p.Kind)
	case ModeVowel:
		return vowelCategory(p.Letter)
	default:
		return p.Letter
	}
}

func vowelCategory(letter string) string {
	if utf8.RuneCountInString(letter) != 1 {
		return CategoryOther
	}
	r, _ := utf8.DecodeRuneInString(letter)
	if !unicode.IsLetter(r) {
		return CategoryOther
	}
	if strings.ContainsRune("aeiou", unicode.ToLower(r)) {
		return CategoryVowel
	}
	return CategoryConsonant
}
