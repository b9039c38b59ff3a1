package embedding

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	wembedding "github.com/ynqa/wego/pkg/embedding"
	"github.com/ynqa/wego/pkg/search"
)

// Neighbor is one result of a nearest-symbol query.
type Neighbor struct {
	Symbol     string
	Rank       int
	Similarity float64
}

// Index answers cosine nearest-neighbour queries over a Table.
type Index struct {
	searcher *search.Searcher
}

// NewIndex builds an index over every row of t.
func NewIndex(t *Table) (*Index, error) {
	embs, err := t.wegoEmbeddings()
	if err != nil {
		return nil, werrors.Wrap(err, werrors.ErrVectorsParseFailed, werrors.CategoryInput, "failed to index vectors")
	}
	s, err := search.New(embs...)
	if err != nil {
		return nil, werrors.Wrap(err, werrors.ErrVectorsParseFailed, werrors.CategoryInput, "failed to index vectors")
	}
	return &Index{searcher: s}, nil
}

// wegoEmbeddings re-serialises the table in the word-vector text format so
// the norms are computed by the same code that searches them.
func (t *Table) wegoEmbeddings() (wembedding.Embeddings, error) {
	var buf bytes.Buffer
	for i, sym := range t.Vocab {
		buf.WriteString(sym)
		for _, v := range t.Vector(i) {
			buf.WriteByte(' ')
			buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		buf.WriteByte('\n')
	}
	return wembedding.Load(&buf)
}

// Nearest returns the k symbols most similar to symbol, excluding itself.
func (ix *Index) Nearest(symbol string, k int) ([]Neighbor, error) {
	found, err := ix.searcher.SearchInternal(symbol, k)
	if err != nil {
		return nil, werrors.AttachSuggestions(
			werrors.Inputf(werrors.ErrVectorsSymbolNotFound, "no vector for %q", symbol).
				WithCause(err).
				WithContext("symbol", symbol))
	}
	out := make([]Neighbor, len(found))
	for i, n := range found {
		out[i] = Neighbor{Symbol: n.Word, Rank: i + 1, Similarity: n.Similarity}
	}
	return out, nil
}

// WriteReport writes a table of the k nearest neighbours of each symbol.
// letterOf annotates every symbol with its plaintext letter.
func WriteReport(w io.Writer, ix *Index, symbols []string, k int, letterOf func(string) string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tLETTER\tRANK\tNEIGHBOR\tLETTER\tSIMILARITY")
	for _, sym := range symbols {
		nn, err := ix.Nearest(sym, k)
		if err != nil {
			return err
		}
		for _, n := range nn {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%.4f\n",
				sym, letterOf(sym), n.Rank, n.Symbol, letterOf(n.Symbol), n.Similarity)
		}
	}
	return tw.Flush()
}
