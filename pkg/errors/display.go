package errors

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m" // Error code
	colorYellow = "\033[33m" // Context keys
	colorCyan   = "\033[36m" // Suggestions
	colorDim    = "\033[90m" // Cause
	colorBold   = "\033[1m"
)

// Formatter handles error display with optional color support.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// Indent is the prefix for context and suggestion lines.
	Indent string
}

// DefaultFormatter returns a Formatter writing to stderr, colored when
// stderr is a terminal.
func DefaultFormatter() *Formatter {
	return &Formatter{
		UseColor: term.IsTerminal(int(os.Stderr.Fd())),
		Writer:   os.Stderr,
		Indent:   "  ",
	}
}

// Format renders an error. GlyphErrors get code, context, cause and
// suggestions; anything else is shown as a single line.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	ge, ok := AsGlyphError(err)
	if !ok {
		return f.paint(colorRed, "Error: ") + err.Error()
	}

	var sb strings.Builder

	sb.WriteString(f.paint(colorRed+colorBold, "ERROR"))
	sb.WriteString(f.paint(colorRed, " ["+ge.Code+"]: "))
	sb.WriteString(ge.Message)
	sb.WriteString("\n")

	keys := make([]string, 0, len(ge.Context))
	for k := range ge.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(f.Indent)
		sb.WriteString(f.paint(colorYellow, k+": "))
		sb.WriteString(ge.Context[k])
		sb.WriteString("\n")
	}

	if ge.Cause != nil {
		sb.WriteString(f.Indent)
		sb.WriteString(f.paint(colorDim, "cause: "+ge.Cause.Error()))
		sb.WriteString("\n")
	}

	if ge.HasSuggestions() {
		if ge.HasContext() || ge.Cause != nil {
			sb.WriteString("\n")
		}
		for i, s := range ge.Suggestions {
			sb.WriteString(f.Indent)
			sb.WriteString(f.paint(colorCyan, "→ "+s))
			if i < len(ge.Suggestions)-1 {
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) paint(color, s string) string {
	if !f.UseColor {
		return s
	}
	return color + s + colorReset
}

// Display writes a formatted error to the formatter's writer.
func (f *Formatter) Display(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(f.Writer, f.Format(err))
}

// Display writes a formatted error to stderr with default settings.
func Display(err error) {
	DefaultFormatter().Display(err)
}

// Sprint returns a formatted error string without colors.
func Sprint(err error) string {
	f := &Formatter{Writer: io.Discard, Indent: "  "}
	return f.Format(err)
}
