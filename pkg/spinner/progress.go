// Package spinner provides terminal feedback for long-running steps: an
// animated spinner for work of unknown length and a progress bar for
// iterative work such as projection. Off a terminal both degrade to plain
// status lines.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Unicode box-drawing characters for the bar.
const (
	barFilled = "█"
	barEmpty  = "░"
)

// ProgressConfig holds configuration options for a progress bar.
type ProgressConfig struct {
	// Total is the number of steps. Values <= 0 become 100.
	Total int

	// Message is the text displayed before the bar.
	Message string

	// Width of the bar in characters. Defaults to 20.
	Width int

	ShowPercentage bool
	ShowCount      bool
	ShowElapsed    bool

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// DefaultProgressConfig returns a bar showing percentage, count and
// elapsed time on stderr.
func DefaultProgressConfig() ProgressConfig {
	return ProgressConfig{
		Total:          100,
		Message:        "Processing...",
		Width:          20,
		ShowPercentage: true,
		ShowCount:      true,
		ShowElapsed:    true,
		Writer:         os.Stderr,
	}
}

// ProgressBar tracks a count toward a known total.
type ProgressBar struct {
	mu sync.Mutex

	config    ProgressConfig
	current   int
	detail    string
	startTime time.Time
	active    bool
	isTTY     bool

	// lastOutput is the length of the last inline render, for clearing.
	lastOutput int

	// lastDecile is the last tenth reported in non-TTY mode.
	lastDecile int
}

// NewProgress creates a bar with the given total and message.
func NewProgress(total int, message string) *ProgressBar {
	cfg := DefaultProgressConfig()
	cfg.Total = total
	cfg.Message = message
	return NewProgressWithConfig(cfg)
}

// NewProgressWithConfig creates a bar from config, filling defaults.
func NewProgressWithConfig(config ProgressConfig) *ProgressBar {
	if config.Total <= 0 {
		config.Total = 100
	}
	if config.Width <= 0 {
		config.Width = 20
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}

	isTTY := isTerminalWriter(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}

	return &ProgressBar{
		config:     config,
		isTTY:      isTTY,
		lastDecile: -1,
	}
}

// Current returns the current count.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Total returns the configured total.
func (p *ProgressBar) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Total
}

// IsActive reports whether the bar has been started and not finished.
func (p *ProgressBar) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// IsTTY reports whether the bar renders inline.
func (p *ProgressBar) IsTTY() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isTTY
}

// Percentage returns progress in [0, 100].
func (p *ProgressBar) Percentage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.current) / float64(p.config.Total) * 100
}

// Start shows the bar at zero. Starting an active bar is a no-op.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return
	}
	p.active = true
	p.startTime = time.Now()
	p.current = 0
	p.lastDecile = -1

	if p.isTTY {
		fmt.Fprint(p.config.Writer, hideCursor)
	}
	p.show()
}

// Set moves the bar to n, clamped to [0, Total]. Ignored when inactive.
func (p *ProgressBar) Set(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}
	p.current = max(0, min(n, p.config.Total))
	p.show()
}

// Increment advances the bar by one.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	n := p.current + 1
	p.mu.Unlock()
	p.Set(n)
}

// SetDetail sets a short status shown after the counters, such as the
// current loss.
func (p *ProgressBar) SetDetail(detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = detail
}

// Observe returns a callback that moves the bar to iter and shows kl as
// the detail. It matches the projection progress hook.
func (p *ProgressBar) Observe() func(iter int, kl float64) {
	return func(iter int, kl float64) {
		p.SetDetail(fmt.Sprintf("KL %.4f", kl))
		p.Set(iter)
	}
}

// Done finishes the bar with a success line.
func (p *ProgressBar) Done(message string) {
	p.finish(message, symbolSuccess, colorGreen)
}

// Fail finishes the bar with a failure line.
func (p *ProgressBar) Fail(message string) {
	p.finish(message, symbolFailure, colorRed)
}

func (p *ProgressBar) finish(message, symbol, color string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}
	p.active = false

	elapsed := formatElapsed(time.Since(p.startTime))
	if p.isTTY {
		p.clearLine()
		fmt.Fprint(p.config.Writer, showCursor)
		fmt.Fprintf(p.config.Writer, "%s%s%s %s %s\n", color, symbol, colorReset, message, elapsed)
		return
	}
	fmt.Fprintf(p.config.Writer, "%s %s %s\n", symbol, message, elapsed)
}

// show renders the current state. Caller must hold the mutex.
func (p *ProgressBar) show() {
	if p.isTTY {
		p.clearAndWrite(p.buildOutput())
		return
	}
	// one line per tenth, plus completion
	decile := p.current * 10 / p.config.Total
	if decile != p.lastDecile {
		p.lastDecile = decile
		fmt.Fprintln(p.config.Writer, p.buildOutput())
	}
}

// buildOutput formats: Message [████░░░░] 40% (8/20) (2.4s) KL 1.2345
// Caller must hold the mutex.
func (p *ProgressBar) buildOutput() string {
	var parts []string
	if p.config.Message != "" {
		parts = append(parts, p.config.Message)
	}
	parts = append(parts, p.buildBar())

	if p.config.ShowPercentage {
		parts = append(parts, fmt.Sprintf("%.0f%%", float64(p.current)/float64(p.config.Total)*100))
	}
	if p.config.ShowCount {
		parts = append(parts, fmt.Sprintf("(%d/%d)", p.current, p.config.Total))
	}
	if p.config.ShowElapsed && !p.startTime.IsZero() {
		parts = append(parts, formatElapsed(time.Since(p.startTime)))
	}
	if p.detail != "" {
		parts = append(parts, p.detail)
	}
	return strings.Join(parts, " ")
}

// buildBar returns "[████░░░░]". Caller must hold the mutex.
func (p *ProgressBar) buildBar() string {
	width := p.config.Width
	filled := p.current * width / p.config.Total
	filled = max(0, min(filled, width))

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(strings.Repeat(barFilled, filled))
	bar.WriteString(strings.Repeat(barEmpty, width-filled))
	bar.WriteString("]")
	return bar.String()
}

// clearAndWrite overwrites the current line. Caller must hold the mutex.
func (p *ProgressBar) clearAndWrite(output string) {
	p.clearLine()
	fmt.Fprint(p.config.Writer, output)
	p.lastOutput = len(output)
}

// clearLine blanks the last inline render. Caller must hold the mutex.
func (p *ProgressBar) clearLine() {
	if p.lastOutput > 0 {
		fmt.Fprint(p.config.Writer, carriageReturn+strings.Repeat(" ", p.lastOutput)+carriageReturn)
		p.lastOutput = 0
	}
}
