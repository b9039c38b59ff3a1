package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ANSI escape sequences for terminal control.
const (
	carriageReturn = "\r"
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	colorGreen     = "\033[32m"
	colorRed       = "\033[31m"
	colorReset     = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// Braille is the default animation.
var Braille = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Config holds spinner options.
type Config struct {
	Message string

	// Frames cycles on each tick. Defaults to Braille.
	Frames []string

	// RefreshRate defaults to 80ms.
	RefreshRate time.Duration

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// Spinner animates while a step of unknown length runs, such as loading
// a large vector file. Off a terminal it prints the message once.
type Spinner struct {
	mu sync.Mutex

	config    Config
	active    bool
	isTTY     bool
	frame     int
	startTime time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}

	lastOutput int
}

// New creates a spinner on stderr.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message})
}

// NewWithConfig creates a spinner from config, filling defaults.
func NewWithConfig(config Config) *Spinner {
	if len(config.Frames) == 0 {
		config.Frames = Braille
	}
	if config.RefreshRate <= 0 {
		config.RefreshRate = 80 * time.Millisecond
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}

	isTTY := isTerminalWriter(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}
	return &Spinner{config: config, isTTY: isTTY}
}

// isTerminalWriter reports whether w is a terminal file.
func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// formatElapsed shows "(1.2s)" under a minute and "(1m 30s)" above.
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}

// IsActive reports whether the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start begins the animation. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true
	s.startTime = time.Now()
	s.frame = 0

	if !s.isTTY {
		fmt.Fprintf(s.config.Writer, "%s...\n", s.config.Message)
		return
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	fmt.Fprint(s.config.Writer, hideCursor)
	go s.spin()
}

func (s *Spinner) spin() {
	ticker := time.NewTicker(s.config.RefreshRate)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-s.stopCh:
			close(s.doneCh)
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	char := s.config.Frames[s.frame%len(s.config.Frames)]
	s.frame++

	out := fmt.Sprintf("%s %s %s", char, s.config.Message, formatElapsed(time.Since(s.startTime)))
	if s.lastOutput > 0 {
		fmt.Fprint(s.config.Writer, carriageReturn+strings.Repeat(" ", s.lastOutput)+carriageReturn)
	}
	fmt.Fprint(s.config.Writer, out)
	s.lastOutput = len(out)
}

// stop halts the animation goroutine and clears its line.
func (s *Spinner) stop() (elapsed time.Duration, wasActive bool) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0, false
	}
	s.active = false
	elapsed = time.Since(s.startTime)
	if !s.isTTY {
		s.mu.Unlock()
		return elapsed, true
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.mu.Lock()
	if s.lastOutput > 0 {
		fmt.Fprint(s.config.Writer, carriageReturn+strings.Repeat(" ", s.lastOutput)+carriageReturn)
		s.lastOutput = 0
	}
	fmt.Fprint(s.config.Writer, showCursor)
	s.mu.Unlock()
	return elapsed, true
}

// Stop halts the spinner without a status line.
func (s *Spinner) Stop() {
	s.stop()
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(message string) {
	s.complete(message, symbolSuccess, colorGreen)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(message string) {
	s.complete(message, symbolFailure, colorRed)
}

func (s *Spinner) complete(message, symbol, color string) {
	elapsed, ok := s.stop()
	if !ok {
		return
	}
	if message == "" {
		message = s.config.Message
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isTTY {
		fmt.Fprintf(s.config.Writer, "%s%s%s %s %s\n", color, symbol, colorReset, message, formatElapsed(elapsed))
		return
	}
	fmt.Fprintf(s.config.Writer, "%s %s %s\n", symbol, message, formatElapsed(elapsed))
}
