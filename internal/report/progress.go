package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/vytor/blundercheck/internal/logger"
)

// ProgressIndicator shows "[N/Total] move" while a game is analyzed. On a
// terminal it redraws a single line; otherwise it prints one line per step.
type ProgressIndicator struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	total       int
	current     int
	step        *color.Color
	done        *color.Color
}

// NewProgressIndicator writes progress to w.
func NewProgressIndicator(w io.Writer) *ProgressIndicator {
	interactive := logger.IsTerminal(w)
	step := color.New(color.FgCyan)
	done := color.New(color.FgGreen)
	if !interactive {
		step.DisableColor()
		done.DisableColor()
	}
	return &ProgressIndicator{
		w:           w,
		interactive: interactive,
		step:        step,
		done:        done,
	}
}

// Start resets the counter for a game of total plies.
func (p *ProgressIndicator) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.current = 0
}

// Step advances by one analyzed ply.
func (p *ProgressIndicator) Step(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	line := p.step.Sprintf("  [%d/%d] %s", p.current, p.total, label)
	if p.interactive {
		fmt.Fprintf(p.w, "\r\x1b[K%s", line)
		return
	}
	fmt.Fprintln(p.w, line)
}

// Finish prints the completion line.
func (p *ProgressIndicator) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interactive {
		fmt.Fprint(p.w, "\r\x1b[K")
	}
	fmt.Fprintf(p.w, "%s Analyzed %d/%d plies\n", p.done.Sprint("✓"), p.current, p.total)
}
