package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ProgressBar represents a simple progress bar for determinate operations.
// It satisfies the catalog's progress reporter: Start sets the total once it
// is known and Advance ticks one step labelled with the item just finished.
type ProgressBar struct {
	mu      sync.Mutex
	writer  io.Writer
	total   int
	current int
	width   int
	message string
	noColor bool
	done    bool
}

// ProgressBarOptions configures progress bar behavior
type ProgressBarOptions struct {
	Total   int
	Width   int // Default: 40
	Message string
	NoColor bool
}

// NewProgressBar creates a new progress bar
func NewProgressBar(w io.Writer, opts ProgressBarOptions) *ProgressBar {
	width := opts.Width
	if width == 0 {
		width = 40
	}

	return &ProgressBar{
		writer:  w,
		total:   opts.Total,
		current: 0,
		width:   width,
		message: opts.Message,
		noColor: opts.NoColor,
	}
}

// Start resets the bar to zero out of total.
func (p *ProgressBar) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.current = 0
	p.done = false
	p.render()
}

// Advance moves the bar one step and shows label next to it.
func (p *ProgressBar) Advance(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.message = label
	p.add(1)
}

// Add increments the progress by the given amount
func (p *ProgressBar) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.add(n)
}

func (p *ProgressBar) add(n int) {
	p.current += n
	if p.current > p.total {
		p.current = p.total
	}
	p.render()
}

// Set sets the current progress to the given value
func (p *ProgressBar) Set(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = n
	if p.current > p.total {
		p.current = p.total
	}
	p.render()
}

// Finish completes the progress bar. Further calls do nothing until the
// next Start.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.current = p.total
	p.message = ""
	p.render()
	fmt.Fprintln(p.writer)
}

// FinishWithMessage completes the progress bar with a success message
func (p *ProgressBar) FinishWithMessage(message string) {
	p.Finish()
	WriteSuccess(p.writer, message, p.noColor)
}

func (p *ProgressBar) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total)
	filledWidth := int(float64(p.width) * percent)

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if p.noColor {
		cyan.DisableColor()
		gray.DisableColor()
	}

	var bar strings.Builder
	bar.WriteString("[")
	cyan.Fprint(&bar, strings.Repeat("█", filledWidth))
	gray.Fprint(&bar, strings.Repeat("░", p.width-filledWidth))
	bar.WriteString("]")

	percentStr := fmt.Sprintf("%3d%%", int(percent*100))

	message := ""
	if p.message != "" {
		message = " " + p.message
	}

	// \033[K drops the tail of a longer previous label
	fmt.Fprintf(p.writer, "\r%s %s%s\033[K", bar.String(), percentStr, message)
}

// WithProgress runs a function with a progress bar. The success message is
// only printed when fn returns nil.
func WithProgress(w io.Writer, message string, total int, noColor bool, fn func(*ProgressBar) error) error {
	bar := NewProgressBar(w, ProgressBarOptions{
		Total:   total,
		NoColor: noColor,
	})

	err := fn(bar)
	if err != nil {
		fmt.Fprintln(w)
		return err
	}

	bar.FinishWithMessage(message)
	return nil
}
