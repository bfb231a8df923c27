// Package progress reports frame rendering progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// Reporter receives progress events. Implementations must be safe for
// concurrent Increment calls.
type Reporter interface {
	Start(label string, total int)
	Increment()
	Finish()
}

type nop struct{}

// Nop discards all events.
func Nop() Reporter { return nop{} }

func (nop) Start(string, int) {}
func (nop) Increment()        {}
func (nop) Finish()           {}

// Bar draws a single updating line with a gradient bar.
type Bar struct {
	mu    sync.Mutex
	out   io.Writer
	model progress.Model

	label string
	total int
	done  int
	drawn int // last percentage written
}

func NewBar(out io.Writer) *Bar {
	return &Bar{
		out:   out,
		model: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (b *Bar) Start(label string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label, b.total, b.done, b.drawn = label, total, 0, -1
	b.draw()
}

func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	b.draw()
}

func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total > 0 {
		fmt.Fprintln(b.out)
	}
}

// Done returns the number of increments since Start.
func (b *Bar) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

func (b *Bar) draw() {
	if b.total <= 0 {
		return
	}
	pct := float64(b.done) / float64(b.total)
	whole := int(pct * 100)
	if whole == b.drawn && b.done != b.total {
		return
	}
	b.drawn = whole
	fmt.Fprintf(b.out, "\r%s %s %d/%d", b.label, b.model.ViewAs(pct), b.done, b.total)
}
