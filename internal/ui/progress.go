package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	defaultBarWidth = 40
	redrawInterval  = 100 * time.Millisecond
)

// ProgressBar draws a single-line download bar. It satisfies the cache
// progress interface. Without a known total it shows a byte counter instead.
type ProgressBar struct {
	mu sync.Mutex

	w     io.Writer
	bar   progress.Model
	now   func() time.Time
	name  string
	total int64
	done  int64
	last  time.Time
}

// NewProgressBar returns a bar drawing to w.
func NewProgressBar(w io.Writer) *ProgressBar {
	width := defaultBarWidth
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			// Leave room for the name and byte counts.
			width = min(defaultBarWidth, max(10, cols-50))
		}
	}
	return &ProgressBar{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
		now: time.Now,
	}
}

func (b *ProgressBar) Start(name string, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	b.total = total
	b.done = 0
	b.last = time.Time{}
	b.draw()
}

func (b *ProgressBar) Add(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done += n
	if now := b.now(); now.Sub(b.last) >= redrawInterval {
		b.last = now
		b.draw()
	}
}

func (b *ProgressBar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total > 0 {
		b.done = b.total
	}
	b.draw()
	fmt.Fprintln(b.w)
}

func (b *ProgressBar) draw() {
	fmt.Fprint(b.w, "\r\033[K"+b.render())
}

// render returns the current line without control sequences.
func (b *ProgressBar) render() string {
	if b.total <= 0 {
		return fmt.Sprintf("%s %s", b.name, humanize.Bytes(uint64(b.done)))
	}
	pct := float64(b.done) / float64(b.total)
	if pct > 1 {
		pct = 1
	}
	return fmt.Sprintf("%s %s %s / %s", b.name, b.bar.ViewAs(pct),
		humanize.Bytes(uint64(b.done)), humanize.Bytes(uint64(b.total)))
}
