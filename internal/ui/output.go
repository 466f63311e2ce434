// Package ui renders leaf's console output: tagged status lines and a
// download progress bar. Styling is decided per writer, so redirected output
// stays plain.
package ui

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Printer writes tagged status lines.
type Printer struct {
	out, err io.Writer

	success lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	step    lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter returns a Printer writing normal output to out and errors and
// warnings to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	ro := lipgloss.NewRenderer(out)
	re := lipgloss.NewRenderer(errOut)
	return &Printer{
		out:     out,
		err:     errOut,
		success: ro.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		info:    ro.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		step:    ro.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		muted:   ro.NewStyle().Faint(true),
		failure: re.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warning: re.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.success.Render("[SUCCESS]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.out, p.info.Render("[INFO]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Step(format string, args ...any) {
	fmt.Fprintln(p.out, p.step.Render("[STEP]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.err, p.warning.Render("[WARNING]"), fmt.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.err, p.failure.Render("[ERROR]"), fmt.Sprintf(format, args...))
}

// Line writes an untagged line to the normal output.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Muted renders s dimmed, for secondary details such as tags.
func (p *Printer) Muted(s string) string {
	return p.muted.Render(s)
}

// Out returns the normal output writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// IsInteractive reports whether w is a terminal that can redraw a line.
func IsInteractive(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return false
	}
	if runtime.GOOS != "windows" {
		t := os.Getenv("TERM")
		if t == "" || strings.EqualFold(t, "dumb") {
			return false
		}
	}
	return true
}
