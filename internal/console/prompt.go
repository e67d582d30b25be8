package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Prompter prints operator-facing messages.
type Prompter struct {
	out io.Writer

	title *color.Color
	label *color.Color
	key   *color.Color
	warn  *color.Color
	fail  *color.Color
}

// NewPrompter writes to out. Colour follows fatih/color's terminal detection.
func NewPrompter(out io.Writer) *Prompter {
	return &Prompter{
		out:   out,
		title: color.New(color.FgCyan, color.Bold),
		label: color.New(color.Faint),
		key:   color.New(color.FgYellow, color.Bold),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed, color.Bold),
	}
}

// Banner prints the start-up header.
func (p *Prompter) Banner(version string) {
	p.title.Fprintln(p.out, "camnode "+version)
}

// Setting prints one "name: value" line of the session summary.
func (p *Prompter) Setting(name string, value any) {
	fmt.Fprintf(p.out, "%s %v\n", p.label.Sprint(name+":"), value)
}

// Instructions explains how to drive the session for mode.
func (p *Prompter) Instructions(keyboardTrigger bool) {
	if keyboardTrigger {
		fmt.Fprintf(p.out, "Press %s to trigger a frame capture. Press %s to quit.\n",
			p.key.Sprint("<F>"), p.key.Sprint("<enter>"))
		return
	}
	fmt.Fprintf(p.out, "Press %s to stop acquisition.\n", p.key.Sprint("<enter>"))
}

// Warn prints a non-fatal warning.
func (p *Prompter) Warn(format string, args ...any) {
	p.warn.Fprintf(p.out, "warning: "+format+"\n", args...)
}

// Error prints a fatal error.
func (p *Prompter) Error(err error) {
	p.fail.Fprintf(p.out, "error: %v\n", err)
}

// ShuttingDown announces the end of the session.
func (p *Prompter) ShuttingDown(reason string) {
	fmt.Fprintf(p.out, "Shutting down (%s)...\n", reason)
}
