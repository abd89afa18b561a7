package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const banner = `
     _         _      ___
  _ | |  ___  | |__  / _ \   _  _   ___   _  _   ___
 | || | / _ \ | '_ \| (_) | | || | / -_) | || | / -_)
  \__/  \___/ |_.__/ \__\_\  \_,_| \___|  \_,_| \___|
`

// Printer writes the user-facing status lines.
type Printer struct {
	out     io.Writer
	info    *color.Color
	fail    *color.Color
	ok      *color.Color
	title   *color.Color
	noColor bool
}

// NewPrinter returns a Printer writing to w. Colors follow fatih/color's
// terminal detection unless noColor is set.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		out:     w,
		info:    color.New(color.FgBlue),
		fail:    color.New(color.FgRed),
		ok:      color.New(color.FgGreen),
		title:   color.New(color.FgYellow),
		noColor: noColor,
	}
	if noColor {
		for _, c := range []*color.Color{p.info, p.fail, p.ok, p.title} {
			c.DisableColor()
		}
	}
	return p
}

// Info prints an informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.info.Sprint("[i]"), msg)
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.out, p.fail.Sprint("[e]"), msg)
}

// Success prints a completion line.
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.ok.Sprint("✔"), msg)
}

// Reject prints a rejected edit with its reason.
func (p *Printer) Reject(head string, err error) {
	if head == "" {
		head = "Rejected"
	}
	fmt.Fprintln(p.out, p.fail.Sprint(head+":"), err)
}

// Blank prints an empty separator line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.out)
}

// Banner prints the program title.
func (p *Printer) Banner() {
	fmt.Fprintln(p.out, p.title.Sprint(strings.TrimPrefix(banner, "\n")))
}

// Farewell prints the exit line.
func (p *Printer) Farewell() {
	fmt.Fprintln(p.out, "Live long and prosper...")
}

// ClearScreen clears the terminal. It is a no-op without colors, where the
// output is assumed not to be a terminal.
func (p *Printer) ClearScreen() {
	if p.noColor {
		return
	}
	fmt.Fprint(p.out, "\033[H\033[2J")
}
