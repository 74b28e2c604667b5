// Package ui prints the command line tool's own messages: results,
// prompts and errors shown to the user, as opposed to log lines.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color wrappers
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Printer writes user-facing messages. Colors are used only when out is a
// terminal and NO_COLOR is unset.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer on out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: isTerminal(out) && os.Getenv("NO_COLOR") == ""}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetColor forces colors on or off
func (p *Printer) SetColor(enabled bool) {
	p.color = enabled
}

func (p *Printer) paint(fn func(string) string, s string) string {
	if !p.color {
		return s
	}
	return fn(s)
}

// Error prints msg in red, followed by the first detail if any
func (p *Printer) Error(msg string, detail ...interface{}) {
	fmt.Fprintln(p.out, p.paint(Red, withDetail(msg, detail)))
}

// Warning prints msg in yellow, followed by the first detail if any
func (p *Printer) Warning(msg string, detail ...interface{}) {
	fmt.Fprintln(p.out, p.paint(Yellow, withDetail(msg, detail)))
}

// Success prints msg in green
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.paint(Green, msg))
}

// Info prints a label and its value
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.paint(Cyan, label), p.paint(Yellow, value))
}

// Highlight prints msg in magenta
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.out, p.paint(Magenta, msg))
}

// Printf writes plain text
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// Print writes plain text without a newline
func (p *Printer) Print(args ...interface{}) {
	fmt.Fprint(p.out, args...)
}

// Println writes plain text followed by a newline
func (p *Printer) Println(args ...interface{}) {
	fmt.Fprintln(p.out, args...)
}

// Table prints label/value rows with the labels padded to one width
func (p *Printer) Table(rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		label := row[0] + ":" + strings.Repeat(" ", width-len(row[0]))
		fmt.Fprintf(p.out, "  %s %s\n", p.paint(Dim, label), row[1])
	}
}

func withDetail(msg string, detail []interface{}) string {
	if len(detail) == 0 {
		return msg
	}
	if s, ok := detail[0].(string); ok && s == "" {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, detail[0])
}
