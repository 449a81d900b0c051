// Printer renders accumulated compiler errors/warnings to a stream,
// colouring them when the stream is a terminal (spec §7: "the driver
// prints errors (with colour when the terminal allows it)").
//
// Grounded on the teacher's colour-gating pattern in
// internal/evaluator/builtins_term.go (mattn/go-isatty deciding
// whether to emit ANSI at all) composed with fatih/color (carried in
// from sunholo-data-ailang's cmd/ailang driver) for the actual
// styling, rather than hand-rolled ANSI escape sequences.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Severity distinguishes an error from a non-fatal warning (spec §4.1:
// "OverlappingPatterns warning" vs every other taxonomy entry, which
// is an error).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Printer writes diagnostics to Out, colouring by Severity only when
// Out is attached to a terminal.
type Printer struct {
	Out      io.Writer
	colorize bool

	errColor  *color.Color
	warnColor *color.Color
	locColor  *color.Color
}

// NewPrinter builds a Printer for out, auto-detecting terminal colour
// support via isatty when out is an *os.File (stderr in the normal
// driver case).
func NewPrinter(out io.Writer) *Printer {
	colorize := false
	if f, ok := out.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{
		Out:       out,
		colorize:  colorize,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow, color.Bold),
		locColor:  color.New(color.FgCyan),
	}
}

// SetColorOverride forces colourization on or off, overriding the
// isatty auto-detection done in NewPrinter — used when a user config
// file pins `color: always` or `color: never` rather than leaving it
// at the default `auto`.
func (p *Printer) SetColorOverride(enabled bool) { p.colorize = enabled }

// Print renders one diagnostic line: "<file>:<line>:<col>: error: <msg>"
// or "... warning: <msg>", colouring the severity tag and location
// when the printer is attached to a terminal.
func (p *Printer) Print(sev Severity, file string, line, col int, msg string) {
	label, c := "error", p.errColor
	if sev == SeverityWarning {
		label, c = "warning", p.warnColor
	}

	loc := fmt.Sprintf("%s:%d:%d", file, line, col)
	if !p.colorize {
		fmt.Fprintf(p.Out, "%s: %s: %s\n", loc, label, msg)
		return
	}
	p.locColor.Fprint(p.Out, loc)
	fmt.Fprint(p.Out, ": ")
	c.Fprint(p.Out, label)
	fmt.Fprintf(p.Out, ": %s\n", msg)
}

// PrintErr renders a plain Go error with no location information
// (used for I/O and internal errors that don't carry a source
// position).
func (p *Printer) PrintErr(err error) {
	if !p.colorize {
		fmt.Fprintf(p.Out, "error: %s\n", err)
		return
	}
	p.errColor.Fprint(p.Out, "error")
	fmt.Fprintf(p.Out, ": %s\n", err)
}
