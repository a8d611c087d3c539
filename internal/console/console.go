// File: internal/console/console.go
// Brief: Colorized operator-facing progress and table output.

package console

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type Printer struct {
	out io.Writer

	step    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// New builds a printer; color engages only when out is a terminal.
func New(out io.Writer) *Printer {
	p := &Printer{
		out:     out,
		step:    color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
	}
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		for _, c := range []*color.Color{p.step, p.success, p.warn, p.fail} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Stepf(format string, args ...any) {
	p.step.Fprintf(p.out, "==> "+format+"\n", args...)
}

func (p *Printer) Successf(format string, args ...any) {
	p.success.Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.warn.Fprintf(p.out, "! "+format+"\n", args...)
}

func (p *Printer) Failf(format string, args ...any) {
	p.fail.Fprintf(p.out, "✗ "+format+"\n", args...)
}

func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// PrintOutputs renders per-stack outputs as an aligned table.
func (p *Printer) PrintOutputs(byStack map[string]map[string]string) {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "STACK\tOUTPUT\tVALUE")
	stacks := make([]string, 0, len(byStack))
	for name := range byStack {
		stacks = append(stacks, name)
	}
	sort.Strings(stacks)
	for _, stack := range stacks {
		outputs := byStack[stack]
		keys := make([]string, 0, len(outputs))
		for k := range outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", stack, k, outputs[k])
		}
	}
}
