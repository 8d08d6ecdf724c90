package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
)

// HessianCommand prints second-derivative matrices.
type HessianCommand struct {
	Meta
}

func (c *HessianCommand) Run(args []string) int {
	var (
		checked bool
		row     string
	)
	f := c.flagSet("hessian")
	f.BoolVar(&checked, "safe", false, "check operator domains and finiteness")
	f.StringVar(&row, "row", "", "print only the row of this variable")
	if err := f.Parse(args); err != nil {
		return c.usage(err)
	}
	if f.NArg() < 1 {
		return c.usage(errors.New("hessian needs a relation file"))
	}
	c.setup()

	_, rels, err := c.load(f.Arg(0), f.Args()[1:])
	if err != nil {
		return c.fail(err)
	}
	eng := c.engine()

	status := 0
	for _, rel := range rels {
		if !rel.IsToken() {
			continue
		}
		names := variableNames(rel)
		c.Ui.Output(fmt.Sprintf("%s: %s", rel.Name(), rel))

		var h [][]float64
		switch {
		case row != "":
			i := slices.Index(names, row)
			if i < 0 {
				c.Ui.Output(fmt.Sprintf("  %s does not appear in %s", row, rel.Name()))
				continue
			}
			var r []float64
			r, err = eng.SecondDerivativeRowAt(rel, rel.Values(nil), i, checked)
			h = make([][]float64, len(names))
			h[i] = r
		case checked:
			h, err = eng.HessianSafe(rel)
		default:
			h, err = eng.Hessian(rel)
		}
		if err != nil {
			c.Ui.Output("  error: " + err.Error())
			status = 1
			continue
		}
		c.Ui.Output(renderMatrix(names, h))
	}
	return status
}

// renderMatrix lays out h with variable names as headers; nil rows are
// omitted.
func renderMatrix(names []string, h [][]float64) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	for _, n := range names {
		fmt.Fprintf(w, "%s\t", n)
	}
	fmt.Fprintln(w)
	for i, row := range h {
		if row == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t", names[i])
		for _, v := range row {
			fmt.Fprintf(w, "%.10g\t", v)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func (c *HessianCommand) Help() string {
	return strings.TrimSpace(`
Usage: relad hessian [options] FILE [RELATION...]

  Prints the matrix of second partial derivatives of each relation residual
  with respect to its variables.

Options:

  -safe               Check operator domains; report the first violation.
  -row=NAME           Print only the row of variable NAME.
  -set name=value     Override a variable value. Repeatable.
  -log-level=warn     trace, debug, info, warn or error.
`)
}

func (c *HessianCommand) Synopsis() string {
	return "Print second-derivative matrices"
}
