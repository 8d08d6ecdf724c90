package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/relad/internal/expr"
)

// ExportCommand renders relations as infix text.
type ExportCommand struct {
	Meta
}

func (c *ExportCommand) Run(args []string) int {
	var (
		style       string
		derivatives bool
		values      bool
	)
	f := c.flagSet("export")
	f.StringVar(&style, "style", "plain", "plain or yacas")
	f.BoolVar(&derivatives, "derivatives", false, "emit YACAS derivative requests")
	f.BoolVar(&values, "values", false, "emit variable values")
	if err := f.Parse(args); err != nil {
		return c.usage(err)
	}
	if f.NArg() < 1 {
		return c.usage(errors.New("export needs a relation file"))
	}

	var st expr.Style
	switch style {
	case "plain":
		st = expr.StylePlain
	case "yacas":
		st = expr.StyleYacas
	default:
		return c.usage(fmt.Errorf("unknown style %q", style))
	}
	c.setup()

	_, rels, err := c.load(f.Arg(0), f.Args()[1:])
	if err != nil {
		return c.fail(err)
	}

	for _, rel := range rels {
		c.Ui.Output("@ Relation: " + rel.Name())
		if !rel.IsToken() {
			c.Ui.Output(rel.Infix(st, nil))
			continue
		}

		namer := rel.VariableNamer()
		if st == expr.StyleYacas {
			namer = expr.XName
		}
		if values {
			for i, name := range variableNames(rel) {
				v := rel.Variable(i + 1).Value()
				if st == expr.StyleYacas {
					name = expr.XName(i + 1)
				}
				c.Ui.Output(fmt.Sprintf("%s==%s", name, formatFloat(v)))
			}
		}
		c.Ui.Output(rel.Infix(st, namer))

		if derivatives {
			first, second := rel.YacasDerivatives()
			for _, line := range first {
				c.Ui.Output(line)
			}
			for _, line := range second {
				c.Ui.Output(line)
			}
		}
	}
	return 0
}

func (c *ExportCommand) Help() string {
	return strings.TrimSpace(`
Usage: relad export [options] FILE [RELATION...]

  Prints every relation as infix text. The yacas style names variables
  x1, x2, ... in the order each relation references them.

Options:

  -style=plain        plain or yacas.
  -derivatives        Also print YACAS requests for all first and second
                      partial derivatives.
  -values             Print the variable values before each relation.
  -set name=value     Override a variable value. Repeatable.
  -log-level=warn     trace, debug, info, warn or error.
`)
}

func (c *ExportCommand) Synopsis() string {
	return "Export relations as plain or YACAS infix"
}
