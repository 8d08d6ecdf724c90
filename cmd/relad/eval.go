package main

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/relad/internal/autodiff"
)

// EvalCommand evaluates residuals and gradients.
type EvalCommand struct {
	Meta
}

type evalOutput struct {
	Relation  string             `yaml:"relation"`
	Infix     string             `yaml:"infix"`
	Residual  float64            `yaml:"residual"`
	Gradient  map[string]float64 `yaml:"gradient,omitempty"`
	Satisfied bool               `yaml:"satisfied"`
	Error     string             `yaml:"error,omitempty"`
}

func (c *EvalCommand) Run(args []string) int {
	var (
		method   string
		checked  bool
		gradient bool
		tol      float64
		format   string
	)
	f := c.flagSet("eval")
	f.StringVar(&method, "method", "reverse", "differentiation method: forward or reverse")
	f.BoolVar(&checked, "safe", false, "check operator domains and finiteness")
	f.BoolVar(&gradient, "gradient", true, "compute the gradient")
	f.Float64Var(&tol, "tol", 1e-8, "satisfaction tolerance")
	f.StringVar(&format, "format", "text", "output format: text or yaml")
	if err := f.Parse(args); err != nil {
		return c.usage(err)
	}
	if f.NArg() < 1 {
		return c.usage(errors.New("eval needs a relation file"))
	}
	m, err := autodiff.ParseMethod(method)
	if err != nil {
		return c.usage(err)
	}
	c.setup()

	_, rels, err := c.load(f.Arg(0), f.Args()[1:])
	if err != nil {
		return c.fail(err)
	}

	mode := autodiff.ValueOnly
	if gradient {
		mode = autodiff.WithGradient
	}
	eng := c.engine()

	var out []evalOutput
	status := 0
	for _, rel := range rels {
		o := evalOutput{Relation: rel.Name(), Infix: rel.String()}
		if !rel.IsToken() {
			o.Error = fmt.Sprintf("%s relation, not evaluable", rel.Kind())
			out = append(out, o)
			continue
		}
		res, err := eng.EvaluateAt(rel, rel.Values(nil), m, mode, checked)
		if err != nil {
			o.Error = err.Error()
			status = 1
			out = append(out, o)
			continue
		}
		o.Residual = res.Residual
		if res.Gradient != nil {
			o.Gradient = make(map[string]float64, len(res.Gradient))
			for i, name := range variableNames(rel) {
				o.Gradient[name] = res.Gradient[i]
			}
		}
		o.Satisfied, _ = eng.Satisfied(rel, tol)
		out = append(out, o)
	}

	if format == "yaml" {
		data, err := yaml.Marshal(out)
		if err != nil {
			return c.fail(err)
		}
		c.Ui.Output(strings.TrimRight(string(data), "\n"))
		return status
	}

	for i, o := range out {
		c.Ui.Output(fmt.Sprintf("%s: %s", o.Relation, o.Infix))
		if o.Error != "" {
			c.Ui.Output("  error: " + o.Error)
			continue
		}
		c.Ui.Output(fmt.Sprintf("  residual  %s (satisfied: %t)", formatFloat(o.Residual), o.Satisfied))
		for _, name := range variableNames(rels[i]) {
			if g, ok := o.Gradient[name]; ok {
				c.Ui.Output(fmt.Sprintf("  d/d%-6s %s", name, formatFloat(g)))
			}
		}
	}
	return status
}

func (c *EvalCommand) Help() string {
	return strings.TrimSpace(`
Usage: relad eval [options] FILE [RELATION...]

  Evaluates the residual and gradient of every relation in FILE, or only
  the named ones, at the variable values stored in the file.

Options:

  -method=reverse     forward or reverse differentiation.
  -safe               Check operator domains; report the first violation.
  -gradient=true      Compute the gradient.
  -tol=1e-8           Tolerance for the satisfied column.
  -format=text        text or yaml.
  -set name=value     Override a variable value. Repeatable.
  -log-level=warn     trace, debug, info, warn or error.
`)
}

func (c *EvalCommand) Synopsis() string {
	return "Evaluate residuals and gradients"
}
