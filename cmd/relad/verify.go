package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/born-ml/relad/internal/verify"
)

// VerifyCommand cross-checks the evaluators on a relation file.
type VerifyCommand struct {
	Meta
}

func (c *VerifyCommand) Run(args []string) int {
	cfg := verify.DefaultConfig()
	f := c.flagSet("verify")
	f.Float64Var(&cfg.Tolerance, "tol", verify.Tol, "comparison tolerance")
	f.BoolVar(&cfg.FiniteDifference, "fd", false, "compare against finite differences")
	f.Float64Var(&cfg.FDTolerance, "fd-tol", cfg.FDTolerance, "relative finite-difference tolerance")
	f.BoolVar(&cfg.Exact, "exact", cfg.Exact, "compare against dual-number derivatives")
	if err := f.Parse(args); err != nil {
		return c.usage(err)
	}
	if f.NArg() < 1 {
		return c.usage(errors.New("verify needs a relation file"))
	}
	c.setup()
	cfg.Logger = c.logger

	_, rels, err := c.load(f.Arg(0), f.Args()[1:])
	if err != nil {
		return c.fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := verify.New(c.engine(), cfg).Run(ctx, rels)
	var out strings.Builder
	if _, werr := report.WriteTo(&out); werr != nil {
		return c.fail(werr)
	}
	c.Ui.Output(strings.TrimRight(out.String(), "\n"))
	if err != nil {
		return c.fail(err)
	}
	if report.Failures() > 0 {
		return 1
	}
	return 0
}

func (c *VerifyCommand) Help() string {
	return strings.TrimSpace(`
Usage: relad verify [options] FILE [RELATION...]

  Cross-checks forward and reverse differentiation, the safe and unchecked
  evaluators and Hessian symmetry for every token relation, optionally
  against finite differences and exact dual-number derivatives. Exits 1 when
  any check fails.

Options:

  -tol=1e-5           Comparison tolerance.
  -fd                 Compare against central finite differences.
  -fd-tol=1e-4        Relative tolerance for finite differences.
  -exact=true         Compare against dual-number derivatives.
  -set name=value     Override a variable value. Repeatable.
  -log-level=warn     trace, debug, info, warn or error.
`)
}

func (c *VerifyCommand) Synopsis() string {
	return "Cross-check evaluators and derivatives"
}
