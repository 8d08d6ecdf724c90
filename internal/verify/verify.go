// Package verify cross-checks the evaluators of the autodiff engine against
// each other and against independent references.
//
// For every token relation the harness compares forward and reverse
// residuals and gradients, forms every second-derivative row, checks Hessian
// symmetry and repeats the run with the safe family, which must either trap
// or agree exactly with the unchecked results. Optionally it compares
// against central finite differences (gonum diff/fd) and against exact
// dual-number derivatives (gonum num/dual, num/hyperdual).
package verify

import (
	"context"
	"errors"
	"math"

	"github.com/hashicorp/go-hclog"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/relad/internal/autodiff"
	"github.com/born-ml/relad/internal/expr"
)

// Tol is the default comparison tolerance.
const Tol = 1e-5

// Close reports whether a and b agree within Tol, absolutely or relative to
// either value.
func Close(a, b float64) bool {
	return CloseTol(a, b, Tol)
}

// CloseTol is Close with an explicit tolerance.
func CloseTol(a, b, tol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= max(tol, math.Abs(a*tol), math.Abs(b*tol))
}

// Config configures a Harness.
type Config struct {
	// Tolerance for evaluator cross-checks.
	Tolerance float64

	// FiniteDifference enables the gonum finite-difference reference.
	FiniteDifference bool

	// FDTolerance is the relative tolerance for finite differences.
	FDTolerance float64

	// Exact enables the dual-number reference.
	Exact bool

	// Logger receives per-relation summaries. Nil disables logging.
	Logger hclog.Logger
}

// DefaultConfig returns the default harness configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance:   Tol,
		FDTolerance: 1e-4,
		Exact:       true,
	}
}

// Harness runs verification passes with one engine.
type Harness struct {
	eng *autodiff.Engine
	cfg Config
	log hclog.Logger
}

// New creates a Harness.
func New(eng *autodiff.Engine, cfg Config) *Harness {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = Tol
	}
	if cfg.FDTolerance <= 0 {
		cfg.FDTolerance = 1e-4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Harness{eng: eng, cfg: cfg, log: logger.Named("verify")}
}

// Run verifies every relation at its current variable values. It stops
// early when ctx is cancelled and returns the partial report with ctx's
// error.
func (h *Harness) Run(ctx context.Context, rels []*expr.Relation) (*Report, error) {
	report := &Report{}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Merge(h.Relation(rel))
	}
	h.log.Info("verification finished",
		"relations", report.Relations, "skipped", report.Skipped, "failures", report.Failures())
	return report, nil
}

// Relation verifies a single relation.
func (h *Harness) Relation(rel *expr.Relation) *Report {
	r := &Report{}
	if !rel.IsToken() {
		r.Skipped++
		h.log.Debug("skipping relation", "relation", rel.Name(), "kind", rel.Kind())
		return r
	}
	r.Relations++

	c := &checker{h: h, rel: rel, name: rel.Name(), report: r, x: rel.Values(nil)}
	if h.log.IsDebug() {
		h.log.Debug("verifying", "relation", c.name, "expr", rel.String())
	}

	fwd, rev, ok := c.firstOrder()
	if !ok {
		return r
	}
	hess, ok := c.secondOrder()
	if !ok {
		return r
	}
	c.safeFamily(fwd, rev, hess)
	if h.cfg.FiniteDifference {
		c.finiteDifference(rev.Gradient, hess)
	}
	if h.cfg.Exact {
		c.exact(rev.Gradient, hess)
	}

	if n := r.Failures(); n > 0 {
		h.log.Warn("relation failed verification", "relation", c.name, "failures", n)
	}
	return r
}

type checker struct {
	h      *Harness
	rel    *expr.Relation
	name   string
	report *Report
	x      []float64
}

func (c *checker) fail(check Check, i, j int, got, want float64) {
	c.report.add(&Mismatch{Relation: c.name, Check: check, I: i, J: j, Got: got, Want: want})
	c.h.log.Warn("mismatch", "relation", c.name, "check", string(check), "i", i, "j", j, "got", got, "want", want)
}

func (c *checker) failErr(check Check, i int, err error) {
	c.report.add(&Mismatch{Relation: c.name, Check: check, I: i, J: -1, Err: err})
	c.h.log.Warn("check failed", "relation", c.name, "check", string(check), "error", err)
}

func (c *checker) close(a, b float64) bool {
	return CloseTol(a, b, c.h.cfg.Tolerance)
}

// firstOrder compares the unchecked forward and reverse evaluators.
func (c *checker) firstOrder() (fwd, rev autodiff.Result, ok bool) {
	eng := c.h.eng
	fwd, err := eng.EvaluateAt(c.rel, c.x, autodiff.Forward, autodiff.WithGradient, false)
	if err != nil {
		c.failErr(CheckEvaluation, -1, err)
		return fwd, rev, false
	}
	rev, err = eng.EvaluateAt(c.rel, c.x, autodiff.Reverse, autodiff.WithGradient, false)
	if err != nil {
		c.failErr(CheckEvaluation, -1, err)
		return fwd, rev, false
	}

	if !c.close(fwd.Residual, rev.Residual) {
		c.fail(CheckResidual, -1, -1, rev.Residual, fwd.Residual)
	}
	for i := range rev.Gradient {
		if !c.close(fwd.Gradient[i], rev.Gradient[i]) {
			c.fail(CheckGradient, i, -1, rev.Gradient[i], fwd.Gradient[i])
		}
	}
	return fwd, rev, true
}

// secondOrder forms every row and checks symmetry.
func (c *checker) secondOrder() ([][]float64, bool) {
	n := len(c.x)
	hess := make([][]float64, n)
	for i := 0; i < n; i++ {
		row, err := c.h.eng.SecondDerivativeRowAt(c.rel, c.x, i, false)
		if err != nil {
			c.failErr(CheckSecond, i, err)
			return nil, false
		}
		hess[i] = row
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !c.close(hess[i][j], hess[j][i]) {
				c.fail(CheckSymmetry, i, j, hess[i][j], hess[j][i])
			}
		}
	}
	return hess, true
}

// safeFamily reruns everything with checks on. A trap is reported once; a
// completed safe run must match the unchecked run bit for bit.
func (c *checker) safeFamily(fwd, rev autodiff.Result, hess [][]float64) {
	eng := c.h.eng
	for _, ref := range []struct {
		method autodiff.Method
		want   autodiff.Result
	}{{autodiff.Forward, fwd}, {autodiff.Reverse, rev}} {
		got, err := eng.EvaluateAt(c.rel, c.x, ref.method, autodiff.WithGradient, true)
		if err != nil {
			c.failErr(CheckSafe, -1, err)
			return
		}
		if !same(got.Residual, ref.want.Residual) {
			c.fail(CheckSafeAgree, -1, -1, got.Residual, ref.want.Residual)
		}
		for i := range got.Gradient {
			if !same(got.Gradient[i], ref.want.Gradient[i]) {
				c.fail(CheckSafeAgree, i, -1, got.Gradient[i], ref.want.Gradient[i])
			}
		}
	}

	for i := range hess {
		row, err := eng.SecondDerivativeRowAt(c.rel, c.x, i, true)
		if err != nil {
			c.failErr(CheckSafe, i, err)
			return
		}
		for j := range row {
			if !same(row[j], hess[i][j]) {
				c.fail(CheckSafeAgree, i, j, row[j], hess[i][j])
			}
		}
	}
}

// same is exact equality that also matches NaN with NaN.
func same(a, b float64) bool {
	return a == b || math.IsNaN(a) && math.IsNaN(b)
}

func (c *checker) residual(x []float64) float64 {
	res, err := c.h.eng.EvaluateAt(c.rel, x, autodiff.Reverse, autodiff.ValueOnly, false)
	if err != nil {
		return math.NaN()
	}
	return res.Residual
}

// finiteDifference compares against central differences.
func (c *checker) finiteDifference(grad []float64, hess [][]float64) {
	tol := c.h.cfg.FDTolerance
	fdGrad := fd.Gradient(nil, c.residual, c.x, &fd.Settings{Formula: fd.Central})
	for i, want := range fdGrad {
		if !CloseTol(grad[i], want, tol) {
			c.fail(CheckFinite, i, -1, grad[i], want)
		}
	}

	n := len(c.x)
	if n == 0 {
		return
	}
	fdHess := mat.NewSymDense(n, nil)
	fd.Hessian(fdHess, c.residual, c.x, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if want := fdHess.At(i, j); !CloseTol(hess[i][j], want, tol) {
				c.fail(CheckFinite, i, j, hess[i][j], want)
			}
		}
	}
}

// exact compares against dual-number derivatives.
func (c *checker) exact(grad []float64, hess [][]float64) {
	want, err := exactGradient(c.rel, c.x)
	if errors.Is(err, errUnsupported) {
		c.report.ExactSkipped++
		c.h.log.Debug("no dual-number form", "relation", c.name, "reason", err)
		return
	}
	for i := range want {
		if !c.close(grad[i], want[i]) {
			c.fail(CheckExact, i, -1, grad[i], want[i])
		}
	}

	wantH, err := exactHessian(c.rel, c.x)
	if err != nil {
		return
	}
	for i := range wantH {
		for j := range wantH[i] {
			if !c.close(hess[i][j], wantH[i][j]) {
				c.fail(CheckExact, i, j, hess[i][j], wantH[i][j])
			}
		}
	}
}
