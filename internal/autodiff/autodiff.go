// Package autodiff evaluates relation residuals and their derivatives.
//
// The Engine offers three families over the same rule table:
//   - Forward mode: derivative vectors propagated bottom-up, O(nodes × variables)
//   - Reverse mode: an EvalTape forward phase plus an adjoint sweep, O(nodes)
//   - Second derivatives: forward-over-reverse Hessian rows, O(nodes) per row
//
// Every family exists in a plain variant, which follows IEEE-754 semantics
// and never fails numerically, and a safe variant, which runs the identical
// arithmetic behind domain and finiteness checks and reports the first
// violation as a *safe.Error.
//
// Usage:
//
//	b := expr.NewBuilder(expr.NewReal("x", 3))
//	x := b.Var(1)
//	rel, _ := b.Relation("r", b.Mul(x, x), expr.RelEqual, b.Const(4))
//
//	eng := autodiff.New(autodiff.DefaultConfig())
//	res, _ := eng.EvaluateReverse(rel, autodiff.WithGradient)
//	fmt.Println(res.Residual, res.Gradient) // 5 [6]
package autodiff

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/parallel"
	"github.com/born-ml/relad/internal/safe"
)

// Mode selects what a first-derivative evaluation computes.
type Mode uint8

// Evaluation modes.
const (
	ValueOnly Mode = iota
	WithGradient
)

func (m Mode) String() string {
	if m == WithGradient {
		return "gradient"
	}
	return "value"
}

// Method selects the first-derivative algorithm.
type Method uint8

// Differentiation methods.
const (
	Forward Method = iota
	Reverse
)

func (m Method) String() string {
	if m == Reverse {
		return "reverse"
	}
	return "forward"
}

// ParseMethod parses "forward" or "reverse".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "forward", "fwd":
		return Forward, nil
	case "reverse", "rev":
		return Reverse, nil
	}
	return 0, fmt.Errorf("autodiff: unknown method %q", s)
}

// Result is the outcome of a first-derivative evaluation. Gradient is nil in
// ValueOnly mode; otherwise it is indexed from 0 and owned by the caller.
type Result struct {
	Residual float64
	Gradient []float64
}

var (
	// ErrNotToken is returned when a relation has no expression DAG.
	ErrNotToken = errors.New("autodiff: relation is not a token relation")

	// ErrVarIndex is returned for an outer variable index out of range.
	ErrVarIndex = errors.New("autodiff: variable index out of range")

	// ErrPointSize is returned when an explicit point has the wrong length.
	ErrPointSize = errors.New("autodiff: point length does not match variable count")
)

// Config configures an Engine.
type Config struct {
	// Safe configures the checked variants.
	Safe safe.Config

	// Parallel controls Hessian rows and batch evaluation.
	Parallel parallel.Config

	// Logger receives trace and debug output. Nil disables logging.
	Logger hclog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Safe:     safe.DefaultConfig(),
		Parallel: parallel.DefaultConfig(),
	}
}

// Engine evaluates relations. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	chk *safe.Checker
	par parallel.Config
	log hclog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{
		chk: safe.NewChecker(cfg.Safe),
		par: cfg.Parallel,
		log: logger.Named("autodiff"),
	}
}

func (e *Engine) checker(checked bool) *safe.Checker {
	if checked {
		return e.chk
	}
	return nil
}

func tokenCheck(rel *expr.Relation) error {
	if !rel.IsToken() {
		return fmt.Errorf("%w: %s is %s", ErrNotToken, rel.Name(), rel.Kind())
	}
	return nil
}

// Evaluate computes the residual, and the gradient in WithGradient mode, by
// forward-mode differentiation at the relation's current variable values.
func (e *Engine) Evaluate(rel *expr.Relation, mode Mode) (Result, error) {
	return e.evaluate(rel, nil, Forward, mode, false)
}

// EvaluateSafe is Evaluate with domain and finiteness checks.
func (e *Engine) EvaluateSafe(rel *expr.Relation, mode Mode) (Result, error) {
	return e.evaluate(rel, nil, Forward, mode, true)
}

// EvaluateReverse computes the same quantities as Evaluate by reverse-mode
// differentiation.
func (e *Engine) EvaluateReverse(rel *expr.Relation, mode Mode) (Result, error) {
	return e.evaluate(rel, nil, Reverse, mode, false)
}

// EvaluateReverseSafe is EvaluateReverse with domain and finiteness checks.
func (e *Engine) EvaluateReverseSafe(rel *expr.Relation, mode Mode) (Result, error) {
	return e.evaluate(rel, nil, Reverse, mode, true)
}

// EvaluateAt evaluates rel at the explicit 0-based point x instead of the
// current variable values.
func (e *Engine) EvaluateAt(rel *expr.Relation, x []float64, method Method, mode Mode, checked bool) (Result, error) {
	if x == nil {
		x = []float64{}
	}
	return e.evaluate(rel, x, method, mode, checked)
}

func (e *Engine) evaluate(rel *expr.Relation, x []float64, method Method, mode Mode, checked bool) (Result, error) {
	if err := tokenCheck(rel); err != nil {
		return Result{}, err
	}
	x, err := point(rel, x)
	if err != nil {
		return Result{}, err
	}

	if e.log.IsTrace() {
		e.log.Trace("evaluate", "relation", rel.Name(), "method", method, "mode", mode, "safe", checked)
	}

	var res Result
	if method == Reverse {
		res, err = reverseEval(rel, x, mode, e.checker(checked))
	} else {
		res, err = forwardEval(rel, x, mode, e.checker(checked))
	}
	if err != nil {
		e.log.Debug("evaluation trapped", "relation", rel.Name(), "method", method, "error", err)
		return Result{}, err
	}
	return res, nil
}

// point returns x, or a snapshot of the current variable values when x is
// nil.
func point(rel *expr.Relation, x []float64) ([]float64, error) {
	if x == nil {
		return rel.Values(nil), nil
	}
	if len(x) != rel.NumVariables() {
		return nil, fmt.Errorf("%w: got %d, relation %s has %d", ErrPointSize, len(x), rel.Name(), rel.NumVariables())
	}
	return x, nil
}

// SecondDerivativeRow returns ∂²r/∂x_outer∂x_j for every variable j, where
// outer is 0-based.
func (e *Engine) SecondDerivativeRow(rel *expr.Relation, outer int) ([]float64, error) {
	return e.secondRow(rel, nil, outer, false)
}

// SecondDerivativeRowSafe is SecondDerivativeRow with domain and finiteness
// checks. On failure the returned row is nil.
func (e *Engine) SecondDerivativeRowSafe(rel *expr.Relation, outer int) ([]float64, error) {
	return e.secondRow(rel, nil, outer, true)
}

// SecondDerivativeRowAt is SecondDerivativeRow at an explicit point.
func (e *Engine) SecondDerivativeRowAt(rel *expr.Relation, x []float64, outer int, checked bool) ([]float64, error) {
	if x == nil {
		x = []float64{}
	}
	return e.secondRow(rel, x, outer, checked)
}

func (e *Engine) secondRow(rel *expr.Relation, x []float64, outer int, checked bool) ([]float64, error) {
	if err := tokenCheck(rel); err != nil {
		return nil, err
	}
	if outer < 0 || outer >= rel.NumVariables() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrVarIndex, outer, rel.NumVariables())
	}
	x, err := point(rel, x)
	if err != nil {
		return nil, err
	}

	if e.log.IsTrace() {
		e.log.Trace("second derivative row", "relation", rel.Name(), "outer", outer, "safe", checked)
	}
	row, _, err := secondRow(rel, x, outer, e.checker(checked))
	if err != nil {
		e.log.Debug("second derivative trapped", "relation", rel.Name(), "outer", outer, "error", err)
		return nil, err
	}
	return row, nil
}

// Hessian returns the full matrix of second partials, one row per variable.
// Rows are computed independently and may run in parallel.
func (e *Engine) Hessian(rel *expr.Relation) ([][]float64, error) {
	return e.hessian(rel, false)
}

// HessianSafe is Hessian with domain and finiteness checks.
func (e *Engine) HessianSafe(rel *expr.Relation) ([][]float64, error) {
	return e.hessian(rel, true)
}

func (e *Engine) hessian(rel *expr.Relation, checked bool) ([][]float64, error) {
	if err := tokenCheck(rel); err != nil {
		return nil, err
	}
	x := rel.Values(nil)
	chk := e.checker(checked)
	n := rel.NumVariables()

	h := make([][]float64, n)
	err := parallel.ForErr(n, func(i int) error {
		row, _, err := secondRow(rel, x, i, chk)
		if err != nil {
			return err
		}
		h[i] = row
		return nil
	}, e.par)
	if err != nil {
		e.log.Debug("hessian trapped", "relation", rel.Name(), "error", err)
		return nil, err
	}
	return h, nil
}

// EvaluateAll evaluates a batch of relations at their current variable
// values. Results are indexed like rels. The first failure is returned
// wrapped with the relation's position and name.
func (e *Engine) EvaluateAll(rels []*expr.Relation, method Method, mode Mode, checked bool) ([]Result, error) {
	out := make([]Result, len(rels))
	err := parallel.ForErr(len(rels), func(i int) error {
		res, err := e.evaluate(rels[i], nil, method, mode, checked)
		if err != nil {
			return fmt.Errorf("relation %d (%s): %w", i, rels[i].Name(), err)
		}
		out[i] = res
		return nil
	}, e.par)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Satisfied reports whether the relation holds at the current variable
// values within tol. Objectives are always satisfied. The residual is
// computed with checks enabled; a trapped evaluation is not satisfied and
// its error is returned.
func (e *Engine) Satisfied(rel *expr.Relation, tol float64) (bool, error) {
	if err := tokenCheck(rel); err != nil {
		return false, err
	}
	if rel.Relop().IsObjective() {
		return true, nil
	}
	res, err := e.evaluate(rel, nil, Reverse, ValueOnly, true)
	if err != nil {
		return false, err
	}
	return satisfied(rel.Relop(), res.Residual, tol), nil
}

func satisfied(op expr.Relop, r, tol float64) bool {
	switch op {
	case expr.RelEqual:
		return math.Abs(r) <= tol
	case expr.RelLess:
		return r < tol
	case expr.RelLessEqual:
		return r <= tol
	case expr.RelGreater:
		return r > -tol
	case expr.RelGreaterEqual:
		return r >= -tol
	case expr.RelNotEqual:
		return math.Abs(r) > tol
	default:
		return true
	}
}
