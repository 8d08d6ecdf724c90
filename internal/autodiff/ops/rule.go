// Package ops is the operator rule table of the relation evaluators.
//
// Every expr.Op has one Rule holding:
//   - Eval: the node value from its operand values
//   - First: the local partials ∂y/∂a and ∂y/∂b
//   - Second: the local second partials ∂²y/∂a², ∂²y/∂a∂b, ∂²y/∂b²
//   - Domain / DerivDomain: the operand checks applied in checked mode
//
// The forward evaluator, the reverse evaluator and the second-derivative
// module all go through this table, so an operator is added by writing one
// Rule and registering it in table.go.
package ops

import (
	"fmt"

	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// Active marks which operands of a node have variables below them. Partials
// with respect to inactive operands are never formed.
type Active uint8

// Operand activity flags.
const (
	ActiveLeft Active = 1 << iota
	ActiveRight
)

// Rule is the differentiation rule of one operator. Unary rules ignore b and
// return zero for every partial involving it.
type Rule struct {
	Op     expr.Op
	Eval   func(a, b float64) float64
	First  func(a, b, y float64) (da, db float64)
	Second func(a, b, y float64) (daa, dab, dbb float64)

	// Domain checks the operands before Eval. nil means every operand pair
	// is accepted.
	Domain func(a, b, eps float64) safe.Kind
	// DerivDomain checks the operands before First and Second. nil means
	// only the finiteness of the partials is checked.
	DerivDomain func(a, b, eps float64, act Active) safe.Kind
}

// Lookup returns the rule for op. An operator without a rule is a defect in
// the table and panics.
func Lookup(op expr.Op) *Rule {
	if op >= expr.NumOps || table[op].Eval == nil {
		panic(fmt.Sprintf("ops: no rule for operator %s", op))
	}
	return &table[op]
}

// Apply evaluates op on its operands through chk. With a nil checker the
// outcome is always Ok and carries the raw IEEE result.
func Apply(op expr.Op, a, b float64, chk *safe.Checker) safe.Outcome {
	y, k := Lookup(op).Value(a, b, chk)
	return safe.Outcome{Value: y, Kind: k}
}

// Value computes the node value, checking the operands and the result when
// chk is non-nil.
func (r *Rule) Value(a, b float64, chk *safe.Checker) (float64, safe.Kind) {
	if chk.Enabled() && r.Domain != nil {
		if k := r.Domain(a, b, chk.Epsilon()); k != safe.Ok {
			return 0, k
		}
	}
	y := r.Eval(a, b)
	return y, chk.Finite(y)
}

// Partials computes the first local partials with respect to the active
// operands; inactive ones are reported as zero.
func (r *Rule) Partials(a, b, y float64, act Active, chk *safe.Checker) (da, db float64, k safe.Kind) {
	if act == 0 {
		return 0, 0, safe.Ok
	}
	if k := r.checkDeriv(a, b, act, chk); k != safe.Ok {
		return 0, 0, k
	}
	da, db = r.First(a, b, y)
	if act&ActiveLeft == 0 {
		da = 0
	}
	if act&ActiveRight == 0 {
		db = 0
	}
	if k := chk.Finite(da); k != safe.Ok {
		return 0, 0, k
	}
	return da, db, chk.Finite(db)
}

// SecondPartials computes the second local partials restricted to the active
// operands.
func (r *Rule) SecondPartials(a, b, y float64, act Active, chk *safe.Checker) (daa, dab, dbb float64, k safe.Kind) {
	if act == 0 {
		return 0, 0, 0, safe.Ok
	}
	if k := r.checkDeriv(a, b, act, chk); k != safe.Ok {
		return 0, 0, 0, k
	}
	daa, dab, dbb = r.Second(a, b, y)
	if act&ActiveLeft == 0 {
		daa, dab = 0, 0
	}
	if act&ActiveRight == 0 {
		dab, dbb = 0, 0
	}
	for _, v := range [3]float64{daa, dab, dbb} {
		if k := chk.Finite(v); k != safe.Ok {
			return 0, 0, 0, k
		}
	}
	return daa, dab, dbb, safe.Ok
}

func (r *Rule) checkDeriv(a, b float64, act Active, chk *safe.Checker) safe.Kind {
	if !chk.Enabled() || r.DerivDomain == nil {
		return safe.Ok
	}
	return r.DerivDomain(a, b, chk.Epsilon(), act)
}

func zeroSecond(_, _, _ float64) (daa, dab, dbb float64) { return 0, 0, 0 }
