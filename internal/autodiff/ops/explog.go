package ops

import (
	"math"

	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// expRule is the exponential: y = e^a.
//
// Partials: ∂y/∂a = y, ∂²y/∂a² = y. Checked mode reports Overflow once y
// leaves the float64 range.
var expRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Exp(a) },
	First:  func(_, _, y float64) (float64, float64) { return y, 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return y, 0, 0 },
}

// lnRule is the natural logarithm: y = ln a.
//
// Partials:
//   - ∂y/∂a = 1/a
//   - ∂²y/∂a² = -1/a²
//
// The operand must be positive.
var lnRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Log(a) },
	First:  func(a, _, _ float64) (float64, float64) { return 1 / a, 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) { return -1 / (a * a), 0, 0 },
	Domain: logDomain,
}

// log10Rule is the decimal logarithm: y = log₁₀ a.
//
// Partials:
//   - ∂y/∂a = 1/(a·ln 10)
//   - ∂²y/∂a² = -1/(a²·ln 10)
var log10Rule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Log10(a) },
	First:  func(a, _, _ float64) (float64, float64) { return 1 / (a * math.Ln10), 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) { return -1 / (a * a * math.Ln10), 0, 0 },
	Domain: logDomain,
}

// lnmRule is the modified logarithm: ln a above expr.LnmEpsilon and its
// tangent line below it, so it is defined for every real operand.
//
// Partials:
//   - ∂y/∂a = 1/a, or 1/ε on the linear branch
//   - ∂²y/∂a² = -1/a², or 0 on the linear branch
var lnmRule = Rule{
	Eval: func(a, _ float64) float64 {
		if a > expr.LnmEpsilon {
			return math.Log(a)
		}
		return a/expr.LnmEpsilon + math.Log(expr.LnmEpsilon) - 1
	},
	First: func(a, _, _ float64) (float64, float64) {
		if a > expr.LnmEpsilon {
			return 1 / a, 0
		}
		return 1 / expr.LnmEpsilon, 0
	},
	Second: func(a, _, _ float64) (float64, float64, float64) {
		if a > expr.LnmEpsilon {
			return -1 / (a * a), 0, 0
		}
		return 0, 0, 0
	},
}

// erfRule is the error function: y = erf a.
//
// Partials:
//   - ∂y/∂a = (2/√π)·e^(-a²)
//   - ∂²y/∂a² = -2a·∂y/∂a
var erfRule = Rule{
	Eval:  func(a, _ float64) float64 { return math.Erf(a) },
	First: func(a, _, _ float64) (float64, float64) { return erfDeriv(a), 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) {
		return -2 * a * erfDeriv(a), 0, 0
	},
}

func erfDeriv(a float64) float64 {
	return 2 / math.SqrtPi * math.Exp(-a*a)
}

func logDomain(a, _, _ float64) safe.Kind { return safe.CheckLog(a) }
