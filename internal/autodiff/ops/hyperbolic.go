package ops

import (
	"math"

	"github.com/born-ml/relad/internal/safe"
)

// sinhRule: y = sinh a, ∂y/∂a = cosh a, ∂²y/∂a² = y.
var sinhRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Sinh(a) },
	First:  func(a, _, _ float64) (float64, float64) { return math.Cosh(a), 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return y, 0, 0 },
}

// coshRule: y = cosh a, ∂y/∂a = sinh a, ∂²y/∂a² = y.
var coshRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Cosh(a) },
	First:  func(a, _, _ float64) (float64, float64) { return math.Sinh(a), 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return y, 0, 0 },
}

// tanhRule: y = tanh a, ∂y/∂a = 1 - y², ∂²y/∂a² = -2y(1 - y²).
var tanhRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Tanh(a) },
	First:  func(_, _, y float64) (float64, float64) { return 1 - y*y, 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return -2 * y * (1 - y*y), 0, 0 },
}

// arcsinhRule is the inverse hyperbolic sine: y = arcsinh a.
//
// Partials:
//   - ∂y/∂a = 1/√(a²+1)
//   - ∂²y/∂a² = -a/(a²+1)^(3/2)
var arcsinhRule = Rule{
	Eval:  func(a, _ float64) float64 { return math.Asinh(a) },
	First: func(a, _, _ float64) (float64, float64) { return 1 / math.Sqrt(a*a+1), 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) {
		s := a*a + 1
		return -a / (s * math.Sqrt(s)), 0, 0
	},
}

// arccoshRule is the inverse hyperbolic cosine: y = arccosh a.
//
// Partials:
//   - ∂y/∂a = 1/√(a²-1)
//   - ∂²y/∂a² = -a/(a²-1)^(3/2)
//
// The value needs a >= 1, the partials a > 1.
var arccoshRule = Rule{
	Eval:  func(a, _ float64) float64 { return math.Acosh(a) },
	First: func(a, _, _ float64) (float64, float64) { return 1 / math.Sqrt(a*a-1), 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) {
		s := a*a - 1
		return -a / (s * math.Sqrt(s)), 0, 0
	},
	Domain: func(a, _, _ float64) safe.Kind {
		if a < 1 || math.IsNaN(a) {
			return safe.DomainError
		}
		return safe.Ok
	},
	DerivDomain: func(a, _, eps float64, _ Active) safe.Kind {
		return safe.CheckDiv(a*a-1, eps)
	},
}

// arctanhRule is the inverse hyperbolic tangent: y = arctanh a.
//
// Partials:
//   - ∂y/∂a = 1/(1-a²)
//   - ∂²y/∂a² = 2a/(1-a²)²
//
// The operand must lie in (-1, 1).
var arctanhRule = Rule{
	Eval:  func(a, _ float64) float64 { return math.Atanh(a) },
	First: func(a, _, _ float64) (float64, float64) { return 1 / (1 - a*a), 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) {
		s := 1 - a*a
		return 2 * a / (s * s), 0, 0
	},
	Domain: func(a, _, _ float64) safe.Kind { return safe.CheckOpenUnit(a) },
}
