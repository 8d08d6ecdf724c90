package ops

import (
	"math"

	"github.com/born-ml/relad/internal/safe"
)

// sinRule: y = sin a, ∂y/∂a = cos a, ∂²y/∂a² = -y.
var sinRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Sin(a) },
	First:  func(a, _, _ float64) (float64, float64) { return math.Cos(a), 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return -y, 0, 0 },
}

// cosRule: y = cos a, ∂y/∂a = -sin a, ∂²y/∂a² = -y.
var cosRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Cos(a) },
	First:  func(a, _, _ float64) (float64, float64) { return -math.Sin(a), 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return -y, 0, 0 },
}

// tanRule is the tangent: y = tan a.
//
// Partials:
//   - ∂y/∂a = 1 + y²
//   - ∂²y/∂a² = 2y·(1 + y²)
//
// Checked mode rejects operands where cos a vanishes.
var tanRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Tan(a) },
	First:  func(_, _, y float64) (float64, float64) { return 1 + y*y, 0 },
	Second: func(_, _, y float64) (float64, float64, float64) { return 2 * y * (1 + y*y), 0, 0 },
	Domain: func(a, _, eps float64) safe.Kind { return safe.CheckDiv(math.Cos(a), eps) },
}

// arcsinRule is the inverse sine: y = arcsin a.
//
// Partials:
//   - ∂y/∂a = 1/√(1-a²)
//   - ∂²y/∂a² = a/(1-a²)^(3/2)
//
// The value needs |a| <= 1, the partials |a| < 1.
var arcsinRule = Rule{
	Eval: func(a, _ float64) float64 { return math.Asin(a) },
	First: func(a, _, _ float64) (float64, float64) {
		return 1 / math.Sqrt(1-a*a), 0
	},
	Second: func(a, _, _ float64) (float64, float64, float64) {
		s := 1 - a*a
		return a / (s * math.Sqrt(s)), 0, 0
	},
	Domain:      unitDomain,
	DerivDomain: unitDerivDomain,
}

// arccosRule is the inverse cosine: y = arccos a, with the partials of
// arcsin negated.
var arccosRule = Rule{
	Eval: func(a, _ float64) float64 { return math.Acos(a) },
	First: func(a, _, _ float64) (float64, float64) {
		return -1 / math.Sqrt(1-a*a), 0
	},
	Second: func(a, _, _ float64) (float64, float64, float64) {
		s := 1 - a*a
		return -a / (s * math.Sqrt(s)), 0, 0
	},
	Domain:      unitDomain,
	DerivDomain: unitDerivDomain,
}

// arctanRule is the inverse tangent: y = arctan a.
//
// Partials:
//   - ∂y/∂a = 1/(1+a²)
//   - ∂²y/∂a² = -2a/(1+a²)²
var arctanRule = Rule{
	Eval:  func(a, _ float64) float64 { return math.Atan(a) },
	First: func(a, _, _ float64) (float64, float64) { return 1 / (1 + a*a), 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) {
		s := 1 + a*a
		return -2 * a / (s * s), 0, 0
	},
}

func unitDomain(a, _, _ float64) safe.Kind { return safe.CheckClosedUnit(a) }

func unitDerivDomain(a, _, eps float64, _ Active) safe.Kind {
	return safe.CheckDiv(1-a*a, eps)
}
