package ops

import (
	"math"

	"github.com/born-ml/relad/internal/safe"
)

// addRule is addition: y = a + b.
//
// Partials:
//   - ∂y/∂a = 1, ∂y/∂b = 1
//   - every second partial is 0
var addRule = Rule{
	Eval:   func(a, b float64) float64 { return a + b },
	First:  func(_, _, _ float64) (float64, float64) { return 1, 1 },
	Second: zeroSecond,
}

// subRule is subtraction: y = a - b.
//
// Partials:
//   - ∂y/∂a = 1, ∂y/∂b = -1
//   - every second partial is 0
var subRule = Rule{
	Eval:   func(a, b float64) float64 { return a - b },
	First:  func(_, _, _ float64) (float64, float64) { return 1, -1 },
	Second: zeroSecond,
}

// mulRule is multiplication: y = a * b.
//
// Partials:
//   - ∂y/∂a = b, ∂y/∂b = a
//   - ∂²y/∂a∂b = 1
var mulRule = Rule{
	Eval:   func(a, b float64) float64 { return a * b },
	First:  func(a, b, _ float64) (float64, float64) { return b, a },
	Second: func(_, _, _ float64) (float64, float64, float64) { return 0, 1, 0 },
}

// divRule is division: y = a / b.
//
// Partials:
//   - ∂y/∂a = 1/b, ∂y/∂b = -a/b²
//   - ∂²y/∂a² = 0, ∂²y/∂a∂b = -1/b², ∂²y/∂b² = 2a/b³
//
// Checked mode rejects |b| below the configured epsilon.
var divRule = Rule{
	Eval: func(a, b float64) float64 { return a / b },
	First: func(a, b, _ float64) (float64, float64) {
		return 1 / b, -a / (b * b)
	},
	Second: func(a, b, _ float64) (float64, float64, float64) {
		b2 := b * b
		return 0, -1 / b2, 2 * a / (b2 * b)
	},
	Domain: func(_, b, eps float64) safe.Kind { return safe.CheckDiv(b, eps) },
}

// powRule is the real power: y = a^b.
//
// Partials:
//   - ∂y/∂a = b·a^(b-1), ∂y/∂b = y·ln a
//   - ∂²y/∂a² = b(b-1)·a^(b-2)
//   - ∂²y/∂a∂b = a^(b-1)·(1 + b·ln a)
//   - ∂²y/∂b² = y·(ln a)²
//
// A negative base needs an integer exponent, and differentiating with
// respect to an active exponent needs a positive base.
var powRule = Rule{
	Eval: math.Pow,
	First: func(a, b, y float64) (float64, float64) {
		return powFirst(a, b), y * math.Log(a)
	},
	Second: func(a, b, y float64) (float64, float64, float64) {
		ln := math.Log(a)
		return powSecond(a, b), math.Pow(a, b-1) * (1 + b*ln), y * ln * ln
	},
	Domain: func(a, b, _ float64) safe.Kind { return safe.CheckPow(a, b) },
	DerivDomain: func(a, _, _ float64, act Active) safe.Kind {
		if act&ActiveRight != 0 {
			return safe.CheckLog(a)
		}
		return safe.Ok
	},
}

// ipowRule is the integer power: y = a^n where n is a constant integer node.
//
// Partials:
//   - ∂y/∂a = n·a^(n-1)
//   - ∂²y/∂a² = n(n-1)·a^(n-2)
//
// The exponent is never active, so its partials are 0.
var ipowRule = Rule{
	Eval: math.Pow,
	First: func(a, n, _ float64) (float64, float64) {
		return powFirst(a, n), 0
	},
	Second: func(a, n, _ float64) (float64, float64, float64) {
		return powSecond(a, n), 0, 0
	},
	Domain: func(a, n, _ float64) safe.Kind {
		if a == 0 && n < 0 {
			return safe.DivideByZero
		}
		return safe.Ok
	},
}

// powFirst is b·a^(b-1), taken as 0 for b == 0 so that a zero base does not
// produce 0·Inf.
func powFirst(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return b * math.Pow(a, b-1)
}

func powSecond(a, b float64) float64 {
	if b == 0 || b == 1 {
		return 0
	}
	return b * (b - 1) * math.Pow(a, b-2)
}

// negRule is negation: y = -a.
var negRule = Rule{
	Eval:   func(a, _ float64) float64 { return -a },
	First:  func(_, _, _ float64) (float64, float64) { return -1, 0 },
	Second: zeroSecond,
}

// sqrRule is the square: y = a².
//
// Partials: ∂y/∂a = 2a, ∂²y/∂a² = 2.
var sqrRule = Rule{
	Eval:   func(a, _ float64) float64 { return a * a },
	First:  func(a, _, _ float64) (float64, float64) { return 2 * a, 0 },
	Second: func(_, _, _ float64) (float64, float64, float64) { return 2, 0, 0 },
}

// cubeRule is the cube: y = a³.
//
// Partials: ∂y/∂a = 3a², ∂²y/∂a² = 6a.
var cubeRule = Rule{
	Eval:   func(a, _ float64) float64 { return a * a * a },
	First:  func(a, _, _ float64) (float64, float64) { return 3 * a * a, 0 },
	Second: func(a, _, _ float64) (float64, float64, float64) { return 6 * a, 0, 0 },
}

// sqrtRule is the square root: y = √a.
//
// Partials:
//   - ∂y/∂a = 1/(2y)
//   - ∂²y/∂a² = -1/(4·a·y)
//
// The value needs a >= 0, the partials a > 0.
var sqrtRule = Rule{
	Eval:   func(a, _ float64) float64 { return math.Sqrt(a) },
	First:  func(_, _, y float64) (float64, float64) { return 0.5 / y, 0 },
	Second: func(a, _, y float64) (float64, float64, float64) { return -0.25 / (a * y), 0, 0 },
	Domain: func(a, _, _ float64) safe.Kind { return safe.CheckSqrt(a) },
	DerivDomain: func(a, _, eps float64, _ Active) safe.Kind {
		return safe.CheckDiv(math.Sqrt(a), eps)
	},
}

// cbrtRule is the cube root: y = ∛a.
//
// Partials:
//   - ∂y/∂a = 1/(3y²)
//   - ∂²y/∂a² = -2/(9y⁵)
var cbrtRule = Rule{
	Eval:  func(a, _ float64) float64 { return math.Cbrt(a) },
	First: func(_, _, y float64) (float64, float64) { return 1 / (3 * y * y), 0 },
	Second: func(_, _, y float64) (float64, float64, float64) {
		y2 := y * y
		return -2 / (9 * y2 * y2 * y), 0, 0
	},
	DerivDomain: func(a, _, eps float64, _ Active) safe.Kind {
		return safe.CheckDiv(math.Cbrt(a), eps)
	},
}

// absRule is the absolute value: y = |a|. Its derivative is sign(a), taken
// as 0 at the kink.
var absRule = Rule{
	Eval: func(a, _ float64) float64 { return math.Abs(a) },
	First: func(a, _, _ float64) (float64, float64) {
		switch {
		case a > 0:
			return 1, 0
		case a < 0:
			return -1, 0
		default:
			return 0, 0
		}
	},
	Second: zeroSecond,
}

// holdRule passes its operand through but is constant for differentiation.
var holdRule = Rule{
	Eval:   func(a, _ float64) float64 { return a },
	First:  func(_, _, _ float64) (float64, float64) { return 0, 0 },
	Second: zeroSecond,
}
