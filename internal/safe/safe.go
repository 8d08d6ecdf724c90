// Package safe is the numeric safety layer of the relation engine.
//
// Checked evaluation runs exactly the same arithmetic as unchecked
// evaluation; the layer only inspects operands before an elementary
// operation and results after it, and turns the first violation into a
// status instead of letting NaN or Inf flow on. A nil *Checker is the
// unchecked mode: every method on it reports Ok without looking at its
// arguments.
package safe

import "math"

// DefaultDivideEpsilon is the smallest denominator magnitude accepted by a
// checked division. Its reciprocal is still a finite float64.
const DefaultDivideEpsilon = 1e-300

// Config configures checked evaluation.
type Config struct {
	// DivideEpsilon is the denominator magnitude below which a division
	// reports DivideByZero.
	DivideEpsilon float64
}

// DefaultConfig returns the default safety configuration.
func DefaultConfig() Config {
	return Config{DivideEpsilon: DefaultDivideEpsilon}
}

// Checker applies the domain and finiteness rules of a Config.
type Checker struct {
	eps float64
}

// NewChecker creates a checker. A non-positive DivideEpsilon falls back to
// DefaultDivideEpsilon.
func NewChecker(cfg Config) *Checker {
	eps := cfg.DivideEpsilon
	if eps <= 0 {
		eps = DefaultDivideEpsilon
	}
	return &Checker{eps: eps}
}

// Enabled reports whether c performs any checking.
func (c *Checker) Enabled() bool { return c != nil }

// Epsilon returns the division threshold, 0 when unchecked.
func (c *Checker) Epsilon() float64 {
	if c == nil {
		return 0
	}
	return c.eps
}

// Finite classifies v, reporting Ok for every v when c is nil.
func (c *Checker) Finite(v float64) Kind {
	if c == nil {
		return Ok
	}
	return Classify(v)
}

// Classify reports NotANumber for NaN, Overflow for ±Inf and Ok otherwise.
func Classify(v float64) Kind {
	switch {
	case math.IsNaN(v):
		return NotANumber
	case math.IsInf(v, 0):
		return Overflow
	default:
		return Ok
	}
}

// Outcome is the result of one checked elementary operation.
type Outcome struct {
	Value float64
	Kind  Kind
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool { return o.Kind == Ok }

// Err returns the sentinel for a failed outcome, nil otherwise.
func (o Outcome) Err() error { return o.Kind.Err() }

func result(v float64) Outcome {
	return Outcome{Value: v, Kind: Classify(v)}
}

func fail(k Kind) Outcome {
	return Outcome{Value: math.NaN(), Kind: k}
}

// Elementary domain checks, shared with the operator rule table.

// CheckLog fails for x <= 0.
func CheckLog(x float64) Kind {
	if x <= 0 || math.IsNaN(x) {
		return DomainError
	}
	return Ok
}

// CheckDiv fails when |den| is below eps.
func CheckDiv(den, eps float64) Kind {
	if math.IsNaN(den) {
		return NotANumber
	}
	if math.Abs(den) < eps || den == 0 {
		return DivideByZero
	}
	return Ok
}

// CheckPow fails for a negative base with a non-integer exponent and for a
// zero base with a negative exponent.
func CheckPow(x, y float64) Kind {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return NotANumber
	case x < 0 && y != math.Trunc(y):
		return DomainError
	case x == 0 && y < 0:
		return DivideByZero
	default:
		return Ok
	}
}

// CheckSqrt fails for x < 0.
func CheckSqrt(x float64) Kind {
	if x < 0 {
		return DomainError
	}
	return Ok
}

// CheckClosedUnit fails outside [-1, 1].
func CheckClosedUnit(x float64) Kind {
	if x < -1 || x > 1 {
		return DomainError
	}
	return Ok
}

// CheckOpenUnit fails outside (-1, 1).
func CheckOpenUnit(x float64) Kind {
	if x <= -1 || x >= 1 {
		return DomainError
	}
	return Ok
}

// Checked elementary operations.

// Log returns ln(x).
func Log(x float64) Outcome {
	if k := CheckLog(x); k != Ok {
		return fail(k)
	}
	return result(math.Log(x))
}

// Pow returns x^y.
func Pow(x, y float64) Outcome {
	if k := CheckPow(x, y); k != Ok {
		return fail(k)
	}
	return result(math.Pow(x, y))
}

// Sqrt returns √x.
func Sqrt(x float64) Outcome {
	if k := CheckSqrt(x); k != Ok {
		return fail(k)
	}
	return result(math.Sqrt(x))
}

// Exp returns e^x.
func Exp(x float64) Outcome {
	return result(math.Exp(x))
}

// Div returns a/b, rejecting denominators below the checker epsilon. A nil
// checker uses DefaultDivideEpsilon.
func (c *Checker) Div(a, b float64) Outcome {
	eps := DefaultDivideEpsilon
	if c != nil {
		eps = c.eps
	}
	if k := CheckDiv(b, eps); k != Ok {
		return fail(k)
	}
	return result(a / b)
}

// Mul returns a*b.
func Mul(a, b float64) Outcome {
	return result(a * b)
}
