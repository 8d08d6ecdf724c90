package verify

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/num/hyperdual"

	"github.com/born-ml/relad/internal/expr"
)

// errUnsupported marks relations using an operator with no dual-number
// rendition; the exact oracle skips them.
var errUnsupported = errors.New("verify: operator has no dual-number form")

// arith is the arithmetic a dual-number type provides. The oracle
// reinterprets a relation DAG over it, independently of the rule table.
type arith[N any] struct {
	konst   func(float64) N
	real    func(N) float64
	add     func(a, b N) N
	sub     func(a, b N) N
	mul     func(a, b N) N
	pow     func(a, b N) N
	powReal func(a N, p float64) N
	inv     func(N) N
	sqrt    func(N) N
	exp     func(N) N
	log     func(N) N
	sin     func(N) N
	cos     func(N) N
	tan     func(N) N
	asin    func(N) N
	acos    func(N) N
	atan    func(N) N
	sinh    func(N) N
	cosh    func(N) N
	tanh    func(N) N
	asinh   func(N) N
	acosh   func(N) N
	atanh   func(N) N
}

var dualArith = arith[dual.Number]{
	konst:   func(v float64) dual.Number { return dual.Number{Real: v} },
	real:    func(n dual.Number) float64 { return n.Real },
	add:     dual.Add,
	sub:     dual.Sub,
	mul:     dual.Mul,
	pow:     dual.Pow,
	powReal: dual.PowReal,
	inv:     dual.Inv,
	sqrt:    dual.Sqrt,
	exp:     dual.Exp,
	log:     dual.Log,
	sin:     dual.Sin,
	cos:     dual.Cos,
	tan:     dual.Tan,
	asin:    dual.Asin,
	acos:    dual.Acos,
	atan:    dual.Atan,
	sinh:    dual.Sinh,
	cosh:    dual.Cosh,
	tanh:    dual.Tanh,
	asinh:   dual.Asinh,
	acosh:   dual.Acosh,
	atanh:   dual.Atanh,
}

var hyperdualArith = arith[hyperdual.Number]{
	konst:   func(v float64) hyperdual.Number { return hyperdual.Number{Real: v} },
	real:    func(n hyperdual.Number) float64 { return n.Real },
	add:     hyperdual.Add,
	sub:     hyperdual.Sub,
	mul:     hyperdual.Mul,
	pow:     hyperdual.Pow,
	powReal: hyperdual.PowReal,
	inv:     hyperdual.Inv,
	sqrt:    hyperdual.Sqrt,
	exp:     hyperdual.Exp,
	log:     hyperdual.Log,
	sin:     hyperdual.Sin,
	cos:     hyperdual.Cos,
	tan:     hyperdual.Tan,
	asin:    hyperdual.Asin,
	acos:    hyperdual.Acos,
	atan:    hyperdual.Atan,
	sinh:    hyperdual.Sinh,
	cosh:    hyperdual.Cosh,
	tanh:    hyperdual.Tanh,
	asinh:   hyperdual.Asinh,
	acosh:   hyperdual.Acosh,
	atanh:   hyperdual.Atanh,
}

// interpret evaluates rel over ar, with seed supplying the number for each
// 0-based variable.
func interpret[N any](ar *arith[N], rel *expr.Relation, seed func(i int) N) (N, error) {
	vals := make([]N, rel.NumNodes())
	for _, id := range rel.Order() {
		node := rel.Node(id)
		switch node.Kind {
		case expr.KindConst:
			vals[id] = ar.konst(node.Value)
			continue
		case expr.KindVar:
			vals[id] = seed(node.Var - 1)
			continue
		}

		a := vals[node.Left]
		var b N
		if node.Kind == expr.KindBinary {
			b = vals[node.Right]
		}
		v, err := ar.apply(node.Op, a, b, rel.Active(node.Right))
		if err != nil {
			var zero N
			return zero, fmt.Errorf("%w: %s at node %d", err, node.Op, id)
		}
		vals[id] = v
	}
	return vals[rel.Root()], nil
}

func (ar *arith[N]) apply(op expr.Op, a, b N, rightActive bool) (N, error) {
	zero := ar.konst(0)
	switch op {
	case expr.OpAdd:
		return ar.add(a, b), nil
	case expr.OpSub:
		return ar.sub(a, b), nil
	case expr.OpMul:
		return ar.mul(a, b), nil
	case expr.OpDiv:
		return ar.mul(a, ar.inv(b)), nil
	case expr.OpPow:
		if !rightActive {
			return ar.powReal(a, ar.real(b)), nil
		}
		return ar.pow(a, b), nil
	case expr.OpIPow:
		return ar.powReal(a, ar.real(b)), nil
	case expr.OpNeg:
		return ar.sub(zero, a), nil
	case expr.OpSqr:
		return ar.mul(a, a), nil
	case expr.OpCube:
		return ar.mul(ar.mul(a, a), a), nil
	case expr.OpSqrt:
		return ar.sqrt(a), nil
	case expr.OpCbrt:
		if ar.real(a) < 0 {
			return ar.sub(zero, ar.powReal(ar.sub(zero, a), 1.0/3)), nil
		}
		return ar.powReal(a, 1.0/3), nil
	case expr.OpExp:
		return ar.exp(a), nil
	case expr.OpLn:
		return ar.log(a), nil
	case expr.OpLnm:
		if ar.real(a) > expr.LnmEpsilon {
			return ar.log(a), nil
		}
		return ar.add(ar.mul(a, ar.konst(1/expr.LnmEpsilon)), ar.konst(math.Log(expr.LnmEpsilon)-1)), nil
	case expr.OpLog10:
		return ar.mul(ar.log(a), ar.konst(1/math.Ln10)), nil
	case expr.OpSin:
		return ar.sin(a), nil
	case expr.OpCos:
		return ar.cos(a), nil
	case expr.OpTan:
		return ar.tan(a), nil
	case expr.OpArcsin:
		return ar.asin(a), nil
	case expr.OpArccos:
		return ar.acos(a), nil
	case expr.OpArctan:
		return ar.atan(a), nil
	case expr.OpSinh:
		return ar.sinh(a), nil
	case expr.OpCosh:
		return ar.cosh(a), nil
	case expr.OpTanh:
		return ar.tanh(a), nil
	case expr.OpArcsinh:
		return ar.asinh(a), nil
	case expr.OpArccosh:
		return ar.acosh(a), nil
	case expr.OpArctanh:
		return ar.atanh(a), nil
	case expr.OpAbs:
		if ar.real(a) < 0 {
			return ar.sub(zero, a), nil
		}
		return a, nil
	case expr.OpHold:
		return ar.konst(ar.real(a)), nil
	default:
		return zero, errUnsupported
	}
}

// exactGradient returns the gradient of rel at x by forward dual-number
// evaluation, one pass per variable.
func exactGradient(rel *expr.Relation, x []float64) ([]float64, error) {
	grad := make([]float64, len(x))
	for i := range x {
		v, err := interpret(&dualArith, rel, func(k int) dual.Number {
			n := dual.Number{Real: x[k]}
			if k == i {
				n.Emag = 1
			}
			return n
		})
		if err != nil {
			return nil, err
		}
		grad[i] = v.Emag
	}
	return grad, nil
}

// exactHessian returns the Hessian of rel at x by hyperdual evaluation, one
// pass per entry of the upper triangle.
func exactHessian(rel *expr.Relation, x []float64) ([][]float64, error) {
	n := len(x)
	h := make([][]float64, n)
	for i := range h {
		h[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, err := interpret(&hyperdualArith, rel, func(k int) hyperdual.Number {
				num := hyperdual.Number{Real: x[k]}
				if k == i {
					num.E1mag = 1
				}
				if k == j {
					num.E2mag = 1
				}
				return num
			})
			if err != nil {
				return nil, err
			}
			h[i][j] = v.E1E2mag
			h[j][i] = v.E1E2mag
		}
	}
	return h, nil
}
