package ops

import "github.com/born-ml/relad/internal/expr"

// table is indexed by expr.Op. Entries are copied from the per-family rule
// variables and stamped with their operator in init.
var table = [expr.NumOps]Rule{
	expr.OpAdd:  addRule,
	expr.OpSub:  subRule,
	expr.OpMul:  mulRule,
	expr.OpDiv:  divRule,
	expr.OpPow:  powRule,
	expr.OpIPow: ipowRule,

	expr.OpNeg:     negRule,
	expr.OpSqr:     sqrRule,
	expr.OpSqrt:    sqrtRule,
	expr.OpCube:    cubeRule,
	expr.OpCbrt:    cbrtRule,
	expr.OpExp:     expRule,
	expr.OpLn:      lnRule,
	expr.OpLnm:     lnmRule,
	expr.OpLog10:   log10Rule,
	expr.OpSin:     sinRule,
	expr.OpCos:     cosRule,
	expr.OpTan:     tanRule,
	expr.OpArcsin:  arcsinRule,
	expr.OpArccos:  arccosRule,
	expr.OpArctan:  arctanRule,
	expr.OpSinh:    sinhRule,
	expr.OpCosh:    coshRule,
	expr.OpTanh:    tanhRule,
	expr.OpArcsinh: arcsinhRule,
	expr.OpArccosh: arccoshRule,
	expr.OpArctanh: arctanhRule,
	expr.OpAbs:     absRule,
	expr.OpErf:     erfRule,
	expr.OpHold:    holdRule,
}

func init() {
	for op := range table {
		table[op].Op = expr.Op(op)
	}
}
