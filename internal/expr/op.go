package expr

import "fmt"

// Op identifies the operator carried by a UnaryOp or BinaryOp node.
//
// The set is closed: every Op has exactly one entry in the operator rule
// table used by the evaluators (see internal/autodiff/ops).
type Op uint8

// Binary operators.
const (
	OpNone Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow  // a^b with a real exponent
	OpIPow // a^n with a constant integer exponent

	// Unary operators.
	OpNeg
	OpSqr
	OpSqrt
	OpCube
	OpCbrt
	OpExp
	OpLn
	OpLnm // ln with a linear extension below LnmEpsilon
	OpLog10
	OpSin
	OpCos
	OpTan
	OpArcsin
	OpArccos
	OpArctan
	OpSinh
	OpCosh
	OpTanh
	OpArcsinh
	OpArccosh
	OpArctanh
	OpAbs
	OpErf
	OpHold // identity in value, constant for differentiation

	NumOps
)

// LnmEpsilon is the switch point of the modified logarithm OpLnm.
const LnmEpsilon = 1e-8

type opInfo struct {
	name  string
	arity int
	yacas string // function name in YACAS syntax, empty for infix operators
}

var opInfos = [NumOps]opInfo{
	OpNone:    {"none", 0, ""},
	OpAdd:     {"add", 2, ""},
	OpSub:     {"sub", 2, ""},
	OpMul:     {"mul", 2, ""},
	OpDiv:     {"div", 2, ""},
	OpPow:     {"pow", 2, ""},
	OpIPow:    {"ipow", 2, ""},
	OpNeg:     {"neg", 1, ""},
	OpSqr:     {"sqr", 1, ""},
	OpSqrt:    {"sqrt", 1, "Sqrt"},
	OpCube:    {"cube", 1, ""},
	OpCbrt:    {"cbrt", 1, ""},
	OpExp:     {"exp", 1, "Exp"},
	OpLn:      {"ln", 1, "Ln"},
	OpLnm:     {"lnm", 1, "Ln"},
	OpLog10:   {"log10", 1, ""},
	OpSin:     {"sin", 1, "Sin"},
	OpCos:     {"cos", 1, "Cos"},
	OpTan:     {"tan", 1, "Tan"},
	OpArcsin:  {"arcsin", 1, "ArcSin"},
	OpArccos:  {"arccos", 1, "ArcCos"},
	OpArctan:  {"arctan", 1, "ArcTan"},
	OpSinh:    {"sinh", 1, "Sinh"},
	OpCosh:    {"cosh", 1, "Cosh"},
	OpTanh:    {"tanh", 1, "Tanh"},
	OpArcsinh: {"arcsinh", 1, "ArcSinh"},
	OpArccosh: {"arccosh", 1, "ArcCosh"},
	OpArctanh: {"arctanh", 1, "ArcTanh"},
	OpAbs:     {"abs", 1, "Abs"},
	OpErf:     {"erf", 1, "Erf"},
	OpHold:    {"hold", 1, ""},
}

// String returns the lower-case operator name used in relation files.
func (o Op) String() string {
	if o < NumOps {
		return opInfos[o].name
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Arity returns 1 for unary operators, 2 for binary ones and 0 for OpNone.
func (o Op) Arity() int {
	if o < NumOps {
		return opInfos[o].arity
	}
	return 0
}

// IsUnary reports whether o takes a single operand.
func (o Op) IsUnary() bool { return o.Arity() == 1 }

// IsBinary reports whether o takes two operands.
func (o Op) IsBinary() bool { return o.Arity() == 2 }

// ParseOp maps an operator name back to its Op.
func ParseOp(name string) (Op, bool) {
	for o := OpAdd; o < NumOps; o++ {
		if opInfos[o].name == name {
			return o, true
		}
	}
	return OpNone, false
}

// Relop is the relational operator at the top of a relation.
type Relop uint8

// Relational operators. Objectives have no right-hand side.
const (
	RelEqual Relop = iota
	RelLess
	RelLessEqual
	RelGreater
	RelGreaterEqual
	RelNotEqual
	RelMaximize
	RelMinimize
)

var relopSymbols = [...]string{
	RelEqual:        "=",
	RelLess:         "<",
	RelLessEqual:    "<=",
	RelGreater:      ">",
	RelGreaterEqual: ">=",
	RelNotEqual:     "<>",
	RelMaximize:     "maximize",
	RelMinimize:     "minimize",
}

func (r Relop) String() string {
	if int(r) < len(relopSymbols) {
		return relopSymbols[r]
	}
	return fmt.Sprintf("Relop(%d)", uint8(r))
}

// IsObjective reports whether r is maximize or minimize.
func (r Relop) IsObjective() bool { return r == RelMaximize || r == RelMinimize }

// ParseRelop accepts the symbols produced by Relop.String and "==".
func ParseRelop(s string) (Relop, bool) {
	if s == "==" {
		return RelEqual, true
	}
	for i, sym := range relopSymbols {
		if sym == s {
			return Relop(i), true
		}
	}
	return RelEqual, false
}

// RelKind distinguishes evaluable token relations from the other relation
// representations an instance tree may hold.
type RelKind uint8

// Relation kinds. Only RelToken carries an operator DAG.
const (
	RelToken RelKind = iota
	RelOpcode
	RelGlassBox
	RelBlackBox
)

func (k RelKind) String() string {
	switch k {
	case RelToken:
		return "token"
	case RelOpcode:
		return "opcode"
	case RelGlassBox:
		return "glassbox"
	case RelBlackBox:
		return "blackbox"
	default:
		return fmt.Sprintf("RelKind(%d)", uint8(k))
	}
}
