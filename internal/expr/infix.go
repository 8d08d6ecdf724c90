package expr

import (
	"strconv"
	"strings"
)

// Style selects the dialect used by Infix.
type Style uint8

// Export styles.
const (
	// StylePlain uses the operator names of the relation files.
	StylePlain Style = iota
	// StyleYacas produces input for the YACAS computer algebra system.
	StyleYacas
)

// Namer maps a 1-based variable index to the name printed for it.
type Namer func(i int) string

// XName names variables x1, x2, ... in incidence order.
func XName(i int) string { return "x" + strconv.Itoa(i) }

// VariableNamer names variables after their bindings.
func (r *Relation) VariableNamer() Namer {
	return func(i int) string { return r.vars[i-1].Name() }
}

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Infix renders the whole relation, for example "x * x = 4".
func (r *Relation) Infix(style Style, name Namer) string {
	if !r.IsToken() {
		return r.kind.String() + " relation " + r.name
	}
	if r.relop.IsObjective() {
		return r.relop.String() + " " + r.ExprInfix(r.lhs, style, name)
	}
	if r.rhs == NoNode {
		return r.ExprInfix(r.lhs, style, name) + " " + r.relop.String() + " 0"
	}
	return r.ExprInfix(r.lhs, style, name) + " " + r.relop.String() + " " + r.ExprInfix(r.rhs, style, name)
}

// ResidualInfix renders the residual expression (the root node).
func (r *Relation) ResidualInfix(style Style, name Namer) string {
	if !r.IsToken() {
		return ""
	}
	return r.ExprInfix(r.root, style, name)
}

// ExprInfix renders the subexpression rooted at id. Shared subexpressions
// are printed once per use.
func (r *Relation) ExprInfix(id NodeID, style Style, name Namer) string {
	var sb strings.Builder
	w := infixWriter{rel: r, style: style, name: name, sb: &sb}
	w.write(id)
	return sb.String()
}

// String renders the relation in plain style with the variable names.
func (r *Relation) String() string {
	return r.Infix(StylePlain, r.VariableNamer())
}

// YacasDerivatives returns the YACAS requests for every first partial,
// "D(x1) (expr)", and every second partial, "D(x1) D(x2) (expr)", in row order.
func (r *Relation) YacasDerivatives() (first, second []string) {
	body := r.ResidualInfix(StyleYacas, XName)
	n := r.NumVariables()
	first = make([]string, 0, n)
	second = make([]string, 0, n*n)
	for i := 1; i <= n; i++ {
		first = append(first, "D("+XName(i)+") ("+body+")")
		for j := 1; j <= n; j++ {
			second = append(second, "D("+XName(i)+") D("+XName(j)+") ("+body+")")
		}
	}
	return first, second
}

type infixWriter struct {
	rel   *Relation
	style Style
	name  Namer
	sb    *strings.Builder
}

func (w *infixWriter) prec(id NodeID) int {
	n := w.rel.nodes[id]
	switch n.Kind {
	case KindConst:
		if n.Value < 0 {
			return precUnary
		}
		return precAtom
	case KindVar:
		return precAtom
	case KindUnary:
		switch n.Op {
		case OpNeg:
			return precUnary
		case OpHold:
			if w.style == StyleYacas {
				return w.prec(n.Left)
			}
		case OpSqr, OpCube, OpCbrt:
			if w.style == StyleYacas {
				return precPower
			}
		case OpLog10:
			if w.style == StyleYacas {
				return precProduct
			}
		}
		return precAtom
	default:
		switch n.Op {
		case OpAdd, OpSub:
			return precSum
		case OpMul, OpDiv:
			return precProduct
		default:
			return precPower
		}
	}
}

// operand writes id, wrapped in parentheses when its precedence is below least.
func (w *infixWriter) operand(id NodeID, least int) {
	if w.prec(id) < least {
		w.sb.WriteByte('(')
		w.write(id)
		w.sb.WriteByte(')')
		return
	}
	w.write(id)
}

func (w *infixWriter) call(fn string, id NodeID) {
	w.sb.WriteString(fn)
	w.sb.WriteByte('(')
	w.write(id)
	w.sb.WriteByte(')')
}

func (w *infixWriter) write(id NodeID) {
	n := w.rel.nodes[id]
	switch n.Kind {
	case KindConst:
		w.sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case KindVar:
		w.sb.WriteString(w.name(n.Var))
	case KindUnary:
		w.writeUnary(n)
	case KindBinary:
		w.writeBinary(n)
	}
}

func (w *infixWriter) writeUnary(n Node) {
	if n.Op == OpNeg {
		w.sb.WriteByte('-')
		w.operand(n.Left, precUnary+1)
		return
	}
	if w.style == StylePlain {
		w.call(n.Op.String(), n.Left)
		return
	}
	switch n.Op {
	case OpSqr:
		w.operand(n.Left, precAtom)
		w.sb.WriteString("^2")
	case OpCube:
		w.operand(n.Left, precAtom)
		w.sb.WriteString("^3")
	case OpCbrt:
		w.operand(n.Left, precAtom)
		w.sb.WriteString("^(1/3)")
	case OpLog10:
		w.call("Ln", n.Left)
		w.sb.WriteString(" / Ln(10)")
	case OpHold:
		w.write(n.Left)
	default:
		w.call(opInfos[n.Op].yacas, n.Left)
	}
}

func (w *infixWriter) writeBinary(n Node) {
	switch n.Op {
	case OpAdd:
		w.operand(n.Left, precSum)
		w.sb.WriteString(" + ")
		w.operand(n.Right, precSum)
	case OpSub:
		w.operand(n.Left, precSum)
		w.sb.WriteString(" - ")
		w.operand(n.Right, precSum+1)
	case OpMul:
		w.operand(n.Left, precProduct)
		w.sb.WriteString(" * ")
		w.operand(n.Right, precProduct)
	case OpDiv:
		w.operand(n.Left, precProduct)
		w.sb.WriteString(" / ")
		w.operand(n.Right, precProduct+1)
	default:
		w.operand(n.Left, precAtom)
		w.sb.WriteByte('^')
		w.operand(n.Right, precPower)
	}
}
