package autodiff

import (
	"github.com/born-ml/relad/internal/autodiff/ops"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// activity returns the operands of node that have variables below them.
func activity(rel *expr.Relation, node expr.Node) ops.Active {
	var act ops.Active
	if rel.Active(node.Left) {
		act |= ops.ActiveLeft
	}
	if node.Kind == expr.KindBinary && rel.Active(node.Right) {
		act |= ops.ActiveRight
	}
	return act
}

// operands returns the operand values of an operator node.
func operands(vals []float64, node expr.Node) (a, b float64) {
	a = vals[node.Left]
	if node.Kind == expr.KindBinary {
		b = vals[node.Right]
	}
	return a, b
}

// leafValue returns the value of a constant or variable node.
func leafValue(node expr.Node, x []float64) float64 {
	if node.Kind == expr.KindConst {
		return node.Value
	}
	return x[node.Var-1]
}

// Stages reported in safe.Error.
const (
	stageValue  = "value"
	stageFirst  = "derivative"
	stageSecond = "second derivative"
	stageAdj    = "adjoint"
)

func trap(k safe.Kind, node expr.Node, id expr.NodeID, stage string, a, b float64) error {
	e := &safe.Error{Kind: k, Node: int(id), Stage: stage}
	switch node.Kind {
	case expr.KindUnary:
		e.Op = node.Op.String()
		e.Args = []float64{a}
	case expr.KindBinary:
		e.Op = node.Op.String()
		e.Args = []float64{a, b}
	default:
		e.Op = node.Kind.String()
	}
	return e
}
