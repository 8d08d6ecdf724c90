package autodiff

import (
	"github.com/born-ml/relad/internal/autodiff/ops"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// Backward runs the adjoint sweep over a recorded tape and accumulates
// ∂residual/∂x into grad, which must have NumVariables entries.
//
// Algorithm:
//  1. Seed the root adjoint with 1
//  2. Visit nodes in reverse topological order
//  3. Pass adjoint · local partial to every active operand, accumulating,
//     so a shared subexpression receives the sum over all its parents
//  4. Add the adjoint of every VarRef node to its gradient entry
//
// Cost is O(nodes), independent of the number of variables.
func (t *EvalTape) Backward(grad []float64, chk *safe.Checker) error {
	rel := t.rel
	adj := make([]float64, rel.NumNodes())
	adj[rel.Root()] = 1

	order := rel.Order()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		node := rel.Node(id)
		w := adj[id]

		switch node.Kind {
		case expr.KindVar:
			grad[node.Var-1] += w
			continue
		case expr.KindConst:
			continue
		}

		e := t.entries[id]
		if e.act&ops.ActiveLeft != 0 {
			adj[node.Left] += w * e.da
		}
		if e.act&ops.ActiveRight != 0 {
			adj[node.Right] += w * e.db
		}
		if chk.Enabled() {
			if k := t.checkAdjoints(adj, node, e.act, chk); k != safe.Ok {
				return trap(k, node, id, stageAdj, t.Value(node.Left), t.operandB(node))
			}
		}
	}

	if chk.Enabled() {
		for _, g := range grad {
			if k := chk.Finite(g); k != safe.Ok {
				return &safe.Error{Kind: k, Op: "gradient", Node: -1, Stage: stageAdj}
			}
		}
	}
	return nil
}

func (t *EvalTape) checkAdjoints(adj []float64, node expr.Node, act ops.Active, chk *safe.Checker) safe.Kind {
	if act&ops.ActiveLeft != 0 {
		if k := chk.Finite(adj[node.Left]); k != safe.Ok {
			return k
		}
	}
	if act&ops.ActiveRight != 0 {
		return chk.Finite(adj[node.Right])
	}
	return safe.Ok
}

func (t *EvalTape) operandB(node expr.Node) float64 {
	if node.Kind == expr.KindBinary {
		return t.Value(node.Right)
	}
	return 0
}

// reverseEval evaluates rel at x with the two-phase tape algorithm. The
// residual is bit-identical to forwardEval's, since both apply the same rule
// table in the same order.
func reverseEval(rel *expr.Relation, x []float64, mode Mode, chk *safe.Checker) (Result, error) {
	tape := NewEvalTape(rel)
	if err := tape.Forward(x, mode == WithGradient, chk); err != nil {
		return Result{}, err
	}
	res := Result{Residual: tape.Residual()}
	if mode == ValueOnly {
		return res, nil
	}
	res.Gradient = make([]float64, rel.NumVariables())
	if err := tape.Backward(res.Gradient, chk); err != nil {
		return Result{}, err
	}
	return res, nil
}
