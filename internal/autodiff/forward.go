package autodiff

import (
	"github.com/born-ml/relad/internal/autodiff/ops"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// forwardEval evaluates rel at x in a single bottom-up pass over the cached
// topological order.
//
// In WithGradient mode every active node carries a derivative vector of
// length NumVariables:
//   - a VarRef node seeds a one-hot vector
//   - an operator node combines its operands as
//     d y = ∂y/∂a · d a + ∂y/∂b · d b, element-wise
//
// Constant subtrees carry no vector and are treated as all-zero. The cost is
// O(nodes × variables).
//
// With a non-nil chk the first trapped check aborts the walk.
func forwardEval(rel *expr.Relation, x []float64, mode Mode, chk *safe.Checker) (Result, error) {
	n := rel.NumVariables()
	vals := make([]float64, rel.NumNodes())
	var derivs [][]float64
	if mode == WithGradient {
		derivs = make([][]float64, rel.NumNodes())
	}

	for _, id := range rel.Order() {
		node := rel.Node(id)

		if node.Kind == expr.KindConst || node.Kind == expr.KindVar {
			vals[id] = leafValue(node, x)
			if derivs != nil && node.Kind == expr.KindVar {
				d := make([]float64, n)
				d[node.Var-1] = 1
				derivs[id] = d
			}
			continue
		}

		rule := ops.Lookup(node.Op)
		a, b := operands(vals, node)
		y, k := rule.Value(a, b, chk)
		if k != safe.Ok {
			return Result{}, trap(k, node, id, stageValue, a, b)
		}
		vals[id] = y

		if derivs == nil || !rel.Active(id) {
			continue
		}
		act := activity(rel, node)
		da, db, k := rule.Partials(a, b, y, act, chk)
		if k != safe.Ok {
			return Result{}, trap(k, node, id, stageFirst, a, b)
		}

		d := make([]float64, n)
		if act&ops.ActiveLeft != 0 {
			for i, v := range derivs[node.Left] {
				d[i] = da * v
			}
		}
		if act&ops.ActiveRight != 0 {
			for i, v := range derivs[node.Right] {
				d[i] += db * v
			}
		}
		if chk.Enabled() {
			for _, v := range d {
				if k := chk.Finite(v); k != safe.Ok {
					return Result{}, trap(k, node, id, stageFirst, a, b)
				}
			}
		}
		derivs[id] = d
	}

	root := rel.Root()
	res := Result{Residual: vals[root]}
	if derivs != nil {
		res.Gradient = derivs[root]
		if res.Gradient == nil {
			res.Gradient = make([]float64, n)
		}
	}
	return res, nil
}
