package autodiff

import (
	"slices"

	"github.com/born-ml/relad/internal/autodiff/ops"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// secondEntry holds the forward-phase state of one node for a
// second-derivative row: value, tangent along the outer variable, local
// partials and their tangents.
type secondEntry struct {
	value   float64
	tangent float64 // d value / d x_outer
	da, db  float64
	dda     float64 // d da / d x_outer
	ddb     float64 // d db / d x_outer
	act     ops.Active
}

// secondRow computes row outer (0-based) of the Hessian of rel at x, that is
// ∂²r/∂x_outer∂x_j for every j, together with the gradient, by
// forward-over-reverse differentiation.
//
// The forward phase carries each node's tangent t = ∂v/∂x_outer and the
// tangents of its local partials:
//
//	ṗa = f_aa·t_a + f_ab·t_b
//	ṗb = f_ab·t_a + f_bb·t_b
//
// The reverse phase seeds λ_root = 1 and λ̇_root = 0 and propagates
//
//	λ_c += λ·p_c
//	λ̇_c += λ̇·p_c + λ·ṗ_c
//
// so that λ̇ at a VarRef j is its contribution to ∂²r/∂x_outer∂x_j. Nodes
// that do not depend on x_outer have zero tangents and skip their second
// partials. Cost is O(nodes) per row.
func secondRow(rel *expr.Relation, x []float64, outer int, chk *safe.Checker) (row, grad []float64, err error) {
	outerVar := int32(outer + 1)
	entries := make([]secondEntry, rel.NumNodes())

	for _, id := range rel.Order() {
		node := rel.Node(id)
		e := &entries[id]

		switch node.Kind {
		case expr.KindConst:
			e.value = node.Value
			continue
		case expr.KindVar:
			e.value = x[node.Var-1]
			if node.Var == int(outerVar) {
				e.tangent = 1
			}
			continue
		}

		rule := ops.Lookup(node.Op)
		a := entries[node.Left].value
		var b float64
		if node.Kind == expr.KindBinary {
			b = entries[node.Right].value
		}
		y, k := rule.Value(a, b, chk)
		if k != safe.Ok {
			return nil, nil, trap(k, node, id, stageValue, a, b)
		}
		e.value = y

		if !rel.Active(id) {
			continue
		}
		e.act = activity(rel, node)
		e.da, e.db, k = rule.Partials(a, b, y, e.act, chk)
		if k != safe.Ok {
			return nil, nil, trap(k, node, id, stageFirst, a, b)
		}

		if !incident(rel.Incidence(id), outerVar) {
			continue
		}
		daa, dab, dbb, k := rule.SecondPartials(a, b, y, e.act, chk)
		if k != safe.Ok {
			return nil, nil, trap(k, node, id, stageSecond, a, b)
		}

		var ta, tb float64
		if e.act&ops.ActiveLeft != 0 {
			ta = entries[node.Left].tangent
		}
		if e.act&ops.ActiveRight != 0 {
			tb = entries[node.Right].tangent
		}
		e.tangent = e.da*ta + e.db*tb
		e.dda = daa*ta + dab*tb
		e.ddb = dab*ta + dbb*tb
		if chk.Enabled() {
			for _, v := range [...]float64{e.tangent, e.dda, e.ddb} {
				if k := chk.Finite(v); k != safe.Ok {
					return nil, nil, trap(k, node, id, stageSecond, a, b)
				}
			}
		}
	}

	n := rel.NumVariables()
	row = make([]float64, n)
	grad = make([]float64, n)
	adj := make([]float64, rel.NumNodes())
	dadj := make([]float64, rel.NumNodes())
	adj[rel.Root()] = 1

	order := rel.Order()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		node := rel.Node(id)
		w, dw := adj[id], dadj[id]

		switch node.Kind {
		case expr.KindVar:
			grad[node.Var-1] += w
			row[node.Var-1] += dw
			continue
		case expr.KindConst:
			continue
		}

		e := entries[id]
		if e.act&ops.ActiveLeft != 0 {
			adj[node.Left] += w * e.da
			dadj[node.Left] += dw*e.da + w*e.dda
		}
		if e.act&ops.ActiveRight != 0 {
			adj[node.Right] += w * e.db
			dadj[node.Right] += dw*e.db + w*e.ddb
		}
		if chk.Enabled() {
			if k := checkSecondAdjoints(adj, dadj, node, e.act, chk); k != safe.Ok {
				return nil, nil, trap(k, node, id, stageAdj, entries[node.Left].value, 0)
			}
		}
	}
	return row, grad, nil
}

func checkSecondAdjoints(adj, dadj []float64, node expr.Node, act ops.Active, chk *safe.Checker) safe.Kind {
	for _, c := range [...]struct {
		id   expr.NodeID
		flag ops.Active
	}{{node.Left, ops.ActiveLeft}, {node.Right, ops.ActiveRight}} {
		if act&c.flag == 0 {
			continue
		}
		if k := chk.Finite(adj[c.id]); k != safe.Ok {
			return k
		}
		if k := chk.Finite(dadj[c.id]); k != safe.Ok {
			return k
		}
	}
	return safe.Ok
}

// incident reports whether variable v appears in the sorted incidence set.
func incident(set []int32, v int32) bool {
	_, found := slices.BinarySearch(set, v)
	return found
}
