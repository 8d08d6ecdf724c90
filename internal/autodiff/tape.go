package autodiff

import (
	"github.com/born-ml/relad/internal/autodiff/ops"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/safe"
)

// EvalTape records the forward phase of a reverse-mode evaluation: for every
// node visited, its value and the local partials of its value with respect
// to its operands. The backward phase replays the tape in reverse.
//
// A tape belongs to a single evaluation call and is discarded when the call
// returns; adjoints are never shared between calls.
//
// Usage:
//
//	tape := NewEvalTape(rel)
//	if err := tape.Forward(x, true, chk); err != nil { ... }
//	grad := make([]float64, rel.NumVariables())
//	err := tape.Backward(grad, chk)
type EvalTape struct {
	rel     *expr.Relation
	entries []tapeEntry // indexed by node handle
	ops     int         // number of recorded entries
}

type tapeEntry struct {
	value float64
	da    float64
	db    float64
	act   ops.Active
}

// NewEvalTape creates an empty tape for rel.
func NewEvalTape(rel *expr.Relation) *EvalTape {
	return &EvalTape{
		rel:     rel,
		entries: make([]tapeEntry, rel.NumNodes()),
	}
}

// Record stores the forward value and local partials of node id.
func (t *EvalTape) Record(id expr.NodeID, value, da, db float64, act ops.Active) {
	t.entries[id] = tapeEntry{value: value, da: da, db: db, act: act}
	t.ops++
}

// NumOps returns the number of recorded entries.
func (t *EvalTape) NumOps() int {
	return t.ops
}

// Value returns the recorded value of node id.
func (t *EvalTape) Value(id expr.NodeID) float64 {
	return t.entries[id].value
}

// Residual returns the recorded value of the root node.
func (t *EvalTape) Residual() float64 {
	return t.entries[t.rel.Root()].value
}

// Forward walks the DAG once at x, recording every node. Local partials are
// recorded only when partials is true. Cost is O(nodes).
func (t *EvalTape) Forward(x []float64, partials bool, chk *safe.Checker) error {
	rel := t.rel
	vals := make([]float64, rel.NumNodes())

	for _, id := range rel.Order() {
		node := rel.Node(id)

		if node.Kind == expr.KindConst || node.Kind == expr.KindVar {
			vals[id] = leafValue(node, x)
			t.Record(id, vals[id], 0, 0, 0)
			continue
		}

		rule := ops.Lookup(node.Op)
		a, b := operands(vals, node)
		y, k := rule.Value(a, b, chk)
		if k != safe.Ok {
			return trap(k, node, id, stageValue, a, b)
		}
		vals[id] = y

		var act ops.Active
		var da, db float64
		if partials && rel.Active(id) {
			act = activity(rel, node)
			da, db, k = rule.Partials(a, b, y, act, chk)
			if k != safe.Ok {
				return trap(k, node, id, stageFirst, a, b)
			}
		}
		t.Record(id, y, da, db, act)
	}
	return nil
}
