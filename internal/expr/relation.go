// Package expr holds the immutable operator DAG of a relation.
//
// A Relation owns an arena of Nodes addressed by NodeID, the ordered list of
// incident variables its VarRef nodes point into, and two pieces of derived
// structure computed once at construction:
//   - a topological order of the nodes reachable from the root (children
//     before parents), which the evaluators walk forwards and backwards;
//   - the set of variable indices reachable from every node, which tells the
//     evaluators which operands are constant subtrees.
//
// Nothing in this package mutates a Relation after it has been built, so a
// relation may be evaluated from many goroutines at once.
package expr

import "math"

// Variable is an external binding read by a relation. The engine only reads
// Value; the owner of the variable serializes writes against evaluation.
type Variable interface {
	Name() string
	Value() float64
}

// Real is a plain named real variable.
type Real struct {
	name  string
	value float64
}

// NewReal creates a named variable holding v.
func NewReal(name string, v float64) *Real {
	return &Real{name: name, value: v}
}

// Name returns the variable name.
func (r *Real) Name() string { return r.name }

// Value returns the current value.
func (r *Real) Value() float64 { return r.value }

// Set replaces the current value.
func (r *Real) Set(v float64) { r.value = v }

// Relation is one compiled constraint: an operator DAG plus its incidence list.
type Relation struct {
	name  string
	kind  RelKind
	relop Relop
	nodes []Node
	root  NodeID
	lhs   NodeID
	rhs   NodeID
	vars  []Variable

	order []NodeID  // reachable nodes, children before parents
	incid [][]int32 // per node, sorted 1-based variable indices
}

// New validates a node arena and wraps it into a token relation whose residual
// is the value of root. vars is the incidence list; VarRef nodes index into it
// starting at 1.
func New(name string, nodes []Node, root NodeID, vars []Variable) (*Relation, error) {
	r := &Relation{
		name:  name,
		kind:  RelToken,
		relop: RelEqual,
		nodes: nodes,
		root:  root,
		lhs:   root,
		rhs:   NoNode,
		vars:  vars,
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewOpaque creates a relation of a non-token kind. It has no operator DAG and
// is rejected by the evaluators.
func NewOpaque(name string, kind RelKind, vars []Variable) *Relation {
	return &Relation{name: name, kind: kind, root: NoNode, lhs: NoNode, rhs: NoNode, vars: vars}
}

// Name returns the relation name.
func (r *Relation) Name() string { return r.name }

// Kind returns the relation representation kind.
func (r *Relation) Kind() RelKind { return r.kind }

// IsToken reports whether the relation carries an evaluable operator DAG.
func (r *Relation) IsToken() bool { return r.kind == RelToken && r.root != NoNode }

// Relop returns the relational operator.
func (r *Relation) Relop() Relop { return r.relop }

// NumVariables returns the length of the incidence list.
func (r *Relation) NumVariables() int { return len(r.vars) }

// Variable returns the variable bound to the 1-based index i.
func (r *Relation) Variable(i int) Variable {
	return r.vars[i-1]
}

// NumNodes returns the arena size, including unreachable nodes.
func (r *Relation) NumNodes() int { return len(r.nodes) }

// Node returns the node stored under id.
func (r *Relation) Node(id NodeID) Node { return r.nodes[id] }

// Root returns the node whose value is the residual.
func (r *Relation) Root() NodeID { return r.root }

// Sides returns the left- and right-hand side nodes. rhs is NoNode for
// objectives and for relations built directly from a residual expression.
func (r *Relation) Sides() (lhs, rhs NodeID) { return r.lhs, r.rhs }

// Order returns the reachable nodes in topological order, children first.
// The slice is shared and must not be modified.
func (r *Relation) Order() []NodeID { return r.order }

// Incidence returns the sorted 1-based variable indices reachable from id.
// The slice is shared and must not be modified.
func (r *Relation) Incidence(id NodeID) []int32 { return r.incid[id] }

// Active reports whether any variable is reachable from id.
func (r *Relation) Active(id NodeID) bool {
	return id != NoNode && len(r.incid[id]) > 0
}

// Values snapshots the current variable values into dst (grown as needed),
// indexed from 0.
func (r *Relation) Values(dst []float64) []float64 {
	if cap(dst) < len(r.vars) {
		dst = make([]float64, len(r.vars))
	}
	dst = dst[:len(r.vars)]
	for i, v := range r.vars {
		dst[i] = v.Value()
	}
	return dst
}

// compile validates the arena, then caches the topological order and the
// per-node incidence sets.
func (r *Relation) compile() error {
	n := NodeID(len(r.nodes))
	if r.root < 0 || r.root >= n {
		return &StructuralError{Node: r.root, Reason: ErrEmptyRelation}
	}
	for id, node := range r.nodes {
		if err := r.checkNode(NodeID(id), node); err != nil {
			return err
		}
	}

	order, err := topoOrder(r.nodes, r.root)
	if err != nil {
		return err
	}
	r.order = order

	r.incid = make([][]int32, len(r.nodes))
	for _, id := range order {
		node := r.nodes[id]
		switch node.Kind {
		case KindVar:
			r.incid[id] = []int32{int32(node.Var)}
		case KindUnary:
			if node.Op == OpHold {
				continue
			}
			r.incid[id] = r.incid[node.Left]
		case KindBinary:
			right := r.incid[node.Right]
			if node.Op == OpIPow {
				right = nil
			}
			r.incid[id] = mergeSorted(r.incid[node.Left], right)
		}
	}
	return nil
}

func (r *Relation) checkNode(id NodeID, node Node) error {
	n := NodeID(len(r.nodes))
	inRange := func(c NodeID) bool { return c >= 0 && c < n }

	switch node.Kind {
	case KindConst:
		return nil
	case KindVar:
		if node.Var < 1 || node.Var > len(r.vars) {
			return structural(id, ErrVarIndex, "index %d, relation has %d variables", node.Var, len(r.vars))
		}
		return nil
	case KindUnary:
		if !node.Op.IsUnary() {
			return structural(id, ErrArity, "%s used as unary operator", node.Op)
		}
		if !inRange(node.Left) {
			return structural(id, ErrDangling, "operand %d", node.Left)
		}
		return nil
	case KindBinary:
		if !node.Op.IsBinary() {
			return structural(id, ErrArity, "%s used as binary operator", node.Op)
		}
		if !inRange(node.Left) || !inRange(node.Right) {
			return structural(id, ErrDangling, "operands %d, %d", node.Left, node.Right)
		}
		if node.Op == OpIPow {
			exp := r.nodes[node.Right]
			if exp.Kind != KindConst || exp.Value != math.Trunc(exp.Value) || math.IsInf(exp.Value, 0) {
				return structural(id, ErrIPowExponent, "exponent node %d", node.Right)
			}
		}
		return nil
	default:
		return structural(id, ErrArity, "unknown node kind %s", node.Kind)
	}
}

// topoOrder runs an iterative depth-first search from root and returns the
// post-order, failing on back edges.
func topoOrder(nodes []Node, root NodeID) ([]NodeID, error) {
	const (
		unvisited = iota
		onStack
		done
	)
	type frame struct {
		id   NodeID
		next int
	}

	state := make([]uint8, len(nodes))
	order := make([]NodeID, 0, len(nodes))
	stack := []frame{{id: root}}
	state[root] = onStack

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		node := nodes[top.id]
		if top.next < node.NumChildren() {
			child := node.Child(top.next)
			top.next++
			switch state[child] {
			case onStack:
				return nil, structural(top.id, ErrCycle, "edge to %d", child)
			case unvisited:
				state[child] = onStack
				stack = append(stack, frame{id: child})
			}
			continue
		}
		state[top.id] = done
		order = append(order, top.id)
		stack = stack[:len(stack)-1]
	}
	return order, nil
}

func mergeSorted(a, b []int32) []int32 {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]int32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
