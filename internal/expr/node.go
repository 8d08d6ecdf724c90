package expr

import "fmt"

// Kind is the type tag of a Node.
type Kind uint8

// Node kinds.
const (
	KindConst Kind = iota
	KindVar
	KindUnary
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// NodeID is a handle into a relation's node arena.
type NodeID int32

// NoNode marks an absent child.
const NoNode NodeID = -1

// Node is one vertex of a relation DAG. Children are referenced by handle, so
// a shared subexpression is stored once and may have several parents.
type Node struct {
	Kind  Kind
	Op    Op      // KindUnary, KindBinary
	Value float64 // KindConst
	Var   int     // KindVar, 1-based index into the incidence list
	Left  NodeID  // KindUnary, KindBinary
	Right NodeID  // KindBinary
}

// Const returns a constant node.
func Const(v float64) Node {
	return Node{Kind: KindConst, Value: v, Left: NoNode, Right: NoNode}
}

// VarRef returns a node referencing the 1-based variable index i.
func VarRef(i int) Node {
	return Node{Kind: KindVar, Var: i, Left: NoNode, Right: NoNode}
}

// Unary returns a unary operator node.
func Unary(op Op, a NodeID) Node {
	return Node{Kind: KindUnary, Op: op, Left: a, Right: NoNode}
}

// Binary returns a binary operator node.
func Binary(op Op, a, b NodeID) Node {
	return Node{Kind: KindBinary, Op: op, Left: a, Right: b}
}

// NumChildren returns the operand count implied by the node kind.
func (n Node) NumChildren() int {
	switch n.Kind {
	case KindUnary:
		return 1
	case KindBinary:
		return 2
	default:
		return 0
	}
}

// Child returns the k-th operand (0 = left, 1 = right).
func (n Node) Child(k int) NodeID {
	if k == 0 {
		return n.Left
	}
	return n.Right
}
