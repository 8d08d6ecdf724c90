package expr

import (
	"errors"
	"fmt"
)

// Structural errors. They describe a malformed DAG and are reported by the
// constructors; a relation that was built successfully never produces them.
var (
	ErrVarIndex      = errors.New("expr: variable index out of range")
	ErrDangling      = errors.New("expr: child reference to missing node")
	ErrCycle         = errors.New("expr: cycle in operator graph")
	ErrArity         = errors.New("expr: operand count does not match operator")
	ErrIPowExponent  = errors.New("expr: ipow exponent must be a constant integer")
	ErrEmptyRelation = errors.New("expr: relation has no root node")
)

// StructuralError reports which node of a DAG violated a structural rule.
type StructuralError struct {
	Node   NodeID
	Reason error
	Detail string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: node %d: %s", e.Reason, e.Node, e.Detail)
	}
	return fmt.Sprintf("%v: node %d", e.Reason, e.Node)
}

// Unwrap returns the sentinel describing the violation.
func (e *StructuralError) Unwrap() error {
	return e.Reason
}

func structural(id NodeID, reason error, format string, args ...any) *StructuralError {
	return &StructuralError{Node: id, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
