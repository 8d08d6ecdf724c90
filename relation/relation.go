// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package relation builds the expression DAGs evaluated by autodiff.
//
// A relation is an arena of nodes addressed by handle. Shared
// subexpressions are stored once and may be referenced by any number of
// parents. Relations are immutable once built; variable values live in the
// Variable objects they reference.
//
// Example:
//
//	x, y, z := relation.NewReal("x", 1), relation.NewReal("y", 2), relation.NewReal("z", 0)
//	b := relation.NewBuilder(x, y, z)
//	s := b.Add(b.Var(1), b.Var(2))
//	rel, err := b.Relation("r", b.Mul(s, s), relation.Equal, b.Var(3))
//	fmt.Println(rel) // (x + y) * (x + y) = z
package relation

import (
	"github.com/born-ml/relad/internal/expr"
)

// Relation is an immutable relation over variables.
type Relation = expr.Relation

// Builder assembles relation DAGs.
type Builder = expr.Builder

// NodeID addresses a node within its relation.
type NodeID = expr.NodeID

// Node is one arena entry.
type Node = expr.Node

// Op is an operator.
type Op = expr.Op

// Relop is the relational operator at the top of a relation.
type Relop = expr.Relop

// Kind distinguishes evaluable token relations from opaque ones.
type Kind = expr.RelKind

// Variable is a named real value a relation reads.
type Variable = expr.Variable

// Real is a settable Variable.
type Real = expr.Real

// Style selects an infix export dialect.
type Style = expr.Style

// Relational operators.
const (
	Equal        = expr.RelEqual
	Less         = expr.RelLess
	LessEqual    = expr.RelLessEqual
	Greater      = expr.RelGreater
	GreaterEqual = expr.RelGreaterEqual
	NotEqual     = expr.RelNotEqual
	Maximize     = expr.RelMaximize
	Minimize     = expr.RelMinimize
)

// Relation kinds.
const (
	Token    = expr.RelToken
	Opcode   = expr.RelOpcode
	GlassBox = expr.RelGlassBox
	BlackBox = expr.RelBlackBox
)

// Export styles.
const (
	Plain = expr.StylePlain
	Yacas = expr.StyleYacas
)

// NoNode is the absent node handle.
const NoNode = expr.NoNode

// Construction errors.
var (
	ErrVarIndex      = expr.ErrVarIndex
	ErrDangling      = expr.ErrDangling
	ErrCycle         = expr.ErrCycle
	ErrArity         = expr.ErrArity
	ErrIPowExponent  = expr.ErrIPowExponent
	ErrEmptyRelation = expr.ErrEmptyRelation
)

// StructuralError reports a malformed arena.
type StructuralError = expr.StructuralError

// NewReal creates a variable.
func NewReal(name string, value float64) *Real {
	return expr.NewReal(name, value)
}

// NewBuilder starts a relation over vars.
func NewBuilder(vars ...Variable) *Builder {
	return expr.NewBuilder(vars...)
}

// New validates a prebuilt arena into a token relation.
func New(name string, nodes []Node, root NodeID, vars []Variable) (*Relation, error) {
	return expr.New(name, nodes, root, vars)
}

// NewOpaque creates a relation of a non-token kind.
func NewOpaque(name string, kind Kind, vars []Variable) *Relation {
	return expr.NewOpaque(name, kind, vars)
}

// ParseOp looks up an operator by name.
func ParseOp(name string) (Op, bool) {
	return expr.ParseOp(name)
}
