package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sharedSquare builds (x+y)*(x+y) - z with the sum stored once.
func sharedSquare(t *testing.T) (*Relation, NodeID) {
	t.Helper()
	b := NewBuilder(NewReal("x", 1), NewReal("y", 2), NewReal("z", 0))
	s := b.Add(b.Var(1), b.Var(2))
	rel, err := b.Relation("shared", b.Mul(s, s), RelEqual, b.Var(3))
	require.NoError(t, err)
	return rel, s
}

func TestBuilder_SharedSubexpression(t *testing.T) {
	rel, s := sharedSquare(t)

	assert.Equal(t, 3, rel.NumVariables())
	assert.True(t, rel.IsToken())
	assert.Equal(t, RelEqual, rel.Relop())

	// The sum appears once in the arena and once in the order.
	count := 0
	for _, id := range rel.Order() {
		if id == s {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, rel.Root(), rel.Order()[len(rel.Order())-1])
}

func TestRelation_OrderChildrenFirst(t *testing.T) {
	rel, _ := sharedSquare(t)

	pos := make(map[NodeID]int)
	for i, id := range rel.Order() {
		pos[id] = i
	}
	for _, id := range rel.Order() {
		n := rel.Node(id)
		for k := 0; k < n.NumChildren(); k++ {
			assert.Less(t, pos[n.Child(k)], pos[id], "child %d of node %d", n.Child(k), id)
		}
	}
}

func TestRelation_Incidence(t *testing.T) {
	rel, s := sharedSquare(t)

	assert.Equal(t, []int32{1, 2}, rel.Incidence(s))
	assert.Equal(t, []int32{1, 2, 3}, rel.Incidence(rel.Root()))
	assert.True(t, rel.Active(s))
}

func TestRelation_ConstantSubtreeInactive(t *testing.T) {
	b := NewBuilder(NewReal("x", 2))
	c := b.Mul(b.Const(3), b.Const(4))
	p := b.Pow(b.Var(1), c)
	rel, err := b.Residual("pow", p)
	require.NoError(t, err)

	assert.False(t, rel.Active(c))
	assert.True(t, rel.Active(p))
	assert.False(t, rel.Active(NoNode))
}

func TestRelation_HoldIsInactive(t *testing.T) {
	b := NewBuilder(NewReal("x", 2))
	h := b.Unary(OpHold, b.Var(1))
	rel, err := b.Residual("hold", b.Add(h, b.Var(1)))
	require.NoError(t, err)

	assert.False(t, rel.Active(h))
	assert.Equal(t, []int32{1}, rel.Incidence(rel.Root()))
}

func TestRelation_Values(t *testing.T) {
	x, y := NewReal("x", 1.5), NewReal("y", -2)
	b := NewBuilder(x, y)
	rel, err := b.Relation("r", b.Var(1), RelLess, b.Var(2))
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5, -2}, rel.Values(nil))
	y.Set(7)
	buf := make([]float64, 0, 8)
	assert.Equal(t, []float64{1.5, 7}, rel.Values(buf))
	assert.Equal(t, "y", rel.Variable(2).Name())
}

func TestNew_StructuralErrors(t *testing.T) {
	vars := []Variable{NewReal("x", 1)}

	tests := []struct {
		name  string
		nodes []Node
		root  NodeID
		want  error
	}{
		{
			name:  "variable index zero",
			nodes: []Node{VarRef(0)},
			want:  ErrVarIndex,
		},
		{
			name:  "variable index past end",
			nodes: []Node{VarRef(2)},
			want:  ErrVarIndex,
		},
		{
			name:  "dangling operand",
			nodes: []Node{Unary(OpSin, 4)},
			want:  ErrDangling,
		},
		{
			name:  "cycle",
			nodes: []Node{Binary(OpAdd, 1, 2), Unary(OpSin, 0), VarRef(1)},
			want:  ErrCycle,
		},
		{
			name:  "self loop",
			nodes: []Node{Unary(OpExp, 0)},
			want:  ErrCycle,
		},
		{
			name:  "binary op in unary node",
			nodes: []Node{VarRef(1), Unary(OpMul, 0)},
			root:  1,
			want:  ErrArity,
		},
		{
			name:  "ipow with variable exponent",
			nodes: []Node{VarRef(1), Binary(OpIPow, 0, 0)},
			root:  1,
			want:  ErrIPowExponent,
		},
		{
			name:  "ipow with fractional exponent",
			nodes: []Node{VarRef(1), Const(0.5), Binary(OpIPow, 0, 1)},
			root:  2,
			want:  ErrIPowExponent,
		},
		{
			name:  "root out of range",
			nodes: []Node{VarRef(1)},
			root:  3,
			want:  ErrEmptyRelation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.name, tt.nodes, tt.root, vars)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var se *StructuralError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestNew_UnreachableNodesIgnored(t *testing.T) {
	nodes := []Node{VarRef(1), Const(2), Binary(OpMul, 0, 1), Unary(OpLn, 1)}
	rel, err := New("r", nodes, 2, []Variable{NewReal("x", 1)})
	require.NoError(t, err)

	assert.Equal(t, 4, rel.NumNodes())
	assert.Len(t, rel.Order(), 3)
}

func TestBuilder_StickyError(t *testing.T) {
	b := NewBuilder(NewReal("x", 1))
	bad := b.Var(5)
	b.Add(bad, b.Var(1))
	_, err := b.Relation("r", bad, RelEqual, b.Const(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVarIndex)
	assert.ErrorIs(t, b.Err(), ErrVarIndex)
}

func TestBuilder_Objective(t *testing.T) {
	b := NewBuilder(NewReal("x", 1))
	rel, err := b.Relation("obj", b.Sqr(b.Var(1)), RelMaximize, NoNode)
	require.NoError(t, err)

	lhs, rhs := rel.Sides()
	assert.Equal(t, rel.Root(), lhs)
	assert.Equal(t, NoNode, rhs)
	assert.True(t, rel.Relop().IsObjective())
}

func TestNewOpaque_NotToken(t *testing.T) {
	rel := NewOpaque("bb", RelBlackBox, []Variable{NewReal("x", 1)})
	assert.False(t, rel.IsToken())
	assert.Equal(t, 1, rel.NumVariables())
	assert.Equal(t, "blackbox relation bb", rel.String())
}

func TestParseOpRoundTrip(t *testing.T) {
	for o := OpAdd; o < NumOps; o++ {
		got, ok := ParseOp(o.String())
		require.True(t, ok, o.String())
		assert.Equal(t, o, got)
	}
	_, ok := ParseOp("frobnicate")
	assert.False(t, ok)
}

func TestParseRelop(t *testing.T) {
	for _, s := range []string{"=", "==", "<", "<=", ">", ">=", "<>", "maximize", "minimize"} {
		_, ok := ParseRelop(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseRelop("=<")
	assert.False(t, ok)
}
