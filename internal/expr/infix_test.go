package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfix_Plain(t *testing.T) {
	x, y := NewReal("x", 1), NewReal("y", 2)

	tests := []struct {
		name  string
		build func(b *Builder) (*Relation, error)
		want  string
	}{
		{
			name: "square minus constant",
			build: func(b *Builder) (*Relation, error) {
				return b.Relation("r", b.Mul(b.Var(1), b.Var(1)), RelEqual, b.Const(4))
			},
			want: "x * x = 4",
		},
		{
			name: "sum times sum",
			build: func(b *Builder) (*Relation, error) {
				s := b.Add(b.Var(1), b.Var(2))
				return b.Relation("r", b.Mul(s, s), RelLessEqual, b.Var(2))
			},
			want: "(x + y) * (x + y) <= y",
		},
		{
			name: "right operand of subtraction",
			build: func(b *Builder) (*Relation, error) {
				return b.Residual("r", b.Sub(b.Var(1), b.Sub(b.Var(2), b.Const(1))))
			},
			want: "x - (y - 1) = 0",
		},
		{
			name: "negative exponent",
			build: func(b *Builder) (*Relation, error) {
				return b.Residual("r", b.Pow(b.Var(1), b.Const(-2)))
			},
			want: "x^(-2) = 0",
		},
		{
			name: "power of power",
			build: func(b *Builder) (*Relation, error) {
				return b.Residual("r", b.Pow(b.Pow(b.Var(1), b.Var(2)), b.Const(2)))
			},
			want: "(x^y)^2 = 0",
		},
		{
			name: "functions",
			build: func(b *Builder) (*Relation, error) {
				return b.Relation("r", b.Unary(OpLn, b.Var(1)), RelGreater, b.Neg(b.Unary(OpSin, b.Var(2))))
			},
			want: "ln(x) > -sin(y)",
		},
		{
			name: "objective",
			build: func(b *Builder) (*Relation, error) {
				return b.Objective("r", b.Div(b.Var(1), b.Mul(b.Var(2), b.Var(2))), RelMinimize)
			},
			want: "minimize x / (y * y)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := tt.build(NewBuilder(x, y))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rel.String())
		})
	}
}

func TestInfix_Yacas(t *testing.T) {
	b := NewBuilder(NewReal("x", 1), NewReal("y", 2))
	e := b.Add(b.Sqr(b.Unary(OpSin, b.Var(1))), b.Unary(OpLog10, b.Var(2)))
	rel, err := b.Relation("r", e, RelEqual, b.Unary(OpArctan, b.Var(1)))
	require.NoError(t, err)

	assert.Equal(t, "Sin(x1)^2 + Ln(x2) / Ln(10) - ArcTan(x1)", rel.ResidualInfix(StyleYacas, XName))
	assert.Equal(t, "sqr(sin(x1)) + log10(x2) - arctan(x1)", rel.ResidualInfix(StylePlain, XName))
}

func TestYacasDerivatives(t *testing.T) {
	b := NewBuilder(NewReal("a", 1), NewReal("b", 2))
	rel, err := b.Relation("r", b.Mul(b.Var(1), b.Var(2)), RelEqual, b.Const(1))
	require.NoError(t, err)

	first, second := rel.YacasDerivatives()
	assert.Equal(t, []string{"D(x1) (x1 * x2 - 1)", "D(x2) (x1 * x2 - 1)"}, first)
	require.Len(t, second, 4)
	assert.Equal(t, "D(x1) D(x2) (x1 * x2 - 1)", second[1])
	assert.Equal(t, "D(x2) D(x1) (x1 * x2 - 1)", second[2])
}
