package autodiff_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/relad/internal/autodiff"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/parallel"
	"github.com/born-ml/relad/internal/safe"
)

func newEngine() *autodiff.Engine {
	return autodiff.New(autodiff.DefaultConfig())
}

// square builds x*x = 4.
func square(t *testing.T, x float64) *expr.Relation {
	t.Helper()
	b := expr.NewBuilder(expr.NewReal("x", x))
	rel, err := b.Relation("square", b.Mul(b.Var(1), b.Var(1)), expr.RelEqual, b.Const(4))
	require.NoError(t, err)
	return rel
}

// shared builds (x+y)*(x+y) = z with the sum stored once.
func shared(t *testing.T, x, y, z float64) *expr.Relation {
	t.Helper()
	b := expr.NewBuilder(expr.NewReal("x", x), expr.NewReal("y", y), expr.NewReal("z", z))
	s := b.Add(b.Var(1), b.Var(2))
	rel, err := b.Relation("shared", b.Mul(s, s), expr.RelEqual, b.Var(3))
	require.NoError(t, err)
	return rel
}

// unary builds op(x) = 0.
func unary(t *testing.T, op expr.Op, x float64) *expr.Relation {
	t.Helper()
	b := expr.NewBuilder(expr.NewReal("x", x))
	rel, err := b.Residual("unary", b.Unary(op, b.Var(1)))
	require.NoError(t, err)
	return rel
}

type evalFunc func(*autodiff.Engine, *expr.Relation, autodiff.Mode) (autodiff.Result, error)

var evaluators = map[string]evalFunc{
	"forward":      (*autodiff.Engine).Evaluate,
	"forward safe": (*autodiff.Engine).EvaluateSafe,
	"reverse":      (*autodiff.Engine).EvaluateReverse,
	"reverse safe": (*autodiff.Engine).EvaluateReverseSafe,
}

func TestEvaluate_Square(t *testing.T) {
	eng := newEngine()
	rel := square(t, 3)

	for name, eval := range evaluators {
		t.Run(name, func(t *testing.T) {
			res, err := eval(eng, rel, autodiff.WithGradient)
			require.NoError(t, err)
			assert.Equal(t, 5.0, res.Residual)
			assert.Equal(t, []float64{6}, res.Gradient)

			res, err = eval(eng, rel, autodiff.ValueOnly)
			require.NoError(t, err)
			assert.Equal(t, 5.0, res.Residual)
			assert.Nil(t, res.Gradient)
		})
	}

	row, err := eng.SecondDerivativeRow(rel, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, row)
}

func TestEvaluate_SharedSubexpressionAccumulates(t *testing.T) {
	eng := newEngine()
	rel := shared(t, 1, 2, 0)

	for name, eval := range evaluators {
		t.Run(name, func(t *testing.T) {
			res, err := eval(eng, rel, autodiff.WithGradient)
			require.NoError(t, err)
			assert.Equal(t, 9.0, res.Residual)
			assert.Equal(t, []float64{6, 6, -1}, res.Gradient)
		})
	}

	h, err := eng.Hessian(rel)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 2, 0}, {2, 2, 0}, {0, 0, 0}}, h)
}

func TestEvaluate_Idempotent(t *testing.T) {
	eng := newEngine()
	rel := mixed(t, 1.3, 0.7, -0.4)

	for name, eval := range evaluators {
		t.Run(name, func(t *testing.T) {
			first, err := eval(eng, rel, autodiff.WithGradient)
			require.NoError(t, err)
			second, err := eval(eng, rel, autodiff.WithGradient)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}

	r1, err := eng.SecondDerivativeRow(rel, 1)
	require.NoError(t, err)
	r2, err := eng.SecondDerivativeRow(rel, 1)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestEvaluate_UsesCurrentValues(t *testing.T) {
	x := expr.NewReal("x", 3)
	b := expr.NewBuilder(x)
	rel, err := b.Relation("square", b.Mul(b.Var(1), b.Var(1)), expr.RelEqual, b.Const(4))
	require.NoError(t, err)

	eng := newEngine()
	x.Set(5)
	res, err := eng.EvaluateReverse(rel, autodiff.WithGradient)
	require.NoError(t, err)
	assert.Equal(t, 21.0, res.Residual)
	assert.Equal(t, []float64{10}, res.Gradient)
}

func TestEvaluate_GradientIsFresh(t *testing.T) {
	eng := newEngine()

	// A bare variable root must not hand out internal storage.
	b := expr.NewBuilder(expr.NewReal("x", 2))
	rel, err := b.Residual("bare", b.Var(1))
	require.NoError(t, err)

	res, err := eng.Evaluate(rel, autodiff.WithGradient)
	require.NoError(t, err)
	res.Gradient[0] = 42

	res, err = eng.Evaluate(rel, autodiff.WithGradient)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, res.Gradient)
}

func TestEvaluate_ConstantRelation(t *testing.T) {
	eng := newEngine()
	b := expr.NewBuilder(expr.NewReal("x", 2))
	rel, err := b.Relation("const", b.Const(3), expr.RelEqual, b.Const(1))
	require.NoError(t, err)

	for name, eval := range evaluators {
		t.Run(name, func(t *testing.T) {
			res, err := eval(eng, rel, autodiff.WithGradient)
			require.NoError(t, err)
			assert.Equal(t, 2.0, res.Residual)
			assert.Equal(t, []float64{0}, res.Gradient)
		})
	}
}

func TestEvaluate_HoldIsConstant(t *testing.T) {
	eng := newEngine()
	b := expr.NewBuilder(expr.NewReal("x", 2))
	x := b.Var(1)
	rel, err := b.Residual("hold", b.Mul(b.Unary(expr.OpHold, x), x))
	require.NoError(t, err)

	for name, eval := range evaluators {
		t.Run(name, func(t *testing.T) {
			res, err := eval(eng, rel, autodiff.WithGradient)
			require.NoError(t, err)
			assert.Equal(t, 4.0, res.Residual)
			assert.Equal(t, []float64{2}, res.Gradient)
		})
	}

	row, err := eng.SecondDerivativeRow(rel, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, row)
}

func TestEvaluateSafe_Traps(t *testing.T) {
	eng := newEngine()

	tests := []struct {
		name  string
		rel   *expr.Relation
		kind  safe.Kind
		op    string
		stage string
	}{
		{"log of negative", unary(t, expr.OpLn, -1), safe.DomainError, "ln", "value"},
		{"sqrt of negative", unary(t, expr.OpSqrt, -4), safe.DomainError, "sqrt", "value"},
		{"arcsin outside unit", unary(t, expr.OpArcsin, 1.5), safe.DomainError, "arcsin", "value"},
		{"exp overflow", unary(t, expr.OpExp, 1000), safe.Overflow, "exp", "value"},
		{"sqrt derivative at zero", unary(t, expr.OpSqrt, 0), safe.DivideByZero, "sqrt", "derivative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, eval := range []evalFunc{
				(*autodiff.Engine).EvaluateSafe,
				(*autodiff.Engine).EvaluateReverseSafe,
			} {
				res, err := eval(eng, tt.rel, autodiff.WithGradient)
				require.Error(t, err)
				assert.Equal(t, autodiff.Result{}, res)
				assert.Equal(t, tt.kind, safe.StatusOf(err))

				var serr *safe.Error
				require.True(t, errors.As(err, &serr))
				assert.Equal(t, tt.op, serr.Op)
				assert.Equal(t, tt.stage, serr.Stage)
			}

			row, err := eng.SecondDerivativeRowSafe(tt.rel, 0)
			assert.Nil(t, row)
			assert.Equal(t, tt.kind, safe.StatusOf(err))
		})
	}
}

func TestEvaluate_UncheckedFollowsIEEE(t *testing.T) {
	eng := newEngine()

	res, err := eng.Evaluate(unary(t, expr.OpLn, -1), autodiff.WithGradient)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Residual))

	res, err = eng.EvaluateReverse(unary(t, expr.OpExp, 1000), autodiff.ValueOnly)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Residual, 1))

	b := expr.NewBuilder(expr.NewReal("x", 1), expr.NewReal("y", 0))
	rel, err := b.Residual("div", b.Div(b.Var(1), b.Var(2)))
	require.NoError(t, err)
	res, err = eng.EvaluateReverse(rel, autodiff.ValueOnly)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Residual, 1))

	_, err = eng.EvaluateReverseSafe(rel, autodiff.ValueOnly)
	assert.ErrorIs(t, err, safe.ErrDivideByZero)
}

func TestEvaluateSafe_ConstantExponentNegativeBase(t *testing.T) {
	eng := newEngine()

	// x^2 at x = -3: the exponent is constant, so ln(x) is never needed.
	b := expr.NewBuilder(expr.NewReal("x", -3))
	rel, err := b.Residual("pow", b.Pow(b.Var(1), b.Const(2)))
	require.NoError(t, err)

	res, err := eng.EvaluateReverseSafe(rel, autodiff.WithGradient)
	require.NoError(t, err)
	assert.Equal(t, 9.0, res.Residual)
	assert.Equal(t, []float64{-6}, res.Gradient)

	row, err := eng.SecondDerivativeRowSafe(rel, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, row)

	// x^y needs ln(x) for the y partial.
	b = expr.NewBuilder(expr.NewReal("x", -3), expr.NewReal("y", 2))
	rel, err = b.Residual("pow", b.Pow(b.Var(1), b.Var(2)))
	require.NoError(t, err)

	res, err = eng.EvaluateSafe(rel, autodiff.ValueOnly)
	require.NoError(t, err)
	assert.Equal(t, 9.0, res.Residual)

	_, err = eng.EvaluateSafe(rel, autodiff.WithGradient)
	assert.ErrorIs(t, err, safe.ErrDomain)
}

func TestEvaluateSafe_AgreesWithUnchecked(t *testing.T) {
	eng := newEngine()
	rel := mixed(t, 1.3, 0.7, -0.4)

	plain, err := eng.Evaluate(rel, autodiff.WithGradient)
	require.NoError(t, err)
	checked, err := eng.EvaluateSafe(rel, autodiff.WithGradient)
	require.NoError(t, err)
	assert.Equal(t, plain, checked)

	plain, err = eng.EvaluateReverse(rel, autodiff.WithGradient)
	require.NoError(t, err)
	checked, err = eng.EvaluateReverseSafe(rel, autodiff.WithGradient)
	require.NoError(t, err)
	assert.Equal(t, plain, checked)

	h, err := eng.Hessian(rel)
	require.NoError(t, err)
	hs, err := eng.HessianSafe(rel)
	require.NoError(t, err)
	assert.Equal(t, h, hs)
}

func TestEvaluate_ForwardReverseResidualIdentical(t *testing.T) {
	eng := newEngine()
	rel := mixed(t, 1.3, 0.7, -0.4)

	fwd, err := eng.Evaluate(rel, autodiff.WithGradient)
	require.NoError(t, err)
	rev, err := eng.EvaluateReverse(rel, autodiff.WithGradient)
	require.NoError(t, err)

	assert.Equal(t, fwd.Residual, rev.Residual)
	require.Len(t, rev.Gradient, 3)
	for i := range fwd.Gradient {
		assert.InDelta(t, fwd.Gradient[i], rev.Gradient[i], 1e-12)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	eng := newEngine()
	opaque := expr.NewOpaque("bb", expr.RelBlackBox, []expr.Variable{expr.NewReal("x", 1)})

	_, err := eng.Evaluate(opaque, autodiff.ValueOnly)
	assert.ErrorIs(t, err, autodiff.ErrNotToken)
	_, err = eng.EvaluateReverseSafe(opaque, autodiff.WithGradient)
	assert.ErrorIs(t, err, autodiff.ErrNotToken)
	_, err = eng.SecondDerivativeRow(opaque, 0)
	assert.ErrorIs(t, err, autodiff.ErrNotToken)
	_, err = eng.Hessian(opaque)
	assert.ErrorIs(t, err, autodiff.ErrNotToken)
	_, err = eng.Satisfied(opaque, 1e-6)
	assert.ErrorIs(t, err, autodiff.ErrNotToken)

	rel := square(t, 3)
	for _, outer := range []int{-1, 1} {
		row, err := eng.SecondDerivativeRow(rel, outer)
		assert.ErrorIs(t, err, autodiff.ErrVarIndex)
		assert.Nil(t, row)
		_, err = eng.SecondDerivativeRowSafe(rel, outer)
		assert.ErrorIs(t, err, autodiff.ErrVarIndex)
	}

	_, err = eng.EvaluateAt(rel, []float64{1, 2}, autodiff.Forward, autodiff.ValueOnly, false)
	assert.ErrorIs(t, err, autodiff.ErrPointSize)
	_, err = eng.SecondDerivativeRowAt(rel, nil, 0, false)
	assert.ErrorIs(t, err, autodiff.ErrPointSize)
}

func TestEvaluateAt_DoesNotTouchVariables(t *testing.T) {
	x := expr.NewReal("x", 3)
	b := expr.NewBuilder(x)
	rel, err := b.Relation("square", b.Mul(b.Var(1), b.Var(1)), expr.RelEqual, b.Const(4))
	require.NoError(t, err)

	eng := newEngine()
	for _, m := range []autodiff.Method{autodiff.Forward, autodiff.Reverse} {
		res, err := eng.EvaluateAt(rel, []float64{2}, m, autodiff.WithGradient, true)
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.Residual)
		assert.Equal(t, []float64{4}, res.Gradient)
	}
	assert.Equal(t, 3.0, x.Value())

	row, err := eng.SecondDerivativeRowAt(rel, []float64{7}, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, row)
}

func TestHessian_ParallelMatchesSequential(t *testing.T) {
	rel := wide(t, 12)

	seq := autodiff.New(autodiff.Config{Parallel: parallel.Config{Enabled: false}})
	par := autodiff.New(autodiff.Config{Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}})

	want, err := seq.Hessian(rel)
	require.NoError(t, err)
	got, err := par.Hessian(rel)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEvaluateAll(t *testing.T) {
	eng := autodiff.New(autodiff.Config{Parallel: parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}})
	rels := []*expr.Relation{square(t, 3), shared(t, 1, 2, 0), square(t, 2)}

	out, err := eng.EvaluateAll(rels, autodiff.Reverse, autodiff.WithGradient, true)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, 5.0, out[0].Residual)
	assert.Equal(t, []float64{6, 6, -1}, out[1].Gradient)
	assert.Equal(t, 0.0, out[2].Residual)

	rels = append(rels, unary(t, expr.OpLn, -2))
	_, err = eng.EvaluateAll(rels, autodiff.Forward, autodiff.ValueOnly, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, safe.ErrDomain)
	assert.Contains(t, err.Error(), "relation 3 (unary)")
}

func TestSatisfied(t *testing.T) {
	eng := newEngine()

	rel := func(x float64, op expr.Relop) *expr.Relation {
		b := expr.NewBuilder(expr.NewReal("x", x))
		r, err := b.Relation("cmp", b.Var(1), op, b.Const(2))
		require.NoError(t, err)
		return r
	}

	tests := []struct {
		x    float64
		op   expr.Relop
		want bool
	}{
		{2, expr.RelEqual, true},
		{2 + 1e-9, expr.RelEqual, true},
		{2.1, expr.RelEqual, false},
		{1, expr.RelLess, true},
		{2, expr.RelLess, true},
		{3, expr.RelLess, false},
		{3, expr.RelLessEqual, false},
		{2, expr.RelLessEqual, true},
		{1, expr.RelGreater, false},
		{2, expr.RelGreater, true},
		{3, expr.RelGreaterEqual, true},
		{2, expr.RelNotEqual, false},
		{3, expr.RelNotEqual, true},
		{100, expr.RelMinimize, true},
	}
	for _, tt := range tests {
		ok, err := eng.Satisfied(rel(tt.x, tt.op), 1e-6)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "x=%g %s 2", tt.x, tt.op)
	}

	ok, err := eng.Satisfied(unary(t, expr.OpLn, -1), 1e-6)
	assert.False(t, ok)
	assert.ErrorIs(t, err, safe.ErrDomain)
}

func TestEvalTape(t *testing.T) {
	rel := shared(t, 1, 2, 0)
	tape := autodiff.NewEvalTape(rel)

	require.NoError(t, tape.Forward([]float64{1, 2, 0}, true, nil))
	assert.Equal(t, len(rel.Order()), tape.NumOps())
	assert.Equal(t, 9.0, tape.Residual())

	grad := make([]float64, 3)
	require.NoError(t, tape.Backward(grad, nil))
	assert.Equal(t, []float64{6, 6, -1}, grad)
}

func TestParseMethod(t *testing.T) {
	m, err := autodiff.ParseMethod("reverse")
	require.NoError(t, err)
	assert.Equal(t, autodiff.Reverse, m)

	m, err = autodiff.ParseMethod("fwd")
	require.NoError(t, err)
	assert.Equal(t, autodiff.Forward, m)

	_, err = autodiff.ParseMethod("sideways")
	assert.Error(t, err)
}
