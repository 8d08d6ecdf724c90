package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const model = `
variables:
  - {name: x, value: 1}
  - {name: y, value: 2}
  - {name: z, value: 0}
  - {name: w, value: -1}
relations:
  - name: square
    let:
      - {name: s, expr: {add: [x, y]}}
    lhs: {mul: [s, s]}
    relop: "="
    rhs: z
  - name: cost
    relop: minimize
    lhs: {div: [y, {sqr: x}]}
  - name: badlog
    lhs: {ln: w}
  - name: external
    kind: glassbox
    vars: [x]
`

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(model), 0o600))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	ui := cli.NewMockUi()
	code := realMain(args, ui)
	return code, ui.OutputWriter.String(), ui.ErrorWriter.String()
}

func TestEval(t *testing.T) {
	path := writeModel(t)

	code, out, _ := run(t, "eval", path, "square")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "square: (x + y) * (x + y) = z")
	assert.Contains(t, out, "residual  9 (satisfied: false)")
	assert.Contains(t, out, "d/dz      -1")

	code, out, _ = run(t, "eval", "-set", "x=2", "-method", "forward", path, "square")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "residual  16")

	code, out, _ = run(t, "eval", "-format", "yaml", path, "cost", "external")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "relation: cost")
	assert.Contains(t, out, "residual: 2")
	assert.Contains(t, out, "satisfied: true")
	assert.Contains(t, out, "error: glassbox relation, not evaluable")
}

func TestEval_SafeTrap(t *testing.T) {
	path := writeModel(t)

	code, out, _ := run(t, "eval", path, "badlog")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "residual  NaN")

	code, out, _ = run(t, "eval", "-safe", path, "badlog")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "error: domain error in ln")
}

func TestEval_Errors(t *testing.T) {
	path := writeModel(t)

	code, _, errOut := run(t, "eval", path, "nosuch")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `no relation named "nosuch"`)

	code, _, _ = run(t, "eval")
	assert.Equal(t, 1, code)

	code, _, errOut = run(t, "eval", "-method", "sideways", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown method")

	code, _, errOut = run(t, "eval", "-set", "x", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "expected name=value")
}

func TestHessian(t *testing.T) {
	path := writeModel(t)

	code, out, _ := run(t, "hessian", "-safe", path, "square")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "square: (x + y) * (x + y) = z")
	assert.Regexp(t, `x\s+2\s+2\s+0`, out)

	code, out, _ = run(t, "hessian", "-row", "x", path, "cost")
	assert.Equal(t, 0, code)
	// cost = y / x^2: d2/dx2 = 6y/x^4 = 12, d2/dxdy = -2/x^3 = -2.
	assert.Regexp(t, `x\s+-2\s+12`, out)
}

func TestVerify(t *testing.T) {
	path := writeModel(t)

	code, out, _ := run(t, "verify", "-fd", path, "square", "cost", "external")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "relations tested          2")
	assert.Contains(t, out, "relations skipped         1")
	assert.Contains(t, out, "total failures            0")

	code, out, _ = run(t, "verify", path, "badlog")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "safe failures             1")
}

func TestExport(t *testing.T) {
	path := writeModel(t)

	code, out, _ := run(t, "export", "-style", "yacas", "-values", "-derivatives", path, "cost")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "@ Relation: cost")
	assert.Contains(t, out, "x1==2")
	assert.Contains(t, out, "x2==1")
	assert.Contains(t, out, "minimize x1 / x2^2")
	assert.Contains(t, out, "D(x1) (x1 / x2^2)")
	assert.Contains(t, out, "D(x2) D(x1) (x1 / x2^2)")

	code, out, _ = run(t, "export", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "minimize y / sqr(x)")
	assert.Contains(t, out, "glassbox relation external")

	code, _, _ = run(t, "export", "-style", "latex", path)
	assert.Equal(t, 1, code)
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "relad "+version)
}
