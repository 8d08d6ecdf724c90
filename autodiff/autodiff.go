// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff evaluates relation residuals with their first and second
// derivatives.
//
// Three families share one operator rule table: forward mode, reverse mode
// (an evaluation tape plus an adjoint sweep) and forward-over-reverse
// second-derivative rows. Each has an unchecked variant following IEEE-754
// and a safe variant that reports the first domain or finiteness violation.
//
// Example:
//
//	import (
//	    "github.com/born-ml/relad/autodiff"
//	    "github.com/born-ml/relad/relation"
//	)
//
//	func main() {
//	    b := relation.NewBuilder(relation.NewReal("x", 3))
//	    x := b.Var(1)
//	    rel, _ := b.Relation("r", b.Mul(x, x), relation.Equal, b.Const(4))
//
//	    eng := autodiff.New(autodiff.DefaultConfig())
//	    res, _ := eng.EvaluateReverse(rel, autodiff.WithGradient)
//	    row, _ := eng.SecondDerivativeRow(rel, 0)
//	    fmt.Println(res.Residual, res.Gradient, row) // 5 [6] [2]
//	}
package autodiff

import (
	"github.com/born-ml/relad/internal/autodiff"
	"github.com/born-ml/relad/internal/safe"
)

// Engine evaluates relations. It is safe for concurrent use.
type Engine = autodiff.Engine

// Config configures an Engine.
type Config = autodiff.Config

// Result holds a residual and, in WithGradient mode, its gradient.
type Result = autodiff.Result

// Mode selects what a first-derivative evaluation computes.
type Mode = autodiff.Mode

// Evaluation modes.
const (
	ValueOnly    = autodiff.ValueOnly
	WithGradient = autodiff.WithGradient
)

// Method selects the first-derivative algorithm.
type Method = autodiff.Method

// Differentiation methods.
const (
	Forward = autodiff.Forward
	Reverse = autodiff.Reverse
)

// Errors returned by the engine.
var (
	ErrNotToken  = autodiff.ErrNotToken
	ErrVarIndex  = autodiff.ErrVarIndex
	ErrPointSize = autodiff.ErrPointSize
)

// SafeError describes where a safe evaluation trapped.
type SafeError = safe.Error

// Status is the kind of a safe evaluation failure.
type Status = safe.Kind

// Safe evaluation status values.
const (
	Ok           = safe.Ok
	DomainError  = safe.DomainError
	DivideByZero = safe.DivideByZero
	Overflow     = safe.Overflow
	NotANumber   = safe.NotANumber
)

// Sentinels matched with errors.Is against a SafeError.
var (
	ErrDomain       = safe.ErrDomain
	ErrDivideByZero = safe.ErrDivideByZero
	ErrOverflow     = safe.ErrOverflow
	ErrNotANumber   = safe.ErrNotANumber
)

// New creates an Engine.
func New(cfg Config) *Engine {
	return autodiff.New(cfg)
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return autodiff.DefaultConfig()
}

// StatusOf extracts the status from an error returned by a safe entry point.
func StatusOf(err error) Status {
	return safe.StatusOf(err)
}
