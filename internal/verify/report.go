package verify

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Check names a verification category.
type Check string

// Verification categories.
const (
	CheckResidual   Check = "residual"
	CheckGradient   Check = "gradient"
	CheckSecond     Check = "second derivative"
	CheckSymmetry   Check = "symmetry"
	CheckSafe       Check = "safe evaluation"
	CheckSafeAgree  Check = "safe agreement"
	CheckFinite     Check = "finite difference"
	CheckExact      Check = "exact derivative"
	CheckEvaluation Check = "evaluation"
)

// Mismatch is one failed comparison. I and J are 0-based variable indices,
// -1 where they do not apply.
type Mismatch struct {
	Relation string
	Check    Check
	I, J     int
	Got      float64
	Want     float64
	Err      error
}

func (m *Mismatch) Error() string {
	var where string
	switch {
	case m.J >= 0:
		where = fmt.Sprintf("[%d][%d]", m.I, m.J)
	case m.I >= 0:
		where = fmt.Sprintf("[%d]", m.I)
	}
	if m.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", m.Relation, m.Check, where, m.Err)
	}
	return fmt.Sprintf("%s: %s%s: got %.17g, want %.17g (diff %.3g)",
		m.Relation, m.Check, where, m.Got, m.Want, m.Got-m.Want)
}

func (m *Mismatch) Unwrap() error { return m.Err }

// Report accumulates the outcome of a verification run.
type Report struct {
	Relations      int // token relations tested
	Skipped        int // non-token relations
	ResidualErrors int // forward and reverse residuals differ
	GradientErrors int // forward and reverse gradients differ
	SecondErrors   int // second-derivative rows could not be formed
	SymmetryErrors int // H[i][j] and H[j][i] differ
	SafeFailures   int // safe family trapped
	SafeMismatches int // safe and non-safe results differ
	FDMismatches   int // finite-difference reference disagrees
	ExactMismatch  int // dual-number reference disagrees
	ExactSkipped   int // relations the dual-number reference cannot express

	errs *multierror.Error
}

func (r *Report) add(m *Mismatch) {
	switch m.Check {
	case CheckResidual, CheckEvaluation:
		r.ResidualErrors++
	case CheckGradient:
		r.GradientErrors++
	case CheckSecond:
		r.SecondErrors++
	case CheckSymmetry:
		r.SymmetryErrors++
	case CheckSafe:
		r.SafeFailures++
	case CheckSafeAgree:
		r.SafeMismatches++
	case CheckFinite:
		r.FDMismatches++
	case CheckExact:
		r.ExactMismatch++
	}
	r.errs = multierror.Append(r.errs, m)
}

// Merge adds the counts and errors of o to r.
func (r *Report) Merge(o *Report) {
	r.Relations += o.Relations
	r.Skipped += o.Skipped
	r.ResidualErrors += o.ResidualErrors
	r.GradientErrors += o.GradientErrors
	r.SecondErrors += o.SecondErrors
	r.SymmetryErrors += o.SymmetryErrors
	r.SafeFailures += o.SafeFailures
	r.SafeMismatches += o.SafeMismatches
	r.FDMismatches += o.FDMismatches
	r.ExactMismatch += o.ExactMismatch
	r.ExactSkipped += o.ExactSkipped
	if o.errs != nil {
		r.errs = multierror.Append(r.errs, o.errs.Errors...)
	}
}

// Failures returns the total number of failed checks.
func (r *Report) Failures() int {
	if r.errs == nil {
		return 0
	}
	return len(r.errs.Errors)
}

// Err returns every failure as one error, or nil.
func (r *Report) Err() error {
	return r.errs.ErrorOrNil()
}

// Mismatches returns the recorded failures in the order found.
func (r *Report) Mismatches() []*Mismatch {
	if r.errs == nil {
		return nil
	}
	out := make([]*Mismatch, 0, len(r.errs.Errors))
	for _, err := range r.errs.Errors {
		if m, ok := err.(*Mismatch); ok {
			out = append(out, m)
		}
	}
	return out
}

// WriteTo renders a text summary followed by every failure.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "relations tested          %d\n", r.Relations)
	fmt.Fprintf(&b, "relations skipped         %d\n", r.Skipped)
	fmt.Fprintf(&b, "residual errors           %d\n", r.ResidualErrors)
	fmt.Fprintf(&b, "first derivative errors   %d\n", r.GradientErrors)
	fmt.Fprintf(&b, "second derivative errors  %d\n", r.SecondErrors)
	fmt.Fprintf(&b, "symmetry errors           %d\n", r.SymmetryErrors)
	fmt.Fprintf(&b, "safe failures             %d\n", r.SafeFailures)
	fmt.Fprintf(&b, "safe mismatches           %d\n", r.SafeMismatches)
	fmt.Fprintf(&b, "finite difference errors  %d\n", r.FDMismatches)
	fmt.Fprintf(&b, "exact derivative errors   %d (%d skipped)\n", r.ExactMismatch, r.ExactSkipped)
	fmt.Fprintf(&b, "total failures            %d\n", r.Failures())
	for _, m := range r.Mismatches() {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
