package safe

import (
	"errors"
	"fmt"
)

// Kind is the status of a checked computation. The zero value is Ok.
type Kind uint8

// Status values.
const (
	Ok Kind = iota
	DomainError
	DivideByZero
	Overflow
	NotANumber
)

// Sentinels matched with errors.Is against an *Error.
var (
	ErrDomain       = errors.New("safe: argument outside operator domain")
	ErrDivideByZero = errors.New("safe: division by zero")
	ErrOverflow     = errors.New("safe: result overflows")
	ErrNotANumber   = errors.New("safe: result is not a number")
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case DomainError:
		return "domain error"
	case DivideByZero:
		return "divide by zero"
	case Overflow:
		return "overflow"
	case NotANumber:
		return "not a number"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Err returns the sentinel for k, or nil for Ok.
func (k Kind) Err() error {
	switch k {
	case Ok:
		return nil
	case DomainError:
		return ErrDomain
	case DivideByZero:
		return ErrDivideByZero
	case Overflow:
		return ErrOverflow
	default:
		return ErrNotANumber
	}
}

// Error describes where a safe evaluation trapped.
type Error struct {
	Kind Kind
	// Op is the operator name of the trapping node.
	Op string
	// Node is the node handle, -1 when not tied to a node.
	Node int
	// Args holds the operand values seen by the check.
	Args []float64
	// Stage is one of "value", "derivative", "second derivative" or "adjoint".
	Stage string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s in %s", e.Kind, e.Op)
	if e.Stage != "" {
		msg += " (" + e.Stage + ")"
	}
	if e.Node >= 0 {
		msg += fmt.Sprintf(" at node %d", e.Node)
	}
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" with operands %v", e.Args)
	}
	return msg
}

// Unwrap returns the sentinel for the error kind.
func (e *Error) Unwrap() error {
	return e.Kind.Err()
}

// StatusOf extracts the Kind from an error returned by a safe entry point.
// It returns Ok for nil and NotANumber for errors of other origin.
func StatusOf(err error) Kind {
	if err == nil {
		return Ok
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrDomain):
		return DomainError
	case errors.Is(err, ErrDivideByZero):
		return DivideByZero
	case errors.Is(err, ErrOverflow):
		return Overflow
	default:
		return NotANumber
	}
}
