package loader

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported relation file format")
	ErrUnknownName       = errors.New("unknown variable or binding")
	ErrUnknownOperator   = errors.New("unknown operator")
	ErrUnknownRelop      = errors.New("unknown relational operator")
	ErrUnknownKind       = errors.New("unknown relation kind")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrMalformed         = errors.New("malformed expression")
)

// SyntaxError locates a problem in a relation file.
type SyntaxError struct {
	Relation string // Relation being built, empty for the variable section
	Line     int    // 1-based line in the source, 0 when unknown
	Err      error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	switch {
	case e.Relation != "" && e.Line > 0:
		return fmt.Sprintf("relation %q, line %d: %v", e.Relation, e.Line, e.Err)
	case e.Relation != "":
		return fmt.Sprintf("relation %q: %v", e.Relation, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	default:
		return e.Err.Error()
	}
}

// Unwrap returns the underlying error.
func (e *SyntaxError) Unwrap() error { return e.Err }
