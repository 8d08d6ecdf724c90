// Package loader reads relation sets from YAML or JSON files.
//
// This package wraps the internal loader and exports a clean public API.
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/relad/autodiff"
//	    "github.com/born-ml/relad/loader"
//	)
//
//	set, err := loader.Open("model.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng := autodiff.New(autodiff.DefaultConfig())
//	for _, rel := range set.Relations {
//	    res, err := eng.EvaluateReverseSafe(rel, autodiff.WithGradient)
//	    ...
//	}
package loader

import (
	"github.com/born-ml/relad/internal/loader"
)

// Format represents the relation file format.
type Format = loader.Format

// Supported formats.
const (
	FormatUnknown = loader.FormatUnknown
	FormatYAML    = loader.FormatYAML
	FormatJSON    = loader.FormatJSON
)

// Set is a loaded relation file.
type Set = loader.Set

// SyntaxError locates a problem in a relation file.
type SyntaxError = loader.SyntaxError

// Errors reported while loading.
var (
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat
	ErrUnknownName       = loader.ErrUnknownName
	ErrUnknownOperator   = loader.ErrUnknownOperator
	ErrUnknownRelop      = loader.ErrUnknownRelop
	ErrUnknownKind       = loader.ErrUnknownKind
	ErrDuplicateName     = loader.ErrDuplicateName
	ErrMalformed         = loader.ErrMalformed
)

// Open reads a relation file, detecting the format from the extension.
func Open(path string) (*Set, error) {
	return loader.Open(path)
}

// Parse builds a Set from YAML or JSON text.
func Parse(data []byte) (*Set, error) {
	return loader.Parse(data)
}

// DetectFormat returns the format implied by a file extension.
func DetectFormat(path string) Format {
	return loader.DetectFormat(path)
}
