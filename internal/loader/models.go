package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format represents the relation file format.
type Format int

// Supported formats. JSON is read through the YAML decoder.
const (
	FormatUnknown Format = iota
	FormatYAML
	FormatJSON
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "YAML"
	case FormatJSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// DetectFormat returns the format implied by the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Open reads a relation file and auto-detects the format.
// Supports .yaml, .yml and .json files.
//
// Example:
//
//	set, err := loader.Open("model.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, rel := range set.Relations {
//	    fmt.Println(rel)
//	}
func Open(path string) (*Set, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s (expected .yaml, .yml or .json)", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read relation file: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set.Format = format
	set.Path = path
	return set, nil
}
