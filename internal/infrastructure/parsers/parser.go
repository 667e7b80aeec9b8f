// Package parsers provides parsers for importing releasers from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawReleaser represents a releaser parsed from an external source before validation.
type RawReleaser struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Country string   `json:"country,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
	Groups  []string `json:"groups,omitempty"`
	LineNum int      `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing releasers from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawReleaser, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
