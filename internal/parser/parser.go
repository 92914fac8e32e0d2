// Package parser defines the row-producing contract shared by the format
// parsers. A Parser reads one question export and returns its rows plus a
// count of soft-skipped malformed rows; only structural failures (an
// unreadable stream, an unrecognized format) surface as errors.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"qbank/pkg/records"
)

// Parser turns one input stream into records. The int result counts rows
// skipped by soft-fail handling.
type Parser interface {
	Parse(r io.Reader) ([]records.Record, int, error)
}

// ErrUnsupportedFormat reports an input whose format no bundled parser
// handles. The run aborts before any output is written.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Kinds of bundled parsers, as they appear in pipeline configs.
const (
	KindCSV  = "csv"
	KindJSON = "json"
	KindXLSX = "xlsx"
)

// KindForPath infers the parser kind from a file path or URL extension.
// Unknown extensions wrap ErrUnsupportedFormat.
func KindForPath(p string) (string, error) {
	// URLs may carry a query or fragment after the name.
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".csv":
		return KindCSV, nil
	case ".json":
		return KindJSON, nil
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
