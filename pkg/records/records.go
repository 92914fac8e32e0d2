// Package records defines the row representation shared by parsers,
// transformers and storage sinks.
//
// A Record is one tabular row keyed by column name. Values are untyped:
// parsers emit strings (or nil for empty cells), transforms may replace
// them with bools or numbers, and sinks stringify what remains. nil is
// the null value throughout the pipeline.
package records

import (
	"fmt"
	"strings"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String renders the value under key as a string. Missing keys and nil
// values yield "".
func (r Record) String(key string) string {
	return Stringify(r[key])
}

// Stringify renders a cell value as a string. nil yields ""; bools and
// numbers keep their fmt.Sprint form ("true", "42").
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// IsBlank reports whether a cell value is nil or a string that trims to
// the empty string. Bools and numbers are never blank.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
