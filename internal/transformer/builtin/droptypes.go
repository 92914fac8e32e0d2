package builtin

import (
	"strings"

	"qbank/internal/schema"
	"qbank/pkg/records"
)

// unsupportedTypes are matched as case-insensitive substrings of the raw
// Question_Type value. Hotspot, drag-and-drop and simulation items have no
// representation in the destination sheets.
var unsupportedTypes = []string{"hotspot", "drag", "simulation"}

// DropTypes removes rows whose Question_Type contains one of Patterns,
// case-insensitively. Zero patterns means the default unsupported set.
// Rows with a nil or non-string Question_Type never match and pass through.
type DropTypes struct {
	Patterns []string
}

// Apply filters in place and returns the surviving prefix.
func (d DropTypes) Apply(in []records.Record) []records.Record {
	pats := d.Patterns
	if len(pats) == 0 {
		pats = unsupportedTypes
	}
	out := in[:0]
	for _, rec := range in {
		if typeMatchesAny(rec[schema.FieldQuestionType], pats) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func typeMatchesAny(v any, pats []string) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, p := range pats {
		if strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
