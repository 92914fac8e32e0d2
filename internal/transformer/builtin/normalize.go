package builtin

import (
	"strings"

	"qbank/pkg/records"
)

// Normalize is an opt-in whitespace cleanup for exports with copy-paste
// artifacts: non-breaking spaces become plain spaces and string values are
// edge-trimmed. Fields restricts the cleanup to the named columns; empty
// means every string field.
//
// The image lookup matches on exact question text, so cleaning a table
// whose lookup file was built from the raw export will miss. Off by
// default for that reason.
type Normalize struct {
	Fields []string
}

// Apply mutates records in place and returns the input slice.
func (n Normalize) Apply(in []records.Record) []records.Record {
	if len(n.Fields) == 0 {
		for _, r := range in {
			for k, v := range r {
				if s, ok := v.(string); ok {
					r[k] = cleanSpace(s)
				}
			}
		}
		return in
	}
	for _, r := range in {
		for _, k := range n.Fields {
			if s, ok := r[k].(string); ok {
				r[k] = cleanSpace(s)
			}
		}
	}
	return in
}

func cleanSpace(s string) string {
	if strings.ContainsRune(s, ' ') {
		s = strings.ReplaceAll(s, " ", " ")
	}
	if HasEdgeSpace(s) {
		s = strings.TrimSpace(s)
	}
	return s
}

// HasEdgeSpace reports whether s starts or ends with an ASCII whitespace
// byte. It is a cheap pre-check that lets hot paths skip TrimSpace on the
// common already-clean case.
func HasEdgeSpace(s string) bool {
	n := len(s)
	if n == 0 {
		return false
	}
	b0, b1 := s[0], s[n-1]
	return b0 == ' ' || b0 == '\t' || b0 == '\n' || b0 == '\r' ||
		b1 == ' ' || b1 == '\t' || b1 == '\n' || b1 == '\r'
}
