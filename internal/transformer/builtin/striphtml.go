package builtin

import (
	"qbank/internal/parser/html"
	"qbank/internal/schema"
	"qbank/pkg/records"
)

// freeTextColumns are the defaults StripHTML cleans when no fields are
// configured.
var freeTextColumns = []string{
	schema.FieldQuestion,
	schema.FieldOptions,
	schema.FieldCorrectOptions,
	schema.FieldExplanation,
	schema.FieldHints,
}

// StripHTML is an opt-in cleanup for exports whose text cells carry markup,
// typically rich-text explanations pasted from an authoring tool. Tags are
// removed and the remaining whitespace collapsed. Fields defaults to the
// free-text columns. Like Normalize, it rewrites question text and so
// breaks exact-match image lookups built from the raw export.
type StripHTML struct {
	Fields []string
}

// Apply mutates records in place and returns the input slice.
func (t StripHTML) Apply(in []records.Record) []records.Record {
	fields := t.Fields
	if len(fields) == 0 {
		fields = freeTextColumns
	}
	for _, r := range in {
		for _, k := range fields {
			if s, ok := r[k].(string); ok {
				r[k] = html.NormalizeText(s)
			}
		}
	}
	return in
}
