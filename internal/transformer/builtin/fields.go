package builtin

import (
	"regexp"
	"strings"

	"qbank/internal/schema"
	"qbank/pkg/records"
)

// Fields applies the per-field defaulting and coercion rules that make a
// reconciled row safe for assembly. Defaults fill nil values only; an empty
// string is a real value and survives (the batch assigner later treats
// blank and missing Quiz the same way).
//
// Free-text columns (Question, Options, Correct Options, Explanation) pass
// through verbatim: the image lookup matches on exact question text.
type Fields struct{}

var (
	hintPrefix  = regexp.MustCompile(`(?i)^hint\s*:\s*`)
	hintTrailer = regexp.MustCompile(`\s*\[[0-9A-Za-z]{3,8}\]\s*$`)
)

var difficulties = map[string]struct{}{"low": {}, "medium": {}, "high": {}}

// Truthy string forms, lowercase-trimmed. has_image deliberately accepts a
// narrower set than isPublic.
var (
	publicTruthy = map[string]struct{}{"true": {}, "1": {}, "yes": {}, "y": {}}
	imageTruthy  = map[string]struct{}{"true": {}, "1": {}}
)

// Apply mutates every record in place and returns the input slice.
func (Fields) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		r[schema.FieldCategory] = strings.ToUpper(stringOr(r[schema.FieldCategory], "MICROSOFT"))
		if r[schema.FieldCollection] == nil {
			r[schema.FieldCollection] = "Microsoft Azure"
		}
		if r[schema.FieldTag] == nil {
			r[schema.FieldTag] = ""
		}
		r[schema.FieldIsPublic] = truthyFlag(r[schema.FieldIsPublic], true, publicTruthy)
		r[schema.FieldStatus] = "draft"
		r[schema.FieldDifficulty] = clampDifficulty(r[schema.FieldDifficulty])
		r[schema.FieldQuestionType] = strings.ToLower(stringOr(r[schema.FieldQuestionType], "multiple_choice"))
		r[schema.FieldHints] = CleanHint(r[schema.FieldHints])
		r[schema.FieldHasImage] = truthyFlag(r[schema.FieldHasImage], false, imageTruthy)
	}
	return in
}

// stringOr stringifies v, substituting def when v is nil.
func stringOr(v any, def string) string {
	if v == nil {
		return def
	}
	return asString(v)
}

// truthyFlag coerces a flag column to bool: nil takes the default, bools
// pass through, anything else is stringified and matched against set.
func truthyFlag(v any, def bool, set map[string]struct{}) bool {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		return t
	default:
		s := strings.ToLower(strings.TrimSpace(asString(t)))
		_, ok := set[s]
		return ok
	}
}

// clampDifficulty lowercases the value and collapses anything outside
// {low, medium, high} to "medium". nil and "" land on "medium" too.
func clampDifficulty(v any) string {
	s := strings.ToLower(strings.TrimSpace(asString(v)))
	if _, ok := difficulties[s]; ok {
		return s
	}
	return "medium"
}

// CleanHint strips hint text: edge whitespace, a leading "hint:" label and
// a trailing bracketed 3-8 char alphanumeric tag such as "[AB12]". The
// assembler applies it again when emitting questions, so hints come out
// clean even under a custom chain that skips the fields stage. It is
// idempotent.
func CleanHint(v any) string {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return ""
	}
	s = hintPrefix.ReplaceAllString(s, "")
	s = hintTrailer.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
