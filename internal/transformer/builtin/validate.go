package builtin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"qbank/internal/schema"
	"qbank/pkg/records"
)

// Field is one column rule inside a Contract.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // "int" | "text" | "bool"
	Required bool     `json:"required,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Truthy   []string `json:"truthy,omitempty"` // bool parsing
	Falsy    []string `json:"falsy,omitempty"`
}

// Contract is a named set of per-field rules a record batch must satisfy.
type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// DefaultQuestionContract lints a reconciled-and-normalized question table:
// Question text present, type/difficulty in vocabulary, flags boolean.
func DefaultQuestionContract() Contract {
	return Contract{
		Name: "question-row",
		Fields: []Field{
			{Name: schema.FieldQuestion, Type: "text", Required: true},
			{Name: schema.FieldDifficulty, Type: "text", Enum: []string{"low", "medium", "high"}},
			{Name: schema.FieldIsPublic, Type: "bool"},
			{Name: schema.FieldHasImage, Type: "bool"},
		},
	}
}

// Validate checks records against a Contract and drops the ones that fail,
// optionally reporting each rejection. Per-field metadata (enum sets,
// truthy/falsy sets) is precomputed once and reused across batches.
type Validate struct {
	Contract Contract
	Reject   func(RejectedRow) // optional sink

	metaOnce sync.Once
	meta     []fieldMeta
}

// RejectedRow describes one dropped record for the Reject sink.
type RejectedRow struct {
	Raw    records.Record
	Reason string
	Stage  string
}

// fieldMeta is the hot-path form of a single contract field.
type fieldMeta struct {
	name     string
	kind     string // "int","bool","string",""
	required bool

	enumSet   map[string]struct{}
	truthySet map[string]struct{}
	falsySet  map[string]struct{}

	// original enum list, for error messages
	enumList []string
}

// Default truthy/falsy string forms, lowercased.
var (
	defaultTruthy = map[string]struct{}{
		"true": {}, "1": {}, "yes": {}, "y": {},
	}
	defaultFalsy = map[string]struct{}{
		"false": {}, "0": {}, "no": {}, "n": {},
	}
)

func (v *Validate) buildMeta() {
	v.metaOnce.Do(func() {
		if len(v.Contract.Fields) == 0 {
			return
		}
		v.meta = make([]fieldMeta, 0, len(v.Contract.Fields))
		for _, f := range v.Contract.Fields {
			m := fieldMeta{
				name:     f.Name,
				kind:     normalizeKind(f.Type),
				required: f.Required,
			}
			if len(f.Enum) > 0 {
				m.enumSet = make(map[string]struct{}, len(f.Enum))
				for _, s := range f.Enum {
					// Enum compares the exact string form; no folding.
					m.enumSet[s] = struct{}{}
				}
				m.enumList = append(m.enumList, f.Enum...)
			}
			if len(f.Truthy) > 0 {
				m.truthySet = make(map[string]struct{}, len(f.Truthy))
				for _, s := range f.Truthy {
					m.truthySet[strings.ToLower(s)] = struct{}{}
				}
			}
			if len(f.Falsy) > 0 {
				m.falsySet = make(map[string]struct{}, len(f.Falsy))
				for _, s := range f.Falsy {
					m.falsySet[strings.ToLower(s)] = struct{}{}
				}
			}
			v.meta = append(v.meta, m)
		}
	})
}

// Apply appends valid records to a new slice. Invalid ones are dropped,
// optionally reported via Reject.
func (v *Validate) Apply(in []records.Record) []records.Record {
	v.buildMeta()
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		if ok, reason := v.validateRecord(rec); ok {
			out = append(out, rec)
		} else if v.Reject != nil {
			v.Reject(RejectedRow{Raw: rec, Reason: reason, Stage: "validate"})
		}
	}
	return out
}

// validateRecord is the hot-path check. It leans on precomputed meta to
// avoid per-row map iteration and repeated lowercasing.
func (v *Validate) validateRecord(r records.Record) (bool, string) {
	for i := range v.meta {
		fm := &v.meta[i]
		val, exists := r[fm.name]

		// nil and empty-string count as missing. No TrimSpace here: an
		// all-space value is still a value.
		if !exists || val == nil || (isString(val) && val.(string) == "") {
			if fm.required {
				return false, fmt.Sprintf("required field %q missing", fm.name)
			}
			continue
		}

		switch fm.kind {
		case "int":
			switch t := val.(type) {
			case int, int32, int64:
				// ok
			case float64:
				// ok (json numbers decoded loosely)
			case json.Number:
				if _, err := t.Int64(); err != nil {
					return false, fmt.Sprintf("field %q: %q not an int", fm.name, t.String())
				}
			case string:
				s := t
				if HasEdgeSpace(s) {
					s = strings.TrimSpace(s)
				}
				if _, err := strconv.ParseInt(s, 10, 64); err != nil {
					return false, fmt.Sprintf("field %q: %q not an int", fm.name, t)
				}
			default:
				return false, fmt.Sprintf("field %q: type %T not int-convertible", fm.name, t)
			}

		case "bool":
			if _, isBool := val.(bool); isBool {
				break
			}
			raw := asString(val)
			var s string
			if HasEdgeSpace(raw) {
				s = strings.ToLower(strings.TrimSpace(raw))
			} else {
				s = strings.ToLower(raw)
			}
			if s == "" {
				break
			}
			if !isBoolInSets(s, fm.truthySet, fm.falsySet) {
				return false, fmt.Sprintf("field %q: %q not a recognized boolean", fm.name, raw)
			}

		case "text", "string", "":
			// accept anything

		default:
			// Unknown kind: accept.
		}

		if fm.enumSet != nil {
			s := asString(val)
			if _, ok := fm.enumSet[s]; !ok {
				return false, fmt.Sprintf("field %q: %q not in enum %v", fm.name, s, fm.enumList)
			}
		}
	}
	return true, ""
}

// asString converts common types to string without the overhead of
// fmt.Sprint; falls back to fmt.Sprint for uncommon types.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// isBoolInSets checks membership against custom sets when provided,
// otherwise the defaults. s must already be lowercased.
func isBoolInSets(s string, truthy, falsy map[string]struct{}) bool {
	if truthy == nil && falsy == nil {
		if _, ok := defaultTruthy[s]; ok {
			return true
		}
		_, ok := defaultFalsy[s]
		return ok
	}
	if _, ok := truthy[s]; ok {
		return true
	}
	_, ok := falsy[s]
	return ok
}

// normalizeKind maps loose type names onto the validator's kind switch:
// "integer"/"int4"/... → "int", "boolean" → "bool", "text" → "string".
// Anything else passes through lowercased and is accepted as-is.
func normalizeKind(t string) string {
	s := strings.ToLower(t)
	switch s {
	case "bigint", "int8", "integer", "int4", "int2", "int":
		return "int"
	case "boolean", "bool":
		return "bool"
	case "text", "string":
		return "string"
	default:
		return s
	}
}
