package builtin

import "qbank/pkg/records"

// Require removes any record missing a value for one of the listed fields.
// Missing, nil and empty-string all count as absent. Typical use: drop rows
// with no Question text before assembly.
type Require struct {
	Fields []string
}

// Apply filters in place and returns the surviving prefix.
func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		ok := true
		for _, f := range r.Fields {
			v, exists := rec[f]
			if !exists || v == nil || v == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out
}
