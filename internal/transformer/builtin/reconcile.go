// Package builtin contains the pipeline's stage transforms plus a few
// generic, opt-in record cleanups.
//
// The default chain for a question export runs, in order:
//
//	Reconcile  -> map arbitrary columns onto the canonical 14-field schema
//	DropTypes  -> remove question styles the destination cannot represent
//	Fields     -> per-field defaults and coercions
//	Batches    -> group ungrouped rows into fixed-size sequential quizzes
//
// Everything else here (Normalize, StripHTML, DeDup, Require, Validate) is
// enabled per-config for exports that need it.
package builtin

import (
	"sort"

	"qbank/internal/schema"
	"qbank/pkg/records"
)

// Reconcile rewrites every record onto the canonical 14-column question
// schema. Input columns that resolve to no canonical name are dropped;
// canonical columns with no source are present with a nil value. When
// several input headers resolve to the same column, a header that names the
// column directly beats an alias, and ties inside each class break by
// lexical header order so reruns pick the same source.
type Reconcile struct{}

// Apply replaces each record in place with its reconciled form.
func (Reconcile) Apply(in []records.Record) []records.Record {
	cols := schema.CanonicalColumns()
	for i, r := range in {
		in[i] = reconcileRecord(r, cols)
	}
	return in
}

func reconcileRecord(r records.Record, cols []string) records.Record {
	headers := make([]string, 0, len(r))
	for h := range r {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	// canonical column -> winning input header. Direct names claim first.
	src := make(map[string]string, len(cols))
	for _, h := range headers {
		if c, ok := schema.CanonicalColumn(h); ok {
			if _, taken := src[c]; !taken {
				src[c] = h
			}
		}
	}
	for _, h := range headers {
		if c, ok := schema.ResolveHeader(h); ok {
			if _, taken := src[c]; !taken {
				src[c] = h
			}
		}
	}

	out := make(records.Record, len(cols))
	for _, c := range cols {
		if h, ok := src[c]; ok {
			out[c] = r[h]
		} else {
			out[c] = nil
		}
	}
	return out
}
