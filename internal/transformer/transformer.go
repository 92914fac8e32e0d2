// Package transformer defines the record transformation stage of the
// pipeline: an ordered chain of batch transforms applied between parsing
// and assembly. Concrete transforms live in the builtin subpackage.
package transformer

import "qbank/pkg/records"

// Transformer rewrites a batch of records. Implementations may mutate the
// input slice and its records in place; callers must not rely on the input
// afterwards.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers applied left to right.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
