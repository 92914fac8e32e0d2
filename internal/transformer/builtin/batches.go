package builtin

import (
	"fmt"
	"strings"

	"qbank/internal/schema"
	"qbank/pkg/records"
)

// DefaultBatchSize is how many ungrouped rows share one generated quiz.
const DefaultBatchSize = 45

// Batches fills blank Quiz values with sequential "Batch N" names so every
// row lands in a quiz. N comes from the row's 0-based position in the full
// table: rows 0..size-1 get "Batch 1", the next size rows "Batch 2", and so
// on. Rows that already name a quiz keep it, and a table where every row
// names one passes through untouched. Grouping is expected upstream; this
// is the fallback.
type Batches struct {
	Size int // rows per generated quiz; <=0 means DefaultBatchSize
}

// Apply mutates blank Quiz cells in place and returns the input slice.
func (b Batches) Apply(in []records.Record) []records.Record {
	size := b.Size
	if size <= 0 {
		size = DefaultBatchSize
	}
	for i, r := range in {
		if isBlank(r[schema.FieldQuiz]) {
			r[schema.FieldQuiz] = fmt.Sprintf("Batch %d", 1+i/size)
		}
	}
	return in
}

// isBlank treats nil and whitespace-only strings as blank. Any other value
// counts as a real quiz name.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
