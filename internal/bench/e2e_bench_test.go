package bench

import (
	"context"
	"fmt"
	"testing"

	"qbank/internal/assemble"
	"qbank/internal/schema"
	"qbank/internal/storage"
	"qbank/internal/transformer/builtin"
	"qbank/pkg/records"
)

// syntheticRows builds n raw export rows the way a parser would emit them:
// string cells, mixed casing, a sprinkle of unsupported types and blank
// quiz names.
func syntheticRows(n int) []records.Record {
	rows := make([]records.Record, n)
	for i := 0; i < n; i++ {
		r := records.Record{
			"Question":       fmt.Sprintf("Which setting controls item %d?", i),
			"Options":        "A) The portal; B) The CLI; C) An ARM template; D) A policy",
			"Question Type":  "",
			"Correct Answer": "C) An ARM template",
			"Explanation":    "Templates declare the desired state.",
			"Category":       "MICROSOFT",
			"Collection":     "Microsoft Azure",
			"Difficulty":     "medium",
		}
		switch i % 10 {
		case 0:
			r["Question Type"] = "hotspot"
		case 1:
			r["Quiz"] = "Governance"
		}
		rows[i] = r
	}
	return rows
}

// BenchmarkEndToEnd exercises the hot path of one run in memory: the stage
// chain over raw rows, the assembler, and the batched loader feeding a fake
// copy function. No I/O, no drivers.
//
// Run with:
//
//	go test -run=^$ -bench ^BenchmarkEndToEnd$ -benchmem ./internal/bench
func BenchmarkEndToEnd(b *testing.B) {
	ctx := context.Background()
	chain := builtin.DefaultChain()

	copyFn := func(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
		return int64(len(rows)), nil
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		rows := syntheticRows(2000)
		b.StartTimer()

		normalized := chain.Apply(rows)
		res := assemble.Build(normalized, nil, nil)

		for _, sheet := range schema.SheetOrder() {
			cols := schema.BuiltinColumns(sheet)
			n, err := storage.LoadTable(ctx, sheet, cols,
				storage.Rows(res.Table(sheet), cols), 500, copyFn)
			if err != nil {
				b.Fatalf("LoadTable %s: %v", sheet, err)
			}
			_ = n
		}
	}
}

// BenchmarkAssemble isolates the assembler, the stage with the densest
// per-row work (type resolution, key derivation, tag inference).
func BenchmarkAssemble(b *testing.B) {
	rows := builtin.DefaultChain().Apply(syntheticRows(2000))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := assemble.Build(rows, nil, nil)
		if len(res.Questions) == 0 {
			b.Fatalf("no questions assembled")
		}
	}
}
