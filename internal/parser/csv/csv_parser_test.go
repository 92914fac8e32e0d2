package csv_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"qbank/internal/config"
	pcsv "qbank/internal/parser/csv"
)

func parseString(t *testing.T, opt pcsv.Options, in string) ([]map[string]any, int) {
	t.Helper()
	recs, skipped, err := pcsv.NewParser(opt).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out, skipped
}

func TestParseBasic(t *testing.T) {
	t.Parallel()

	in := "Question,Options,Difficulty\nWhat is a VNet?,A) net; B) vm,easy\nSecond?,,hard\n"
	recs, skipped := parseString(t, pcsv.Options{HasHeader: true}, in)

	if skipped != 0 {
		t.Fatalf("skipped=%d want=0", skipped)
	}
	if len(recs) != 2 {
		t.Fatalf("len=%d want=2", len(recs))
	}
	if got := recs[0]["Question"]; got != "What is a VNet?" {
		t.Fatalf("Question=%v want=%q", got, "What is a VNet?")
	}
	if got := recs[1]["Options"]; got != nil {
		t.Fatalf("empty cell=%v want=nil", got)
	}
}

func TestParseHeaderCleanup(t *testing.T) {
	t.Parallel()

	// BOM on the first header cell, stray spaces around the second.
	in := "\ufeffQuestion,  Difficulty \nQ1,easy\n"
	recs, _ := parseString(t, pcsv.Options{HasHeader: true}, in)

	if len(recs) != 1 {
		t.Fatalf("len=%d want=1", len(recs))
	}
	if got := recs[0]["Question"]; got != "Q1" {
		t.Fatalf("Question=%v want=Q1 (BOM should be stripped from header)", got)
	}
	if got := recs[0]["Difficulty"]; got != "easy" {
		t.Fatalf("Difficulty=%v want=easy (header should be trimmed)", got)
	}
}

func TestParseHeaderMap(t *testing.T) {
	t.Parallel()

	opt := pcsv.Options{
		HasHeader: true,
		HeaderMap: map[string]string{"Q#": "Question"},
	}
	recs, _ := parseString(t, opt, "Q#,Answer\nWhy?,A\n")

	if got := recs[0]["Question"]; got != "Why?" {
		t.Fatalf("Question=%v want=Why? (header map should rename Q#)", got)
	}
	if got := recs[0]["Answer"]; got != "A" {
		t.Fatalf("Answer=%v want=A", got)
	}
}

func TestParseTrimSpace(t *testing.T) {
	t.Parallel()

	recs, _ := parseString(t, pcsv.Options{HasHeader: true, TrimSpace: true}, "a,b\n  x  , y\n")
	if got := recs[0]["a"]; got != "x" {
		t.Fatalf("a=%v want=x", got)
	}

	// Cells that trim to nothing become nil like any other empty cell.
	recs, _ = parseString(t, pcsv.Options{HasHeader: true, TrimSpace: true}, "a,b\n   ,y\n")
	if got := recs[0]["a"]; got != nil {
		t.Fatalf("a=%v want=nil", got)
	}
}

func TestParseSkipsShortRows(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2,3\nx,y\n4,5,6\n"
	recs, skipped := parseString(t, pcsv.Options{HasHeader: true}, in)

	if skipped != 1 {
		t.Fatalf("skipped=%d want=1", skipped)
	}
	if len(recs) != 2 {
		t.Fatalf("len=%d want=2", len(recs))
	}
	if got := recs[1]["c"]; got != "6" {
		t.Fatalf("c=%v want=6", got)
	}
}

func TestParseNoHeader(t *testing.T) {
	t.Parallel()

	t.Run("expected fields", func(t *testing.T) {
		opt := pcsv.Options{ExpectedFields: 2}
		recs, skipped := parseString(t, opt, "1,2\n3\n4,5\n")
		if skipped != 1 {
			t.Fatalf("skipped=%d want=1", skipped)
		}
		if got := recs[1]["col_1"]; got != "5" {
			t.Fatalf("col_1=%v want=5", got)
		}
	})

	t.Run("free width", func(t *testing.T) {
		recs, skipped := parseString(t, pcsv.Options{}, "1,2\n3,4,5\n")
		if skipped != 0 {
			t.Fatalf("skipped=%d want=0", skipped)
		}
		if got := recs[1]["col_2"]; got != "5" {
			t.Fatalf("col_2=%v want=5", got)
		}
	})
}

func TestParseSemicolonDelimiter(t *testing.T) {
	t.Parallel()

	recs, _ := parseString(t, pcsv.Options{HasHeader: true, Comma: ';'}, "a;b\n1;2\n")
	if got := recs[0]["b"]; got != "2" {
		t.Fatalf("b=%v want=2", got)
	}
}

func TestParseScrubNBSP(t *testing.T) {
	t.Parallel()

	in := "a,b\nfoo bar,2\n"

	recs, _ := parseString(t, pcsv.Options{HasHeader: true, ScrubNBSP: true}, in)
	if got := recs[0]["a"]; got != "foo bar" {
		t.Fatalf("a=%q want=%q", got, "foo bar")
	}

	// Without the scrub the NBSP survives untouched.
	recs, _ = parseString(t, pcsv.Options{HasHeader: true}, in)
	if got := recs[0]["a"]; got != "foo bar" {
		t.Fatalf("a=%q want NBSP preserved", got)
	}
}

// TestParseScrubAcrossChunks places the two-byte NBSP sequence exactly on the
// rewriter's 64 KiB block boundary so the first byte lands at the end of one
// block and the second at the start of the next.
func TestParseScrubAcrossChunks(t *testing.T) {
	t.Parallel()

	const header = "a,b\n"
	pad := 64*1024 - len(header) - 1 // first NBSP byte is the last byte of block one
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(strings.Repeat("x", pad))
	sb.WriteString(" ")
	sb.WriteString(",y\n")

	recs, skipped := parseString(t, pcsv.Options{HasHeader: true, ScrubNBSP: true}, sb.String())
	if skipped != 0 {
		t.Fatalf("skipped=%d want=0", skipped)
	}
	want := strings.Repeat("x", pad) + " "
	got, _ := recs[0]["a"].(string)
	if got != want {
		t.Fatalf("boundary scrub failed: len(got)=%d want len=%d", len(got), len(want))
	}
}

func TestFromConfigOptions(t *testing.T) {
	t.Parallel()

	opt := pcsv.FromConfigOptions(config.Options{
		"has_header":      false,
		"comma":           ";",
		"trim_space":      true,
		"expected_fields": 14,
		"scrub_nbsp":      true,
		"header_map":      map[string]any{"Q#": "Question"},
	})

	if opt.HasHeader {
		t.Fatalf("HasHeader=true want=false")
	}
	if opt.Comma != ';' {
		t.Fatalf("Comma=%q want=';'", opt.Comma)
	}
	if !opt.TrimSpace || !opt.ScrubNBSP {
		t.Fatalf("TrimSpace=%v ScrubNBSP=%v want both true", opt.TrimSpace, opt.ScrubNBSP)
	}
	if opt.ExpectedFields != 14 {
		t.Fatalf("ExpectedFields=%d want=14", opt.ExpectedFields)
	}
	if got := opt.HeaderMap["Q#"]; got != "Question" {
		t.Fatalf("HeaderMap[Q#]=%q want=Question", got)
	}
}

func TestSampleRows(t *testing.T) {
	t.Parallel()

	in := "a,b\n1,2\n3,4\n5,6\n"
	headers, rows, err := pcsv.SampleRows(context.Background(), strings.NewReader(in), pcsv.Options{HasHeader: true}, 2)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if got, want := strings.Join(headers, ","), "a,b"; got != want {
		t.Fatalf("headers=%q want=%q", got, want)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want=2", len(rows))
	}
	if got, want := strings.Join(rows[1], ","), "3,4"; got != want {
		t.Fatalf("row1=%q want=%q", got, want)
	}
}

func TestSampleRowsNoHeader(t *testing.T) {
	t.Parallel()

	headers, rows, err := pcsv.SampleRows(context.Background(), strings.NewReader("1,2,3\n"), pcsv.Options{}, 5)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if got, want := strings.Join(headers, ","), "col_0,col_1,col_2"; got != want {
		t.Fatalf("headers=%q want=%q", got, want)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d want=1", len(rows))
	}
}

func buildCSV(n int) string {
	var sb strings.Builder
	sb.Grow(n * 64)
	sb.WriteString("Question,Options,Correct Options,Difficulty\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "Question %d?,A) one; B) two; C) three,B,medium\n", i)
	}
	return sb.String()
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	in := buildCSV(10_000)
	p := pcsv.NewParser(pcsv.Options{HasHeader: true, TrimSpace: true})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		recs, _, err := p.Parse(strings.NewReader(in))
		if err != nil {
			b.Fatalf("parse: %v", err)
		}
		if len(recs) != 10_000 {
			b.Fatalf("len=%d want=10000", len(recs))
		}
	}
}
