package xlsx_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	pxlsx "qbank/internal/parser/xlsx"
)

// buildWorkbook assembles an in-memory xlsx file. Sheets are created in the
// order given; the default Sheet1 is removed unless named.
func buildWorkbook(t testing.TB, order []string, sheets map[string][][]any) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	for _, name := range order {
		if name != "Sheet1" {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("new sheet %q: %v", name, err)
			}
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	keep := false
	for _, name := range order {
		if name == "Sheet1" {
			keep = true
		}
	}
	if !keep {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("delete default sheet: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParsePrefersExtractionTemplate(t *testing.T) {
	wb := buildWorkbook(t, []string{"Notes", "Extraction Template"}, map[string][][]any{
		"Notes": {
			{"junk"},
		},
		"Extraction Template": {
			{"Question", "Difficulty"},
			{"What is a VNet?", "easy"},
		},
	})

	recs, skipped, err := pxlsx.NewParser(pxlsx.Options{HasHeader: true}).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped=%d want=0", skipped)
	}
	if len(recs) != 1 {
		t.Fatalf("len=%d want=1", len(recs))
	}
	if got := recs[0]["Question"]; got != "What is a VNet?" {
		t.Fatalf("Question=%v want=%q", got, "What is a VNet?")
	}
}

func TestParseFallsBackToFirstSheet(t *testing.T) {
	wb := buildWorkbook(t, []string{"Data", "Other"}, map[string][][]any{
		"Data": {
			{"Question"},
			{"Q1?"},
		},
		"Other": {
			{"Question"},
			{"wrong sheet"},
		},
	})

	recs, _, err := pxlsx.NewParser(pxlsx.Options{HasHeader: true}).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := recs[0]["Question"]; got != "Q1?" {
		t.Fatalf("Question=%v want=Q1?", got)
	}
}

func TestParseExplicitSheet(t *testing.T) {
	wb := buildWorkbook(t, []string{"Extraction Template", "Overrides"}, map[string][][]any{
		"Extraction Template": {
			{"Question"},
			{"default"},
		},
		"Overrides": {
			{"Question"},
			{"explicit"},
		},
	})

	recs, _, err := pxlsx.NewParser(pxlsx.Options{HasHeader: true, Sheet: "Overrides"}).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := recs[0]["Question"]; got != "explicit" {
		t.Fatalf("Question=%v want=explicit", got)
	}
}

func TestParseMissingExplicitSheet(t *testing.T) {
	wb := buildWorkbook(t, []string{"Data"}, map[string][][]any{
		"Data": {{"Question"}, {"Q1?"}},
	})

	_, _, err := pxlsx.NewParser(pxlsx.Options{HasHeader: true, Sheet: "Nope"}).Parse(wb)
	if err == nil {
		t.Fatalf("expected error for missing sheet")
	}
	if !strings.Contains(err.Error(), "Nope") {
		t.Fatalf("error %q should name the missing sheet", err)
	}
}

func TestParseRaggedRows(t *testing.T) {
	wb := buildWorkbook(t, []string{"Data"}, map[string][][]any{
		"Data": {
			{"a", "b", "c"},
			// One row short of the header, one row past it.
			{"1"},
			{"2", "3", "4", "5"},
		},
	})

	recs, skipped, err := pxlsx.NewParser(pxlsx.Options{HasHeader: true}).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped=%d want=0", skipped)
	}
	if len(recs) != 2 {
		t.Fatalf("len=%d want=2", len(recs))
	}

	if got := recs[0]["a"]; got != "1" {
		t.Fatalf("a=%v want=1", got)
	}
	if got := recs[0]["b"]; got != nil {
		t.Fatalf("short row b=%v want=nil", got)
	}
	if got := recs[0]["c"]; got != nil {
		t.Fatalf("short row c=%v want=nil", got)
	}
	if got := recs[1]["col_3"]; got != "5" {
		t.Fatalf("col_3=%v want=5", got)
	}
}

func TestParseSkipsBlankRows(t *testing.T) {
	wb := buildWorkbook(t, []string{"Data"}, map[string][][]any{
		"Data": {
			{"Question"},
			{"Q1?"},
			{"   "},
			{"Q2?"},
		},
	})

	recs, skipped, err := pxlsx.NewParser(pxlsx.Options{HasHeader: true, TrimSpace: true}).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped=%d want=1", skipped)
	}
	if len(recs) != 2 {
		t.Fatalf("len=%d want=2", len(recs))
	}
	if got := recs[1]["Question"]; got != "Q2?" {
		t.Fatalf("Question=%v want=Q2?", got)
	}
}

func TestParseNoHeader(t *testing.T) {
	wb := buildWorkbook(t, []string{"Data"}, map[string][][]any{
		"Data": {
			{"x", "y"},
		},
	})

	recs, _, err := pxlsx.NewParser(pxlsx.Options{}).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len=%d want=1", len(recs))
	}
	if got := recs[0]["col_1"]; got != "y" {
		t.Fatalf("col_1=%v want=y", got)
	}
}

func TestParseHeaderMap(t *testing.T) {
	wb := buildWorkbook(t, []string{"Data"}, map[string][][]any{
		"Data": {
			{"Q#"},
			{"Why?"},
		},
	})

	opt := pxlsx.Options{HasHeader: true, HeaderMap: map[string]string{"Q#": "Question"}}
	recs, _, err := pxlsx.NewParser(opt).Parse(wb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := recs[0]["Question"]; got != "Why?" {
		t.Fatalf("Question=%v want=Why?", got)
	}
}

func TestSheetNames(t *testing.T) {
	wb := buildWorkbook(t, []string{"One", "Two"}, map[string][][]any{
		"One": {{"a"}},
		"Two": {{"b"}},
	})

	names, err := pxlsx.SheetNames(wb)
	if err != nil {
		t.Fatalf("sheet names: %v", err)
	}
	if got, want := strings.Join(names, ","), "One,Two"; got != want {
		t.Fatalf("names=%q want=%q", got, want)
	}
}

func TestParseNotAWorkbook(t *testing.T) {
	_, _, err := pxlsx.NewParser(pxlsx.Options{}).Parse(strings.NewReader("Question,Options\nQ?,A) x\n"))
	if err == nil {
		t.Fatalf("expected error for non-xlsx input")
	}
}
