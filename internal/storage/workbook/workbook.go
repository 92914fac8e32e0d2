// Package workbook writes the five assembled tables to a multi-sheet xlsx
// workbook, one sheet per entity in import order, header row first. This is
// the default sink: its output is what the destination platform's bulk
// importer consumes directly.
package workbook

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"qbank/internal/assemble"
	"qbank/internal/schema"
	"qbank/internal/storage"
	"qbank/internal/template"
	"qbank/pkg/records"
)

func init() {
	storage.Register("workbook", func(ctx context.Context, cfg storage.Config) (storage.Sink, func(), error) {
		s, err := NewSink(cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	})
}

// Sink writes one run to an xlsx file at Path.
type Sink struct {
	path string
}

// NewSink validates the output path and returns a Sink. Nothing touches the
// filesystem until Write.
func NewSink(cfg storage.Config) (*Sink, error) {
	p := strings.TrimSpace(cfg.Path)
	if p == "" {
		return nil, fmt.Errorf("workbook: output path must not be empty")
	}
	if ext := strings.ToLower(filepath.Ext(p)); ext != ".xlsx" {
		return nil, fmt.Errorf("workbook: output path %q must end in .xlsx", p)
	}
	return &Sink{path: p}, nil
}

// Write renders the five tables into sheets named after their entities, in
// import order, and saves the workbook. It returns the number of data rows
// written (headers excluded).
func (s *Sink) Write(ctx context.Context, tpl *template.Schema, res assemble.Result) (int64, error) {
	if tpl == nil {
		tpl = template.Default()
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("workbook: close: %v", cerr)
		}
	}()

	var total int64
	for _, sheet := range schema.SheetOrder() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		cols := tpl.ColumnsFor(sheet)
		if cols == nil {
			cols = schema.BuiltinColumns(sheet)
		}
		if _, err := f.NewSheet(sheet); err != nil {
			return total, fmt.Errorf("workbook: new sheet %q: %w", sheet, err)
		}
		n, err := writeSheet(f, sheet, cols, res.Table(sheet))
		if err != nil {
			return total, err
		}
		total += n
	}

	// excelize seeds every file with "Sheet1"; the importer expects only the
	// five entity sheets.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return total, fmt.Errorf("workbook: delete default sheet: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return total, fmt.Errorf("workbook: save %s: %w", s.path, err)
	}
	log.Printf("workbook: wrote %d rows across %d sheets to %s", total, len(schema.SheetOrder()), s.path)
	return total, nil
}

func writeSheet(f *excelize.File, sheet string, cols []string, recs []records.Record) (int64, error) {
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return 0, err
	}

	var n int64
	for i, rec := range recs {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellValue(rec[c])
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("workbook: cell name for row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("workbook: write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

// cellValue keeps primitives as-is so spreadsheet types survive (bools render
// TRUE/FALSE, ints stay numeric); anything exotic falls back to its string
// form.
func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return v
	}
	return records.Stringify(v)
}
