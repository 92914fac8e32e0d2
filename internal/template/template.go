// Package template reads the destination workbook schema: the five entity
// sheets and their ordered header rows. The assembler coerces every output
// table to this column order and the sinks create their tables from it.
package template

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"qbank/internal/schema"
)

// ErrSchemaMismatch reports a template workbook that cannot drive a run:
// one of the five entity sheets is missing or carries no header row.
var ErrSchemaMismatch = errors.New("template schema mismatch")

// Schema is the destination column order per entity sheet.
type Schema struct {
	columns map[string][]string
}

// Default returns the built-in destination schema, used when no template
// workbook is supplied.
func Default() *Schema {
	m := make(map[string][]string, 5)
	for _, sheet := range schema.SheetOrder() {
		m[sheet] = schema.BuiltinColumns(sheet)
	}
	return &Schema{columns: m}
}

// FromColumns builds a Schema directly from a sheet -> columns map, for
// callers that synthesize a schema instead of reading a workbook.
func FromColumns(m map[string][]string) *Schema {
	cp := make(map[string][]string, len(m))
	for sheet, cols := range m {
		cp[sheet] = append([]string(nil), cols...)
	}
	return &Schema{columns: cp}
}

// Read parses a template workbook from r. Every entity sheet must exist
// and carry a header row; anything less is ErrSchemaMismatch.
func Read(r io.Reader) (*Schema, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("template: open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("template: close workbook: %v", cerr)
		}
	}()

	m := make(map[string][]string, 5)
	for _, sheet := range schema.SheetOrder() {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: sheet %q missing", ErrSchemaMismatch, sheet)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("template: read sheet %q: %w", sheet, err)
		}
		header := headerRow(rows)
		if len(header) == 0 {
			return nil, fmt.Errorf("%w: sheet %q has no header row", ErrSchemaMismatch, sheet)
		}
		m[sheet] = header
	}
	return &Schema{columns: m}, nil
}

// Load reads the workbook at path.
func Load(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// ColumnsFor returns the ordered destination columns for sheet, or nil for
// a sheet outside the template. Callers must not modify the result.
func (s *Schema) ColumnsFor(sheet string) []string {
	return s.columns[sheet]
}

// headerRow trims the first row's cells and drops trailing blanks.
// Interior blank headers are kept so the output matches the template
// byte for byte.
func headerRow(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, c := range rows[0] {
		header[i] = strings.TrimSpace(c)
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	return header
}
