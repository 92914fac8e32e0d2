// Package xlsx parses Excel question exports into records.Record maps.
//
// Agent-produced workbooks put the rows on a sheet named "Extraction
// Template"; when that sheet is absent the first sheet is used. Cell grids
// from xlsx files are ragged (trailing empty cells are simply not stored),
// so short rows are padded with nil rather than skipped.
package xlsx

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"qbank/internal/config"
	"qbank/pkg/records"
)

// PreferredSheet is the sheet picked by default when present in a workbook.
const PreferredSheet = "Extraction Template"

// Options configures the xlsx parser.
type Options struct {
	// Sheet names the sheet to read. When empty, PreferredSheet is used if
	// present, otherwise the workbook's first sheet.
	Sheet string

	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// TrimSpace trims leading/trailing space from each cell value.
	TrimSpace bool

	// HeaderMap renames specific source headers before they reach the
	// column reconciler.
	HeaderMap map[string]string
}

// FromConfigOptions builds Options from the generic config options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{
		Sheet:     o.String("sheet", ""),
		HasHeader: o.Bool("has_header", true),
		TrimSpace: o.Bool("trim_space", false),
		HeaderMap: o.StringMap("header_map"),
	}
}

// Parser parses xlsx input according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the configured sheet from the workbook in r. Fully blank rows
// are skipped and counted; ragged rows are padded with nil to the header
// width, and cells beyond it get synthesized col_N keys.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("close workbook: %v", cerr)
		}
	}()

	sheet, err := pickSheet(f, p.opt.Sheet)
	if err != nil {
		return nil, 0, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	var headers []string
	data := rows
	if p.opt.HasHeader {
		headers = cleanHeaders(rows[0], p.opt.HeaderMap)
		data = rows[1:]
	}

	var out []records.Record
	var skipped int
	for _, row := range data {
		if blankRow(row) {
			skipped++
			continue
		}

		width := len(headers)
		if len(row) > width {
			width = len(row)
		}
		rec := make(records.Record, width)
		for i := 0; i < width; i++ {
			var val string
			if i < len(row) {
				val = row[i]
			}
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, headers)] = emptyToNil(val)
		}
		out = append(out, rec)
	}

	return out, skipped, nil
}

// SheetNames reports the sheets in the workbook held by r, for inspection
// surfaces that let a user choose one.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// pickSheet resolves the sheet to read. An explicitly named sheet must
// exist; otherwise PreferredSheet wins over the first sheet when present.
func pickSheet(f *excelize.File, name string) (string, error) {
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if name != "" {
		idx, err := f.GetSheetIndex(name)
		if err != nil {
			return "", fmt.Errorf("resolve sheet %q: %w", name, err)
		}
		if idx < 0 {
			return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(list, ", "))
		}
		return name, nil
	}

	for _, s := range list {
		if s == PreferredSheet {
			return s, nil
		}
	}
	return list[0], nil
}

// blankRow reports whether every cell in the row is empty or whitespace.
func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// keyFor returns the column key for index idx, falling back to col_N for
// cells past the header width or under blank header cells.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// emptyToNil converts an empty string to nil; all other values pass through.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// cleanHeaders trims header cells and applies HeaderMap renames.
func cleanHeaders(h []string, hm map[string]string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if hm != nil {
			if m, ok := hm[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = c
	}
	return res
}
