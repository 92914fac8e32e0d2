// Package csv parses question-export CSV files. Headers pass through
// verbatim (minus BOM and surrounding space); mapping arbitrary header
// names onto the canonical schema belongs to the column reconciler, not the
// parser. Malformed rows are skipped and counted, never fatal.
//
// Spreadsheet tools love to leave U+00A0 (non-breaking space) behind in
// exported cells; the optional ScrubNBSP knob rewrites those to plain
// spaces on the fly, without buffering the whole file.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"qbank/internal/config"
	"qbank/pkg/records"
)

// Options configures the CSV parser. All fields are optional; zero values
// give a plain comma-separated read with a header row.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Without one, columns are keyed col_0, col_1, ...
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing space from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0, enforces a fixed field count per record.
	// Rows with a different width are skipped and counted.
	ExpectedFields int

	// HeaderMap renames specific source headers before they reach the
	// reconciler, for exports whose headers defeat alias matching entirely.
	HeaderMap map[string]string

	// ScrubNBSP rewrites U+00A0 to a plain space before the bytes reach
	// encoding/csv, using a rolling rewriter that never buffers the whole
	// stream.
	ScrubNBSP bool
}

// FromConfigOptions builds Options from the generic config options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{
		HasHeader:      o.Bool("has_header", true),
		Comma:          o.Rune("comma", ','),
		TrimSpace:      o.Bool("trim_space", false),
		ExpectedFields: o.Int("expected_fields", 0),
		HeaderMap:      o.StringMap("header_map"),
		ScrubNBSP:      o.Bool("scrub_nbsp", false),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// nbsp is the UTF-8 encoding of U+00A0.
var nbsp = []byte{0xC2, 0xA0}

// streamingRewriter is an io.Reader that performs a rolling find/replace:
// it replaces occurrences of pat with repl without buffering the entire
// stream. To match sequences spanning chunk boundaries it retains the last
// len(pat)-1 bytes from each processed block and prepends them to the next.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	capacity := 0
	if n := len(pat) - 1; n > 0 {
		capacity = n
	}
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, capacity),
	}
}

// Read fills p from the internal buffer; when empty, it reads the next
// chunk, performs the rolling replacement, and withholds the trailing
// len(pat)-1 bytes as carry for the next call. On EOF the carry flushes.
func (sr *streamingRewriter) Read(p []byte) (int, error) {
	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}

	tmp := make([]byte, 64*1024)
	n, rerr := sr.br.Read(tmp)
	if n > 0 {
		block := tmp[:n]

		if len(sr.carry) > 0 {
			joined := make([]byte, 0, len(sr.carry)+len(block))
			joined = append(joined, sr.carry...)
			joined = append(joined, block...)
			block = joined
		}

		if len(sr.pat) > 0 && !bytes.Equal(sr.pat, sr.repl) {
			block = bytes.ReplaceAll(block, sr.pat, sr.repl)
		}

		k := len(sr.pat) - 1
		if k < 0 {
			k = 0
		}
		if k > 0 && len(block) > k {
			sr.buf.Write(block[:len(block)-k])
			sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
		} else {
			sr.carry = append(sr.carry[:0], block...)
		}
	}

	if rerr == io.EOF {
		if len(sr.carry) > 0 {
			sr.buf.Write(sr.carry)
			sr.carry = sr.carry[:0]
		}
		sr.eof = true
	} else if rerr != nil {
		return 0, rerr
	}

	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}
	return 0, nil
}

// Parse consumes CSV records from r and returns the parsed rows along with
// the number of rows skipped over parse errors or field-count mismatches.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	if p.opt.ScrubNBSP {
		r = newStreamingRewriter(r, nbsp, []byte(" "))
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Question text routinely quotes fragments mid-cell; stay lenient and
	// enforce width ourselves.
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var headers []string
	var out []records.Record
	var skipped int

	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = cleanHeaders(h, p.opt)
	} else if p.opt.ExpectedFields > 0 {
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	const logLimit = 400
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < logLimit {
				log.Printf("skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}

		if len(headers) > 0 && len(row) != len(headers) {
			if skipped < logLimit {
				log.Printf("skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, headers)] = emptyToNil(val)
		}
		out = append(out, rec)
	}

	return out, skipped, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
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

// cleanHeaders trims each header cell, strips a UTF-8 BOM from the first,
// and applies HeaderMap renames. It deliberately does not lowercase or
// otherwise reshape names; the reconciler owns that.
func cleanHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = c
	}
	return res
}
