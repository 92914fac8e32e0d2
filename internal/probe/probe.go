// Package probe inspects a question export before a full run: it samples
// the first bytes of a file or URL, reads the header and a handful of rows,
// and reports how each input column would map onto the canonical question
// schema. It can also emit a starter pipeline config for the sampled
// source, so "probe, eyeball, run" needs no hand-written JSON.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"qbank/internal/config"
	"qbank/internal/datasource/file"
	"qbank/internal/datasource/httpds"
	csvparser "qbank/internal/parser/csv"
	"qbank/internal/schema"
)

// Defaults for the sample size. 64 KiB of a question export is typically a
// few hundred rows, plenty for header mapping.
const (
	DefaultMaxBytes = 64 * 1024
	DefaultMaxRows  = 10
)

// Options control sampling and output.
type Options struct {
	// URL to sample: http(s)://, file://, or a bare local path.
	URL string

	// MaxBytes to sample from the start. <= 0 means DefaultMaxBytes.
	MaxBytes int

	// MaxRows of sample data to keep for display. <= 0 means DefaultMaxRows.
	MaxRows int

	// Delimiter for CSV input; zero means ','.
	Delimiter rune

	// Job names the generated pipeline config.
	Job string

	// AllowInsecureTLS skips TLS certificate verification for the sample
	// fetch, for self-signed internal endpoints.
	AllowInsecureTLS bool
}

// ColumnMapping reports how one input header resolves.
type ColumnMapping struct {
	Header    string `json:"header"`
	Canonical string `json:"canonical,omitempty"`
	Matched   bool   `json:"matched"`
}

// Report is the probe result for one source.
type Report struct {
	URL     string          `json:"url"`
	Headers []string        `json:"headers"`
	Mapping []ColumnMapping `json:"mapping"`

	// Missing lists canonical columns no input header resolves to. The
	// pipeline fills those with defaults; the list tells you which.
	Missing []string `json:"missing,omitempty"`

	// Rows holds up to MaxRows of sample data, aligned with Headers.
	Rows [][]string `json:"rows,omitempty"`
}

// httpPeekFn fetches the first n bytes of a URL. In production it is backed
// by the httpds client for http(s) and by the file source otherwise; tests
// replace it to avoid real I/O.
var httpPeekFn = func(ctx context.Context, url string, n int, insecure bool) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("peek: n must be > 0")
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		client := httpds.NewClient(httpds.Config{InsecureSkipVerify: insecure})
		return client.FetchFirstBytes(ctx, url, n)
	}

	path := strings.TrimPrefix(url, "file://")
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, &io.LimitedReader{R: rc, N: int64(n)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ProbeURL samples opt.URL and maps its headers onto the canonical schema.
func ProbeURL(ctx context.Context, opt Options) (Report, error) {
	rep := Report{URL: opt.URL}
	if strings.TrimSpace(opt.URL) == "" {
		return rep, fmt.Errorf("probe: url must not be empty")
	}

	maxBytes := opt.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	data, err := httpPeekFn(ctx, opt.URL, maxBytes, opt.AllowInsecureTLS)
	if err != nil {
		return rep, fmt.Errorf("probe: sample %s: %w", opt.URL, err)
	}
	// Cut to the last newline so a truncated final record never skews the
	// sample.
	if i := bytes.LastIndexByte(data, '\n'); i > 0 {
		data = data[:i+1]
	}

	headers, rows, err := csvparser.SampleRows(ctx, bytes.NewReader(data), csvparser.Options{
		HasHeader: true,
		Comma:     opt.Delimiter,
		TrimSpace: true,
	}, maxRows)
	if err != nil {
		return rep, fmt.Errorf("probe: parse sample: %w", err)
	}
	rep.Headers = headers
	rep.Rows = rows
	rep.Mapping, rep.Missing = mapHeaders(headers)
	return rep, nil
}

// mapHeaders resolves every header and lists the canonical columns left
// unclaimed, in schema order.
func mapHeaders(headers []string) ([]ColumnMapping, []string) {
	mapping := make([]ColumnMapping, len(headers))
	claimed := map[string]bool{}
	for i, h := range headers {
		c, ok := schema.ResolveHeader(h)
		mapping[i] = ColumnMapping{Header: h, Canonical: c, Matched: ok}
		if ok {
			claimed[c] = true
		}
	}
	var missing []string
	for _, c := range schema.CanonicalColumns() {
		if !claimed[c] {
			missing = append(missing, c)
		}
	}
	return mapping, missing
}

// RenderText formats the report as aligned "header -> canonical" lines for
// terminals, followed by the missing-column list.
func (r Report) RenderText() []byte {
	var b bytes.Buffer
	width := 0
	for _, m := range r.Mapping {
		if len(m.Header) > width {
			width = len(m.Header)
		}
	}
	for _, m := range r.Mapping {
		target := m.Canonical
		if !m.Matched {
			target = "(dropped)"
		}
		fmt.Fprintf(&b, "%-*s -> %s\n", width, m.Header, target)
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(&b, "\nmissing (filled with defaults): %s\n", strings.Join(r.Missing, ", "))
	}
	return b.Bytes()
}

// Pipeline builds a starter pipeline config for the probed source. Matched
// headers need no help; headers the resolver dropped that look like they
// should map get a header_map entry the user can finish by hand.
func (r Report) Pipeline(opt Options) config.Pipeline {
	p := config.Pipeline{Job: opt.Job}

	if strings.HasPrefix(r.URL, "http://") || strings.HasPrefix(r.URL, "https://") {
		p.Source = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: r.URL}}
	} else {
		p.Source = config.Source{
			Kind: "file",
			File: config.SourceFile{Path: strings.TrimPrefix(r.URL, "file://")},
		}
	}

	p.Parser = config.Parser{Kind: "csv", Options: config.Options{}}
	if opt.Delimiter != 0 && opt.Delimiter != ',' {
		p.Parser.Options["comma"] = string(opt.Delimiter)
	}
	if hm := headerMapStub(r.Mapping); len(hm) > 0 {
		p.Parser.Options["header_map"] = hm
	}
	if len(p.Parser.Options) == 0 {
		p.Parser.Options = nil
	}

	out := opt.Job
	if out == "" {
		out = "qbank"
	}
	p.Storage = config.Storage{
		Kind:     "workbook",
		Workbook: config.StorageWorkbook{Path: out + ".xlsx"},
	}
	return p
}

// headerMapStub proposes header_map keys for unmatched headers, values left
// empty for the user to fill. The value type matches what a JSON decode of
// the emitted config produces, so the typed Options getters see both the
// same way.
func headerMapStub(mapping []ColumnMapping) map[string]any {
	var unmatched []string
	for _, m := range mapping {
		if !m.Matched && strings.TrimSpace(m.Header) != "" {
			unmatched = append(unmatched, m.Header)
		}
	}
	if len(unmatched) == 0 {
		return nil
	}
	sort.Strings(unmatched)
	out := make(map[string]any, len(unmatched))
	for _, h := range unmatched {
		out[h] = ""
	}
	return out
}

// PipelineJSON renders the starter config as indented JSON.
func (r Report) PipelineJSON(opt Options) ([]byte, error) {
	b, err := json.MarshalIndent(r.Pipeline(opt), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("probe: marshal pipeline: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeDelimiter interprets a form/flag delimiter value: the first rune of
// s, or ',' for empty and invalid input.
func DecodeDelimiter(s string) rune {
	if s == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ','
	}
	return r
}
