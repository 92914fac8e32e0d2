// Package etl orchestrates one question-bank run: load the export, the
// image-URL lookup and the destination template concurrently, run the
// transform chain, assemble the five entity tables, and hand them to the
// configured sink. Each phase reports a stage metric; row counts per table
// report after the store phase.
package etl

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"qbank/internal/assemble"
	"qbank/internal/config"
	"qbank/internal/datasource"
	"qbank/internal/datasource/file"
	"qbank/internal/datasource/httpds"
	"qbank/internal/lookup"
	"qbank/internal/metrics"
	"qbank/internal/parser"
	csvparser "qbank/internal/parser/csv"
	jsonparser "qbank/internal/parser/json"
	xlsxparser "qbank/internal/parser/xlsx"
	"qbank/internal/schema"
	"qbank/internal/storage"
	"qbank/internal/template"
	"qbank/internal/transformer/builtin"
	"qbank/pkg/records"
)

// Summary reports what one run did.
type Summary struct {
	Job            string
	RowsIn         int           // rows parsed from the source
	RowsSkipped    int           // malformed rows soft-skipped by the parser
	RowsNormalized int           // rows surviving the transform chain
	Tables         map[string]int // assembled rows per destination sheet
	RowsWritten    int64         // rows the sink reported written
	Fingerprint    uint64        // content fingerprint of the assembled run
	Duration       time.Duration
}

// Run executes the pipeline p end to end. Config errors surface before any
// I/O; warnings log and continue.
func Run(ctx context.Context, p config.Pipeline) (Summary, error) {
	start := time.Now()
	sum := Summary{Job: p.Job}

	issues := config.ValidatePipeline(p)
	for _, is := range issues {
		log.Printf("config: %s", is.Error())
	}
	if config.HasError(issues) {
		return sum, fmt.Errorf("pipeline config invalid: %d issue(s)", len(issues))
	}

	// Load phase: source rows, lookup map and template schema are
	// independent inputs, fetched concurrently.
	var (
		rows []records.Record
		urls lookup.Map
		tpl  *template.Schema
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		var err error
		rows, sum.RowsSkipped, err = loadRows(gctx, p)
		metrics.RecordStage(p.Job, "load", err, time.Since(t0))
		return err
	})
	g.Go(func() error {
		// Load never fails: a missing or malformed lookup file logs a
		// warning and the run continues without image URLs.
		urls = lookup.Load(p.Lookup.Path)
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		var err error
		tpl, err = loadTemplate(p)
		metrics.RecordStage(p.Job, "template", err, time.Since(t0))
		return err
	})
	if err := g.Wait(); err != nil {
		return sum, err
	}
	sum.RowsIn = len(rows)
	log.Printf("load: rows=%d skipped=%d lookup_urls=%d", sum.RowsIn, sum.RowsSkipped, len(urls))

	// Transform phase.
	t0 := time.Now()
	chain, err := builtin.FromConfig(p.Transform)
	if err == nil {
		rows = chain.Apply(rows)
	}
	metrics.RecordStage(p.Job, "transform", err, time.Since(t0))
	if err != nil {
		return sum, fmt.Errorf("build transform chain: %w", err)
	}
	sum.RowsNormalized = len(rows)
	log.Printf("transform: stages=%d rows=%d", len(chain), sum.RowsNormalized)

	// Assemble phase.
	t0 = time.Now()
	res := assemble.Build(rows, urls, tpl)
	metrics.RecordStage(p.Job, "assemble", nil, time.Since(t0))
	sum.Tables = res.Counts()
	sum.Fingerprint = res.Fingerprint
	log.Printf("assemble: categories=%d collections=%d quizzes=%d questions=%d options=%d fingerprint=%016x",
		sum.Tables[schema.SheetCategories], sum.Tables[schema.SheetCollections],
		sum.Tables[schema.SheetQuizzes], sum.Tables[schema.SheetQuestions],
		sum.Tables[schema.SheetOptions], res.Fingerprint)

	// Store phase.
	t0 = time.Now()
	sum.RowsWritten, err = store(ctx, p, tpl, res)
	metrics.RecordStage(p.Job, "store", err, time.Since(t0))
	if err != nil {
		return sum, err
	}
	for sheet, n := range sum.Tables {
		metrics.RecordRows(p.Job, sheet, int64(n))
	}

	sum.Duration = time.Since(start)
	log.Printf("run %q done: written=%d duration=%s", p.Job, sum.RowsWritten, sum.Duration.Truncate(time.Millisecond))
	return sum, nil
}

// loadRows opens the source and parses it into records. A "list" source
// names a file of export paths/URLs; their rows fold into one batch in
// list order.
func loadRows(ctx context.Context, p config.Pipeline) ([]records.Record, int, error) {
	if p.Source.Kind == "list" {
		entries, err := file.ReadList(p.Source.File.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("read source list: %w", err)
		}
		var all []records.Record
		var skippedTotal int
		for _, entry := range entries {
			rows, skipped, err := parseOne(ctx, sourceFor(entry), entry, p.Parser)
			skippedTotal += skipped
			if err != nil {
				return nil, skippedTotal, fmt.Errorf("list entry %q: %w", entry, err)
			}
			all = append(all, rows...)
		}
		return all, skippedTotal, nil
	}

	src, err := newSource(p)
	if err != nil {
		return nil, 0, err
	}
	return parseOne(ctx, src, p.Source.Path(), p.Parser)
}

// parseOne opens one source and runs the configured (or path-inferred)
// parser over it.
func parseOne(ctx context.Context, src datasource.Source, path string, pc config.Parser) ([]records.Record, int, error) {
	ps, err := newParser(pc, path)
	if err != nil {
		return nil, 0, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			log.Printf("close source: %v", cerr)
		}
	}()
	rows, skipped, err := ps.Parse(rc)
	if err != nil {
		return nil, skipped, fmt.Errorf("parse source: %w", err)
	}
	return rows, skipped, nil
}

func newSource(p config.Pipeline) (datasource.Source, error) {
	switch p.Source.Kind {
	case "", "file":
		return file.NewLocal(p.Source.File.Path), nil
	case "http":
		return httpds.NewRemote(httpds.NewClient(httpds.Config{}), p.Source.HTTP.URL), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", p.Source.Kind)
}

// sourceFor builds a source for one list entry by its scheme.
func sourceFor(entry string) datasource.Source {
	if strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://") {
		return httpds.NewRemote(httpds.NewClient(httpds.Config{}), entry)
	}
	return file.NewLocal(entry)
}

func newParser(pc config.Parser, path string) (parser.Parser, error) {
	kind := pc.Kind
	if kind == "" {
		k, err := parser.KindForPath(path)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	switch kind {
	case parser.KindCSV:
		return csvparser.NewParser(csvparser.FromConfigOptions(pc.Options)), nil
	case parser.KindJSON:
		return jsonparser.NewParser(jsonparser.FromConfigOptions(pc.Options)), nil
	case parser.KindXLSX:
		return xlsxparser.NewParser(xlsxparser.FromConfigOptions(pc.Options)), nil
	}
	return nil, fmt.Errorf("%w: parser kind %q", parser.ErrUnsupportedFormat, kind)
}

func loadTemplate(p config.Pipeline) (*template.Schema, error) {
	if p.Template.Path == "" {
		return template.Default(), nil
	}
	return template.Load(p.Template.Path)
}

func store(ctx context.Context, p config.Pipeline, tpl *template.Schema, res assemble.Result) (int64, error) {
	sink, closeFn, err := storage.New(ctx, storage.FromPipeline(p))
	if err != nil {
		return 0, err
	}
	defer closeFn()
	return sink.Write(ctx, tpl, res)
}
