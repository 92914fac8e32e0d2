// Package storage defines the sink contract for the five assembled tables
// and a registry that maps a configured storage kind onto its backend.
//
// Backends (workbook, sqlite, postgres) register a factory at init time; the
// pipeline only ever talks to the Sink interface, so adding a backend means
// adding a package and a blank import in storage/all.
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"qbank/internal/assemble"
	"qbank/internal/config"
	"qbank/internal/template"
	"qbank/pkg/records"
)

// DefaultBatchSize caps rows per INSERT/COPY batch when the pipeline does
// not set one.
const DefaultBatchSize = 500

// Config is the backend-agnostic sink configuration, flattened from the
// pipeline's storage block.
type Config struct {
	Kind        string
	Path        string // workbook output path
	DSN         string // database connection string
	TablePrefix string // prepended to the five table names
	AutoCreate  bool   // create destination tables before loading
	BatchSize   int    // rows per batch; <= 0 means DefaultBatchSize
}

// FromPipeline flattens the pipeline's storage block into a Config.
func FromPipeline(p config.Pipeline) Config {
	return Config{
		Kind:        p.Storage.Kind,
		Path:        p.Storage.Workbook.Path,
		DSN:         p.Storage.DB.DSN,
		TablePrefix: p.Storage.DB.TablePrefix,
		AutoCreate:  p.Storage.DB.AutoCreateTable,
		BatchSize:   p.Storage.DB.BatchSize,
	}
}

// Sink persists one assembled run. Write returns the total number of rows
// written across all five tables.
type Sink interface {
	Write(ctx context.Context, tpl *template.Schema, res assemble.Result) (int64, error)
}

// Factory opens a sink for cfg and returns it plus a close function for
// cleanup. Factories must not retain ctx beyond the open itself.
type Factory func(ctx context.Context, cfg Config) (Sink, func(), error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the sink factory for a storage kind.
// It is called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens the sink registered for cfg.Kind. An empty kind defaults to
// "workbook".
func New(ctx context.Context, cfg Config) (Sink, func(), error) {
	kind := cfg.Kind
	if kind == "" {
		kind = "workbook"
	}
	regMu.RLock()
	fn, ok := factories[kind]
	regMu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("no sink registered for storage.kind=%q", kind)
	}
	return fn(ctx, cfg)
}

// TableName maps a destination sheet name to its database table name:
// lowercase, with the configured prefix. "qbank_" + "Questions" ->
// "qbank_questions".
func TableName(prefix, sheet string) string {
	return prefix + strings.ToLower(sheet)
}

// Rows extracts a [][]any view of recs in the given column order, for bulk
// insert APIs. Missing cells come through as nil.
func Rows(recs []records.Record, columns []string) [][]any {
	out := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		out[i] = row
	}
	return out
}
