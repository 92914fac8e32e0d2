// Package postgres implements a Postgres-backed storage.Sink using pgx v5.
// Each table loads via the COPY protocol, the fastest bulk path Postgres
// offers; table creation is plain DDL over the pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"qbank/internal/assemble"
	"qbank/internal/schema"
	"qbank/internal/storage"
	"qbank/internal/template"
	"qbank/pkg/records"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Sink, func(), error) {
		return NewSink(ctx, cfg)
	})
}

// Sink writes the five tables to a Postgres database.
type Sink struct {
	pool *pgxpool.Pool
	cfg  storage.Config
}

// NewSink opens a connection pool for cfg.DSN and returns the sink plus a
// close function for cleanup.
func NewSink(ctx context.Context, cfg storage.Config) (*Sink, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	return &Sink{pool: pool, cfg: cfg}, func() { pool.Close() }, nil
}

// Write loads every entity table in sheet order, optionally creating the
// tables first. Sheet order is also foreign-key order, so parents always land
// before their children.
func (s *Sink) Write(ctx context.Context, tpl *template.Schema, res assemble.Result) (int64, error) {
	if tpl == nil {
		tpl = template.Default()
	}

	var total int64
	for _, sheet := range schema.SheetOrder() {
		cols := tpl.ColumnsFor(sheet)
		if cols == nil {
			cols = schema.BuiltinColumns(sheet)
		}
		table := storage.TableName(s.cfg.TablePrefix, sheet)

		if s.cfg.AutoCreate {
			if err := s.ensureTable(ctx, table, cols); err != nil {
				return total, err
			}
		}

		n, err := storage.LoadTable(ctx, table, cols,
			storage.Rows(res.Table(sheet), cols), s.cfg.BatchSize, s.copyBatch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// copyBatch streams one batch through the COPY protocol. COPY encodes values
// against the column's declared type, and the tables are all TEXT, so every
// non-nil cell goes over as its string form.
func (s *Sink) copyBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	conv := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			out[j] = records.Stringify(v)
		}
		conv[i] = out
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(conv))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy into %s: %s (%s)", table, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

// ensureTable creates the table if it does not exist. The first column is the
// entity key and becomes the primary key; all columns store as TEXT.
func (s *Sink) ensureTable(ctx context.Context, table string, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("postgres: ensure %s: no columns", table)
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgIdent(c) + " TEXT"
		if i == 0 {
			defs[i] += " PRIMARY KEY"
		}
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgIdent(table), strings.Join(defs, ", "))
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create %s: %w", table, err)
	}
	return nil
}

// pgIdent safely quotes a single identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
