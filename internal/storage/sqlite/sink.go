// Package sqlite implements a SQLite-backed storage.Sink using database/sql.
// Each table loads through batched INSERTs inside a transaction; SQLite has
// no bulk-load API like Postgres COPY, but transactions keep performance
// acceptable for question-bank volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // cgo-free driver

	"qbank/internal/assemble"
	"qbank/internal/schema"
	"qbank/internal/storage"
	"qbank/internal/template"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Sink, func(), error) {
		return NewSink(ctx, cfg)
	})
}

// Sink writes the five tables to a SQLite database.
type Sink struct {
	db  *sql.DB
	cfg storage.Config
}

// NewSink opens a SQLite connection for cfg.DSN and returns the sink plus a
// close function. DSN is passed straight to database/sql, for example:
//
//	"file:qbank.db?cache=shared"
//	"qbank.db"
func NewSink(ctx context.Context, cfg storage.Config) (*Sink, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	return &Sink{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// Write loads every entity table in sheet order, optionally creating the
// tables first. It returns the total rows inserted.
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

// copyBatch inserts one batch inside a transaction with a prepared statement.
func (s *Sink) copyBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoteIdents(columns), ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// ensureTable creates the table if it does not exist. The first column is the
// entity key and becomes the primary key; everything stores as TEXT, SQLite's
// affinity rules keep numerics usable.
func (s *Sink) ensureTable(ctx context.Context, table string, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("sqlite: ensure %s: no columns", table)
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
		if i == 0 {
			defs[i] += " PRIMARY KEY"
		}
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", table, err)
	}
	return nil
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func quoteIdents(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = quoteIdent(id)
	}
	return out
}
