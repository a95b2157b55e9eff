// Package source extracts raw transaction rows from a retail SQLite
// database. The database is opened read-only and is never modified.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/basket/internal/preprocess"
	"github.com/roach88/basket/internal/queryir"
	"github.com/roach88/basket/internal/querysql"
)

// Source is a read-only connection to a retail database.
type Source struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only. The file must exist.
func Open(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	dsn := (&url.URL{Scheme: "file", Opaque: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to source %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	return &Source{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Extract runs sel and returns one record per row, in the query's order.
//
// NULL cells and blank text become Missing records rather than errors, so
// cleaning can count and drop them. A quantity stored as text that is not a
// number is an error.
func (s *Source) Extract(ctx context.Context, sel queryir.Select) ([]preprocess.Record, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	slog.Debug("extracting transactions", "source", s.path, "sql", query, "params", len(params))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("extract from %s: %w", s.path, err)
	}
	defer rows.Close()

	hasDate := sel.Columns.Date != ""
	records := []preprocess.Record{}
	for rows.Next() {
		var (
			tid, item, date sql.NullString
			qty             sql.NullFloat64
		)
		dest := []any{&tid, &item, &qty}
		if hasDate {
			dest = append(dest, &date)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(records)+1, err)
		}
		records = append(records, toRecord(tid, item, qty, date, hasDate))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	slog.Info("extracted transactions", "source", s.path, "rows", len(records))
	return records, nil
}

func toRecord(tid, item sql.NullString, qty sql.NullFloat64, date sql.NullString, hasDate bool) preprocess.Record {
	rec := preprocess.Record{
		TransactionID: strings.TrimSpace(tid.String),
		Item:          strings.TrimSpace(item.String),
		Quantity:      qty.Float64,
	}
	rec.Missing = rec.TransactionID == "" || rec.Item == "" || !qty.Valid
	if hasDate {
		rec.Date = strings.TrimSpace(date.String)
		if rec.Date == "" {
			rec.Missing = true
		}
	}
	return rec
}
