package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

// sqliteExecer is satisfied by both *sql.DB and *sql.Tx.
type sqliteExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func sqliteExec(ctx context.Context, db *sql.DB) sqliteExecer {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return db
}

// SQLite stores timestamps as RFC3339 text; the fixed-width UTC form keeps
// lexical and chronological order identical.
func sqliteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func sqliteTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := sqliteTime(*t)
	return &s
}

func parseSQLiteTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseSQLiteTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseSQLiteTime(ns.String)
	return &t
}

func sqliteUUIDPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseSQLiteUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

func parseSQLiteUUIDPtr(ns sql.NullString) *uuid.UUID {
	if !ns.Valid {
		return nil
	}
	id := parseSQLiteUUID(ns.String)
	return &id
}
