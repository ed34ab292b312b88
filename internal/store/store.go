// Package store provides Postgres data access for test records, the
// append-only audit log and the review queue.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrQueueItemClosed is returned when closing a review queue item that has
// already been completed. Completed items are immutable.
var ErrQueueItemClosed = errors.New("review queue item already completed")

// Tx is the set of row operations available inside one transaction.
// Abstracted as an interface so the workflow coordinator can be tested
// against an in-memory fake.
type Tx interface {
	GetTestRecord(ctx context.Context, id string) (*TestRecord, error)
	UpdateRecordAutomated(ctx context.Context, id, status, methodUsed, toolUsed string) error
	UpdateRecordReviewed(ctx context.Context, id string, params RecordReviewUpdate) error

	InsertAuditEntry(ctx context.Context, entry *AuditLogEntry) error

	InsertQueueItem(ctx context.Context, item *ReviewQueueItem) error
	GetQueueItem(ctx context.Context, id string) (*ReviewQueueItem, error)
	FindOpenQueueItem(ctx context.Context, testRecordID, automatedResultID string) (*ReviewQueueItem, error)
	CloseQueueItem(ctx context.Context, id string, params QueueClosure) error
}

// TxRunner runs a function inside one database transaction. The transaction
// is the engine's unit of atomicity: fn failing for any reason rolls the
// whole thing back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Store provides access to the PostgreSQL database.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTx begins a transaction, runs fn, and commits. Any error from fn or
// commit rolls back and is returned to the caller.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InTx begin: %w", err)
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InTx commit: %w", err)
	}
	return nil
}

// sqlTx is the real Tx implementation over *sql.Tx.
type sqlTx struct {
	tx *sql.Tx
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// stringOrEmpty unwraps a nullable text column.
func stringOrEmpty(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
