// Package storage provides the transactional plumbing shared by the
// component stores: a TxRunner abstraction over commit/rollback scopes, a
// PostgreSQL implementation threading *sql.Tx through the context, and an
// in-memory database used by unit tests and local development.
package storage

import (
	"context"
	"database/sql"
	"time"

	txcontext "medvault/pkg/platform/tx"
)

// TxRunner provides a transactional boundary for multi-store mutations.
// The function receives a context carrying the open transaction; stores pick
// it up and join the scope. fn returning an error rolls everything back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout bounds a transaction that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

// PostgresTxRunner runs functions inside a database/sql transaction.
type PostgresTxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTxRunner(db *sql.DB) *PostgresTxRunner {
	return &PostgresTxRunner{db: db}
}

func (r *PostgresTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
