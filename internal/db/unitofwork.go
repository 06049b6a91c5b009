package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UnitOfWork runs a group of writes atomically. fn gets a tx-scoped DBTX and
// builds whatever repositories it needs from it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

const (
	defaultBusyAttempts = 3
	defaultBusyBackoff  = 50 * time.Millisecond
)

// SQLiteUnitOfWork runs fn in a database/sql transaction. A transaction that
// fails because the database stayed locked past the busy timeout is rolled
// back and run again from the start, so fn must not keep state across calls
// other than what it assigns on success.
type SQLiteUnitOfWork struct {
	db       *sql.DB
	attempts int
	backoff  time.Duration
}

func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db, attempts: defaultBusyAttempts, backoff: defaultBusyBackoff}
}

// WithBusyRetry sets how many times a locked transaction is attempted in
// total and the pause before the first retry. The pause doubles each time.
func (u *SQLiteUnitOfWork) WithBusyRetry(attempts int, backoff time.Duration) *SQLiteUnitOfWork {
	if attempts < 1 {
		attempts = 1
	}
	u.attempts = attempts
	u.backoff = backoff
	return u
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	wait := u.backoff
	var err error
	for attempt := 1; ; attempt++ {
		err = u.runOnce(ctx, fn)
		if err == nil || !IsBusy(err) || attempt >= u.attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for database lock: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (u *SQLiteUnitOfWork) runOnce(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
