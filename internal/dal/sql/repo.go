package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

type (
	Client interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}

	Repository struct {
		db     *sql.DB
		client Client
		now    func() time.Time
		log    *slog.Logger
	}
)

// NewRepository returns a repository bound to db and starts the expired auth confirmations cleanup job.
func NewRepository(ctx context.Context, db *sql.DB, log *slog.Logger) *Repository {
	res := newRepository(db, db, log)
	go res.cleanupAuthConfirmationsJob(ctx)
	return res
}

func (r *Repository) Transact(ctx context.Context, txFunc func(r dal.Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // ignore rollback errors

	if err = txFunc(newRepository(r.db, tx, r.log)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func newRepository(db *sql.DB, client Client, log *slog.Logger) *Repository {
	return &Repository{db: db, client: client, now: time.Now, log: log}
}

func exec(ctx context.Context, client Client, query interface {
	ToSql() (string, []any, error)
}) (sql.Result, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return client.ExecContext(ctx, sqlQuery, args...)
}
