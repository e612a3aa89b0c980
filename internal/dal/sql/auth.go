package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

func (r *Repository) InsertAuthConfirmation(ctx context.Context, chatID int64, token string, expiresIn time.Duration) error {
	if chatID == 0 {
		return errors.New("chat id is required")
	}
	if expiresIn <= 0 {
		return errors.New("expires in is required")
	}

	if _, err := exec(ctx, r.client, dal.InsertAuthConfirmationQuery(chatID, token, r.now().Add(expiresIn))); err != nil {
		return fmt.Errorf("insert auth confirmation: %w", err)
	}
	return nil
}

func (r *Repository) IsConfirmed(ctx context.Context, chatID int64, token string) (bool, error) {
	sqlQuery, args, err := dal.IsConfirmedQuery(chatID, token, r.now()).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var confirmed bool
	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&confirmed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, dal.ErrNotFound
		}
		return false, fmt.Errorf("is confirmed: %w", err)
	}
	return confirmed, nil
}

func (r *Repository) ConfirmAuthConfirmation(ctx context.Context, chatID int64, token string) error {
	res, err := exec(ctx, r.client, dal.ConfirmAuthConfirmationQuery(chatID, token, r.now()))
	if err != nil {
		return fmt.Errorf("confirm auth confirmation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return dal.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteAuthConfirmation(ctx context.Context, chatID int64, token string) error {
	if _, err := exec(ctx, r.client, dal.DeleteAuthConfirmationQuery(chatID, token)); err != nil {
		return fmt.Errorf("delete auth confirmation: %w", err)
	}
	return nil
}

func (r *Repository) cleanupAuthConfirmationsJob(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Hour):
			r.log.DebugContext(ctx, "running auth confirmations cleanup job")

			if _, err := exec(ctx, r.client, dal.CleanupAuthConfirmationsQuery(r.now())); err != nil {
				r.log.ErrorContext(ctx, "failed to cleanup auth confirmations", "error", err)
			}
		}
	}
}
