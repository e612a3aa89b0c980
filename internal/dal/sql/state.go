package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

func (r *Repository) Load(ctx context.Context, chatID int64, key string) (string, error) {
	sqlQuery, args, err := dal.LoadStateQuery(chatID, key).ToSql()
	if err != nil {
		return "", fmt.Errorf("build select query: %w", err)
	}

	var value string
	if err = r.client.QueryRowContext(ctx, sqlQuery, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", dal.ErrNotFound
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func (r *Repository) Save(ctx context.Context, chatID int64, key, value string) error {
	if chatID == 0 {
		return errors.New("chat id is required")
	}

	if _, err := exec(ctx, r.client, dal.SaveStateQuery(chatID, key, value, r.now())); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context, chatID int64) error {
	if _, err := exec(ctx, r.client, dal.ClearStateQuery(chatID)); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

func (r *Repository) ChatIDs(ctx context.Context) ([]int64, error) {
	sqlQuery, args, err := dal.ChatIDsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := r.client.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find chat ids: %w", err)
	}
	defer rows.Close()

	res := make([]int64, 0, 10) //nolint:mnd // expected number of chats
	for rows.Next() {
		var chatID int64
		if err = rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		res = append(res, chatID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate chat ids: %w", rows.Err())
	}

	return res, nil
}
