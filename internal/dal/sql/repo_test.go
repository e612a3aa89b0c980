package sql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return newRepository(db, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Load(ctx, 1, dal.KeyWords)
	require.ErrorIs(t, err, dal.ErrNotFound)

	require.NoError(t, repo.Save(ctx, 1, dal.KeyWords, `[{"sourceText":"dom"}]`))
	require.NoError(t, repo.Save(ctx, 1, dal.KeyWords, `[]`))
	require.NoError(t, repo.Save(ctx, 2, dal.KeyWords, `[{"sourceText":"kot"}]`))

	value, err := repo.Load(ctx, 1, dal.KeyWords)
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	chatIDs, err := repo.ChatIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, chatIDs)

	require.NoError(t, repo.Clear(ctx, 1))
	_, err = repo.Load(ctx, 1, dal.KeyWords)
	require.ErrorIs(t, err, dal.ErrNotFound)

	value, err = repo.Load(ctx, 2, dal.KeyWords)
	require.NoError(t, err)
	assert.Equal(t, `[{"sourceText":"kot"}]`, value)
}

func TestRepository_SaveRequiresChatID(t *testing.T) {
	repo := newTestRepository(t)

	require.Error(t, repo.Save(context.Background(), 0, dal.KeyWords, `[]`))
}

func TestRepository_TransactRollback(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	errBoom := errors.New("boom")

	err := repo.Transact(ctx, func(r dal.Repository) error {
		if err := r.Save(ctx, 1, dal.KeySettings, `{}`); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = repo.Load(ctx, 1, dal.KeySettings)
	require.ErrorIs(t, err, dal.ErrNotFound)

	err = repo.Transact(ctx, func(r dal.Repository) error {
		return r.Save(ctx, 1, dal.KeySettings, `{"dailyGoal":5}`)
	})
	require.NoError(t, err)

	value, err := repo.Load(ctx, 1, dal.KeySettings)
	require.NoError(t, err)
	assert.Equal(t, `{"dailyGoal":5}`, value)
}

func TestRepository_AuthConfirmations(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.InsertAuthConfirmation(ctx, 7, "token", 15*time.Minute))

	confirmed, err := repo.IsConfirmed(ctx, 7, "token")
	require.NoError(t, err)
	assert.False(t, confirmed)

	require.NoError(t, repo.ConfirmAuthConfirmation(ctx, 7, "token"))
	confirmed, err = repo.IsConfirmed(ctx, 7, "token")
	require.NoError(t, err)
	assert.True(t, confirmed)

	_, err = repo.IsConfirmed(ctx, 7, "other")
	require.ErrorIs(t, err, dal.ErrNotFound)

	now = now.Add(time.Hour)
	_, err = repo.IsConfirmed(ctx, 7, "token")
	require.ErrorIs(t, err, dal.ErrNotFound)
	require.ErrorIs(t, repo.ConfirmAuthConfirmation(ctx, 7, "token"), dal.ErrNotFound)

	require.NoError(t, repo.DeleteAuthConfirmation(ctx, 7, "token"))
}
