package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	stubReplenisher struct {
		chats []int64
	}

	stubCounter struct {
		due map[int64]int
		err error
	}

	stubPublisher struct {
		mx   sync.Mutex
		sent map[int64]int
		err  error
	}
)

func (r *stubReplenisher) Replenish(_ context.Context, chatID int64) { r.chats = append(r.chats, chatID) }
func (r *stubReplenisher) Wait()                                     {}

func (c stubCounter) DueCount(_ context.Context, chatID int64) (int, error) {
	return c.due[chatID], c.err
}

func (p *stubPublisher) SendDueReminder(_ context.Context, chatID int64, due int) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.sent == nil {
		p.sent = make(map[int64]int)
	}
	p.sent[chatID] = due
	return p.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReplenishAll(t *testing.T) {
	t.Parallel()

	r := &stubReplenisher{}
	replenishAll(t.Context(), []int64{1, 2, 3}, r)
	assert.Equal(t, []int64{1, 2, 3}, r.chats)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	r = &stubReplenisher{}
	replenishAll(ctx, []int64{1, 2}, r)
	assert.Empty(t, r.chats)
}

func TestRemind(t *testing.T) {
	t.Parallel()

	p := &stubPublisher{err: errors.New("blocked")}
	err := remind(t.Context(), []int64{1, 2, 3}, stubCounter{due: map[int64]int{1: 4, 3: 1}}, p, discard())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 4, 3: 1}, p.sent)

	p = &stubPublisher{}
	err = remind(t.Context(), []int64{1}, stubCounter{err: errors.New("db is down")}, p, discard())
	require.Error(t, err)
	assert.Empty(t, p.sent)
}

func TestWindow_Contains(t *testing.T) {
	t.Parallel()

	w := Window{Location: time.UTC, From: 9, To: 22}
	tests := []struct {
		hour int
		want bool
	}{
		{hour: 8, want: false},
		{hour: 9, want: true},
		{hour: 22, want: true},
		{hour: 23, want: false},
	}
	for _, tt := range tests {
		got := w.Contains(time.Date(2024, 2, 15, tt.hour, 30, 0, 0, time.UTC))
		assert.Equal(t, tt.want, got, "hour %d", tt.hour)
	}
}
