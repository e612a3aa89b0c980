package study

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

var testNow = time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

type stubGenerator struct {
	entries []dal.Entry
	err     error
	asked   []int
}

func (g *stubGenerator) GenerateNew(_ context.Context, count int) ([]dal.Entry, error) {
	g.asked = append(g.asked, count)
	return g.entries, g.err
}

func newTestBuilder(seed uint64) *Builder {
	return NewBuilder(rand.New(rand.NewPCG(seed, seed)), slog.New(slog.NewTextHandler(io.Discard, nil))) //nolint:gosec // test randomness
}

func entry(id string, status dal.Status, next *time.Time) dal.Entry {
	return dal.Entry{ID: id, SourceText: id, TargetText: id, Status: status, NextReviewAt: next}
}

func countStatus(items []dal.Entry, status dal.Status) int {
	res := 0
	for _, e := range items {
		if e.Status == status {
			res++
		}
	}
	return res
}

func TestBuilder_PrepareSession_CapsNewWords(t *testing.T) {
	t.Parallel()

	past, future := testNow.Add(-time.Hour), testNow.Add(time.Hour)
	words := []dal.Entry{
		entry("n1", dal.StatusNew, nil),
		entry("n2", dal.StatusNew, nil),
		entry("n3", dal.StatusNew, nil),
		entry("l1", dal.StatusLearning, &past),
		entry("l2", dal.StatusLearning, &past),
		entry("l3", dal.StatusLearning, &future),
		entry("d1", dal.StatusLearned, &future),
	}
	settings := dal.DefaultSettings()
	settings.DailyGoal = 2

	for seed := range uint64(10) {
		session, err := newTestBuilder(seed).PrepareSession(context.Background(), words, settings, nil, testNow)
		require.NoError(t, err)
		require.Len(t, session.Items, 4)

		assert.Equal(t, dal.StatusLearning, session.Items[0].Status)
		assert.Equal(t, dal.StatusLearning, session.Items[1].Status)
		assert.ElementsMatch(t, []string{"l1", "l2"}, []string{session.Items[0].ID, session.Items[1].ID})
		assert.Equal(t, 2, countStatus(session.Items[2:], dal.StatusNew))
		assert.Empty(t, session.Added)
	}
}

func TestBuilder_PrepareSession_Replenishes(t *testing.T) {
	t.Parallel()

	past := testNow.Add(-time.Hour)
	words := []dal.Entry{
		entry("n1", dal.StatusNew, nil),
		entry("l1", dal.StatusLearned, &past),
	}
	gen := &stubGenerator{entries: []dal.Entry{
		entry("g1", dal.StatusNew, nil),
		entry("g2", dal.StatusNew, nil),
	}}
	settings := dal.DefaultSettings()
	settings.DailyGoal = 5

	session, err := newTestBuilder(1).PrepareSession(context.Background(), words, settings, gen, testNow)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, gen.asked)
	assert.Len(t, session.Added, 2)
	require.Len(t, session.Items, 4)
	assert.Equal(t, "l1", session.Items[0].ID)
	assert.Equal(t, 3, countStatus(session.Items, dal.StatusNew))
}

func TestBuilder_PrepareSession_ReplenishDisabledOrFailing(t *testing.T) {
	t.Parallel()

	words := []dal.Entry{entry("n1", dal.StatusNew, nil)}

	settings := dal.DefaultSettings()
	settings.AutoAddWords = false
	gen := &stubGenerator{entries: []dal.Entry{entry("g1", dal.StatusNew, nil)}}
	session, err := newTestBuilder(1).PrepareSession(context.Background(), words, settings, gen, testNow)
	require.NoError(t, err)
	assert.Empty(t, gen.asked)
	assert.Len(t, session.Items, 1)

	failing := &stubGenerator{err: errors.New("provider down")}
	session, err = newTestBuilder(1).PrepareSession(context.Background(), words, dal.DefaultSettings(), failing, testNow)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, failing.asked)
	assert.Len(t, session.Items, 1)
	assert.Empty(t, session.Added)
}

func TestBuilder_PrepareSession_Empty(t *testing.T) {
	t.Parallel()

	future := testNow.Add(24 * time.Hour)
	words := []dal.Entry{entry("l1", dal.StatusLearning, &future)}

	_, err := newTestBuilder(1).PrepareSession(context.Background(), words, dal.DefaultSettings(), &stubGenerator{}, testNow)
	require.ErrorIs(t, err, ErrEmptyStudySet)

	_, err = newTestBuilder(1).PrepareSession(context.Background(), nil, dal.DefaultSettings(), nil, testNow)
	require.ErrorIs(t, err, ErrEmptyStudySet)
}

func TestBuilder_PrepareSession_NeverDropsReviews(t *testing.T) {
	t.Parallel()

	past := testNow.Add(-time.Minute)
	words := make([]dal.Entry, 0, 40)
	for i := range 25 {
		words = append(words, entry(fmt.Sprintf("r%d", i), dal.StatusLearning, &past))
	}
	for i := range 15 {
		words = append(words, entry(fmt.Sprintf("n%d", i), dal.StatusNew, nil))
	}
	settings := dal.DefaultSettings()
	settings.DailyGoal = 3

	session, err := newTestBuilder(3).PrepareSession(context.Background(), words, settings, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, 25, countStatus(session.Items, dal.StatusLearning))
	assert.Equal(t, 3, countStatus(session.Items, dal.StatusNew))
}
