package category

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

type scriptedRandom struct {
	float float64
	ints  []int
}

func (r *scriptedRandom) Float64() float64 { return r.float }

func (r *scriptedRandom) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

type stubMinter struct {
	reply string
	err   error
}

func (m stubMinter) ProposeCategory(context.Context, MintRequest) (string, error) {
	return m.reply, m.err
}

func newTestSelector(rnd Random) *Selector {
	return NewSelector(rnd, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSelector_ShouldMint(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	manyDynamic := make([]string, 0, MaxCategories-len(baseCategories))
	for i := range MaxCategories - len(baseCategories) {
		manyDynamic = append(manyDynamic, fmt.Sprintf("kategoria %c", 'a'+i))
	}

	tests := []struct {
		name  string
		state State
		draw  float64
		want  bool
	}{
		{"low accuracy ignores draw", State{AverageAccuracy: 69}, 0, false},
		{"good accuracy lucky draw", State{AverageAccuracy: 70}, 0.19, true},
		{"good accuracy unlucky draw", State{AverageAccuracy: 90}, 0.2, false},
		{
			"recent dynamic category",
			State{
				AverageAccuracy: 90,
				Dynamic:         []string{"finanse"},
				Stats:           map[string]dal.CategoryStats{"finanse": {LastUsed: now.Add(-3 * 24 * time.Hour)}},
			},
			0, false,
		},
		{
			"old dynamic category",
			State{
				AverageAccuracy: 90,
				Dynamic:         []string{"finanse"},
				Stats:           map[string]dal.CategoryStats{"finanse": {LastUsed: now.Add(-8 * 24 * time.Hour)}},
			},
			0, true,
		},
		{"category cap reached", State{AverageAccuracy: 90, Dynamic: manyDynamic}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSelector(&scriptedRandom{float: tt.draw})
			assert.Equal(t, tt.want, s.ShouldMint(&tt.state, now))
		})
	}
}

func TestSelector_BestExisting(t *testing.T) {
	t.Parallel()

	words := make([]dal.Entry, 0, 50)
	for range 50 {
		words = append(words, dal.Entry{Category: "dom"})
	}
	st := &State{
		Words:     words,
		WeakAreas: []string{"sport"},
		Stats: map[string]dal.CategoryStats{
			"praca": {SuccessRate: 0.9},
		},
	}

	s := newTestSelector(&scriptedRandom{float: 0, ints: []int{0}})
	assert.Equal(t, "sport", s.BestExisting(st))

	// ties at 120 keep catalogue order: sport, jedzenie, transport
	s = newTestSelector(&scriptedRandom{float: 0, ints: []int{2}})
	assert.Equal(t, "transport", s.BestExisting(st))
}

func TestSelector_Select_MintsFromTemplates(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	st := &State{Level: "B1", AverageAccuracy: 85}
	s := newTestSelector(&scriptedRandom{float: 0.1})

	got := s.Select(context.Background(), st, nil, now)
	assert.Equal(t, "środowisko", got)
	assert.Equal(t, []string{"środowisko"}, st.Dynamic)
	assert.Equal(t, dal.CategoryStats{LastUsed: now}, st.Stats["środowisko"])

	// every A1 template is already a base category
	st = &State{Level: "A1", AverageAccuracy: 85}
	got = s.Select(context.Background(), st, nil, now)
	assert.Empty(t, st.Dynamic)
	assert.Contains(t, baseCategories, got)
}

func TestSelector_Mint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		minter Minter
		want   string
		wantOK bool
	}{
		{"normalized", stubMinter{reply: "  Finanse \n"}, "finanse", true},
		{"diacritics and spaces", stubMinter{reply: "życie codzienne"}, "życie codzienne", true},
		{"duplicate", stubMinter{reply: "dom"}, "", false},
		{"too short", stubMinter{reply: "ab"}, "", false},
		{"digits", stubMinter{reply: "web3"}, "", false},
		{"empty", stubMinter{reply: ""}, "", false},
		{"error", stubMinter{err: errors.New("unavailable")}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSelector(&scriptedRandom{})
			got, ok := s.Mint(context.Background(), &State{Level: "B2"}, tt.minter)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	name, err := Normalize(" Psychologia ", Base())
	require.NoError(t, err)
	assert.Equal(t, "psychologia", name)

	_, err = Normalize("a very long category name", nil)
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, err = Normalize("sztuka", Base())
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestRecordUsage(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	stats := map[string]dal.CategoryStats{}

	RecordUsage(stats, "dom", true, now)
	assert.Equal(t, dal.CategoryStats{WordsGenerated: 1, SuccessRate: 0.5, LastUsed: now}, stats["dom"])

	RecordUsage(stats, "dom", false, now.Add(time.Hour))
	assert.Equal(t, 2, stats["dom"].WordsGenerated)
	assert.InDelta(t, 0.45, stats["dom"].SuccessRate, 1e-9)
	assert.Equal(t, now.Add(time.Hour), stats["dom"].LastUsed)

	RecordUsage(stats, "dom", true, now)
	assert.InDelta(t, 0.725, stats["dom"].SuccessRate, 1e-9)
}
