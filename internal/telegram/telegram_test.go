package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/telebot.v3"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	dalsql "github.com/Roma7-7-7/vocabulary-trainer/internal/dal/sql"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

const testChatID = 42

type (
	fakeContext struct {
		tb.Context

		chat     *tb.Chat
		message  *tb.Message
		callback *tb.Callback

		sent      []string
		markups   []*tb.ReplyMarkup
		responses []string
		deleted   bool
	}

	sentMessage struct {
		to   string
		text string
	}

	fakeSender struct {
		mx   sync.Mutex
		sent []sentMessage
	}

	stubProvider struct {
		pairs []generator.Pair
	}
)

func (c *fakeContext) Chat() *tb.Chat         { return c.chat }
func (c *fakeContext) Message() *tb.Message   { return c.message }
func (c *fakeContext) Callback() *tb.Callback { return c.callback }

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.record(what, opts)
	return nil
}

func (c *fakeContext) Reply(what interface{}, opts ...interface{}) error {
	c.record(what, opts)
	return nil
}

func (c *fakeContext) RespondText(text string) error {
	c.responses = append(c.responses, text)
	return nil
}

func (c *fakeContext) Delete() error {
	c.deleted = true
	return nil
}

func (c *fakeContext) record(what interface{}, opts []interface{}) {
	c.sent = append(c.sent, fmt.Sprint(what))
	var markup *tb.ReplyMarkup
	for _, opt := range opts {
		if m, ok := opt.(*tb.ReplyMarkup); ok {
			markup = m
		}
	}
	c.markups = append(c.markups, markup)
}

func (c *fakeContext) lastMarkupData(t *testing.T, button int) string {
	t.Helper()

	require.NotEmpty(t, c.markups)
	m := c.markups[len(c.markups)-1]
	require.NotNil(t, m)
	require.Greater(t, len(m.InlineKeyboard[0]), button)
	return m.InlineKeyboard[0][button].Data
}

func (s *fakeSender) Send(to tb.Recipient, what interface{}, _ ...interface{}) (*tb.Message, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.sent = append(s.sent, sentMessage{to: to.Recipient(), text: fmt.Sprint(what)})
	return &tb.Message{}, nil
}

func (p stubProvider) Generate(context.Context, generator.Request) ([]generator.Pair, error) {
	return p.pairs, nil
}

func command(text, payload string) *fakeContext {
	return &fakeContext{
		chat:    &tb.Chat{ID: testChatID},
		message: &tb.Message{Text: text, Payload: payload},
	}
}

func callback(data string) *fakeContext {
	return &fakeContext{
		chat:     &tb.Chat{ID: testChatID},
		callback: &tb.Callback{Data: data},
	}
}

func newTestBot(t *testing.T) (*Bot, *trainer.Trainer, dal.Repository, *fakeSender) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := dalsql.Open(t.Context(), fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := dalsql.NewRepository(t.Context(), db, log)
	rnd := rand.New(rand.NewPCG(7, 8)) //nolint:gosec // test randomness
	tr := trainer.New(trainer.Dependencies{
		Store:     store.New(repo, log),
		Generator: generator.New(category.NewSelector(rnd, log), log),
		Builder:   study.NewBuilder(rnd, log),
		Free:      stubProvider{pairs: []generator.Pair{{Source: "okno", Target: "window"}, {Source: "stół", Target: "table"}}},
	}, log)

	sender := &fakeSender{}
	return newBot(sender, tr, repo, log), tr, repo, sender
}

func TestBot_HandleAdd(t *testing.T) {
	t.Parallel()

	b, _, _, _ := newTestBot(t)

	tests := []struct {
		payload string
		want    string
	}{
		{payload: "okno: window", want: "added: okno - window"},
		{payload: "Okno:Window", want: "the word is already in your list"},
		{payload: "okno window", want: "wrong message format, it should be like: /add słowo: word"},
		{payload: " : window", want: "both the word and its translation are required"},
	}

	for _, tt := range tests {
		c := command("/add "+tt.payload, tt.payload)
		require.NoError(t, b.HandleAdd(c))
		assert.Equal(t, []string{tt.want}, c.sent, tt.payload)
	}
}

func TestBot_StudySession(t *testing.T) {
	t.Parallel()

	b, tr, _, _ := newTestBot(t)
	ctx := t.Context()

	settings := dal.DefaultSettings()
	settings.DailyGoal = 3
	require.NoError(t, tr.UpdateSettings(ctx, testChatID, settings))

	c := command("/study", "")
	require.NoError(t, b.HandleStudy(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "2 more to go")

	data := c.lastMarkupData(t, 0)
	var answered *fakeContext
	for i := range 3 {
		see := callback(data)
		require.NoError(t, b.HandleCallback(see))
		require.Len(t, see.sent, 1)
		assert.True(t, see.deleted)

		answered = callback(see.lastMarkupData(t, 0))
		require.NoError(t, b.HandleCallback(answered))
		require.True(t, answered.deleted)
		require.Empty(t, answered.responses)
		if i < 2 {
			data = answered.lastMarkupData(t, 0)
		}
	}
	assert.Equal(t, "Session finished. Success rate: 100%, due: 0", answered.sent[len(answered.sent)-1])

	stats, err := tr.Stats(ctx, testChatID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAttempts)

	replay := callback(answered.callback.Data)
	require.NoError(t, b.HandleCallback(replay))
	assert.Equal(t, []string{"too much time passed"}, replay.responses)
	assert.False(t, replay.deleted)
}

type slowTrainer struct {
	*trainer.Trainer

	answers atomic.Int32
	fail    error
}

func (t *slowTrainer) Answer(ctx context.Context, chatID int64, id string, correct bool) (trainer.AnswerResult, error) {
	t.answers.Add(1)
	time.Sleep(50 * time.Millisecond)
	if t.fail != nil {
		return trainer.AnswerResult{}, t.fail
	}
	return t.Trainer.Answer(ctx, chatID, id, correct)
}

func TestBot_AnswerTappedTwice(t *testing.T) {
	t.Parallel()

	_, tr, repo, sender := newTestBot(t)
	settings := dal.DefaultSettings()
	settings.DailyGoal = 3
	require.NoError(t, tr.UpdateSettings(t.Context(), testChatID, settings))

	slow := &slowTrainer{Trainer: tr}
	b := newBot(sender, slow, repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := command("/study", "")
	require.NoError(t, b.HandleStudy(c))
	see := callback(c.lastMarkupData(t, 0))
	require.NoError(t, b.HandleCallback(see))
	data := see.lastMarkupData(t, 0)

	taps := []*fakeContext{callback(data), callback(data)}
	var wg sync.WaitGroup
	for _, tap := range taps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.HandleCallback(tap))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), slow.answers.Load())
	answered, expired := 0, 0
	for _, tap := range taps {
		if tap.deleted {
			answered++
			assert.Contains(t, tap.sent[0], "more to go")
		}
		if assert.ObjectsAreEqual([]string{"too much time passed"}, tap.responses) {
			expired++
		}
	}
	assert.Equal(t, 1, answered)
	assert.Equal(t, 1, expired)

	stats, err := tr.Stats(t.Context(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAttempts)
}

func TestBot_AnswerFailureKeepsStep(t *testing.T) {
	t.Parallel()

	_, tr, repo, sender := newTestBot(t)
	settings := dal.DefaultSettings()
	settings.DailyGoal = 3
	require.NoError(t, tr.UpdateSettings(t.Context(), testChatID, settings))

	slow := &slowTrainer{Trainer: tr, fail: errors.New("database is locked")}
	b := newBot(sender, slow, repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := command("/study", "")
	require.NoError(t, b.HandleStudy(c))
	see := callback(c.lastMarkupData(t, 0))
	require.NoError(t, b.HandleCallback(see))
	data := see.lastMarkupData(t, 0)

	failed := callback(data)
	require.NoError(t, b.HandleCallback(failed))
	assert.Equal(t, []string{somethingWentWrongMsg}, failed.responses)

	slow.fail = nil
	retried := callback(data)
	require.NoError(t, b.HandleCallback(retried))
	assert.True(t, retried.deleted)
	assert.Empty(t, retried.responses)
	assert.Equal(t, int32(2), slow.answers.Load())
}

func TestBot_StudySession_Empty(t *testing.T) {
	t.Parallel()

	b, tr, _, _ := newTestBot(t)
	ctx := t.Context()

	settings := dal.DefaultSettings()
	settings.AutoAddWords = false
	require.NoError(t, tr.UpdateSettings(ctx, testChatID, settings))

	items, err := tr.PrepareSession(ctx, testChatID)
	require.NoError(t, err)
	for _, e := range items {
		_, err = tr.Answer(ctx, testChatID, e.ID, true)
		require.NoError(t, err)
	}

	c := command("/study", "")
	require.NoError(t, b.HandleStudy(c))
	assert.Equal(t, []string{"nothing to study right now"}, c.sent)
}

func TestBot_HandleGenerate(t *testing.T) {
	t.Parallel()

	b, _, _, _ := newTestBot(t)

	c := command("/generate abc", "abc")
	require.NoError(t, b.HandleGenerate(c))
	assert.Equal(t, []string{"count must be a number between 1 and 20"}, c.sent)

	c = command("/generate 21", "21")
	require.NoError(t, b.HandleGenerate(c))
	assert.Equal(t, []string{"count must be a number between 1 and 20"}, c.sent)

	c = command("/generate 2", "2")
	require.NoError(t, b.HandleGenerate(c))
	require.Len(t, c.sent, 1)
	assert.True(t, strings.HasPrefix(c.sent[0], "added "), c.sent[0])
	assert.Contains(t, c.sent[0], "okno - window")
}

func TestBot_HandleStatsAndProfile(t *testing.T) {
	t.Parallel()

	b, _, _, _ := newTestBot(t)

	c := command("/stats", "")
	require.NoError(t, b.HandleStats(c))
	assert.Equal(t, []string{"Total: 3\nLearned: 0\nDue: 3\nSuccess rate: 0%\nAnswers: 0/0"}, c.sent)

	c = command("/profile", "")
	require.NoError(t, b.HandleProfile(c))
	require.Len(t, c.sent, 1)
	assert.True(t, strings.HasPrefix(c.sent[0], "Words: 3 (learned 0)\nAverage accuracy: 0%\n"), c.sent[0])
}

func TestBot_AuthCallbacks(t *testing.T) {
	t.Parallel()

	b, _, repo, _ := newTestBot(t)
	ctx := t.Context()

	require.NoError(t, repo.InsertAuthConfirmation(ctx, testChatID, "confirm-me", time.Minute))
	require.NoError(t, repo.InsertAuthConfirmation(ctx, testChatID, "decline-me", time.Minute))

	c := callback(callbackAuthConfirm + ":confirm-me")
	require.NoError(t, b.HandleCallback(c))
	assert.True(t, c.deleted)
	confirmed, err := repo.IsConfirmed(ctx, testChatID, "confirm-me")
	require.NoError(t, err)
	assert.True(t, confirmed)

	c = callback(callbackAuthDecline + ":decline-me")
	require.NoError(t, b.HandleCallback(c))
	assert.True(t, c.deleted)
	_, err = repo.IsConfirmed(ctx, testChatID, "decline-me")
	require.ErrorIs(t, err, dal.ErrNotFound)

	c = callback(callbackAuthConfirm + ":unknown")
	require.NoError(t, b.HandleCallback(c))
	assert.Equal(t, []string{"the login request has expired"}, c.responses)

	c = callback("a:b:c")
	require.NoError(t, b.HandleCallback(c))
	assert.Equal(t, []string{somethingWentWrongMsg}, c.responses)
}

func TestBot_SendDueReminder(t *testing.T) {
	t.Parallel()

	b, _, _, sender := newTestBot(t)

	require.NoError(t, b.SendDueReminder(t.Context(), testChatID, 4))
	assert.Equal(t, []sentMessage{{to: "42", text: "You have 4 words to review"}}, sender.sent)
}

func TestBot_NotifyReplenished(t *testing.T) {
	t.Parallel()

	b, _, _, sender := newTestBot(t)

	results := make(chan trainer.ReplenishResult, 3)
	results <- trainer.ReplenishResult{ChatID: 1}
	results <- trainer.ReplenishResult{ChatID: 2, Err: errors.New("boom")}
	results <- trainer.ReplenishResult{ChatID: 3, Added: 5}
	close(results)

	b.NotifyReplenished(t.Context(), results)
	assert.Equal(t, []sentMessage{{to: "3", text: "5 new words were added to reach your daily goal"}}, sender.sent)
}

func TestParseCallbackData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		val     string
		want    callbackData
		wantErr bool
	}{
		{name: "with target", val: " callback#correct:42#17 ", want: callbackData{Action: callbackCorrect, TargetIdentifier: "42#17"}},
		{name: "without target", val: callbackStudy, want: callbackData{Action: callbackStudy}},
		{name: "empty", val: "", wantErr: true},
		{name: "too many parts", val: "a:b:c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseCallbackData(tt.val)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `a\-b \(c\)\!`, escapeMarkdown("a-b (c)!"))
	assert.Equal(t, `*ćma\.*`, bold(" ćma. "))
}

func TestMiddlewares(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(tb.Context) error { return nil }

	err := AllowedChats([]int64{1})(ok)(command("/start", ""))
	require.ErrorIs(t, err, ErrChatNotAllowed)

	c := command("/start", "")
	c.chat.ID = 1
	require.NoError(t, AllowedChats([]int64{1})(ok)(c))

	err = Recover(log)(func(tb.Context) error { panic("boom") })(c)
	require.EqualError(t, err, "panic: boom")

	failure := errors.New("failure")
	err = LogErrors(log)(func(tb.Context) error { return failure })(c)
	require.ErrorIs(t, err, failure)
}

func TestClient_AskAuthConfirmation(t *testing.T) {
	t.Parallel()

	var (
		mx   sync.Mutex
		path string
		body SendMessageRequest
	)
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mx.Lock()
		defer mx.Unlock()
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewClient("secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.apiURL = srv.URL

	require.NoError(t, c.AskAuthConfirmation(t.Context(), testChatID, "token"))
	mx.Lock()
	assert.Equal(t, "/botsecret/sendMessage", path)
	assert.Equal(t, int64(testChatID), body.ChatID)
	require.Len(t, body.ReplyMarkup.InlineKeyboard, 1)
	assert.Equal(t, "callback#auth#confirm:token", body.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "callback#auth#decline:token", body.ReplyMarkup.InlineKeyboard[0][1].CallbackData)
	status = http.StatusBadRequest
	mx.Unlock()

	require.EqualError(t, c.AskAuthConfirmation(t.Context(), testChatID, "token"), "unexpected status code: 400")
}
