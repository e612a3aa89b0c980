package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
)

type (
	upstreamCall struct {
		path string
		key  string
		body map[string]any
	}

	upstreamCalls struct {
		mx    sync.Mutex
		calls []upstreamCall
	}
)

func (u *upstreamCalls) all() []upstreamCall {
	u.mx.Lock()
	defer u.mx.Unlock()
	return slices.Clone(u.calls)
}

func newUpstream(t *testing.T, status int, reply string, calls *upstreamCalls) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls.mx.Lock()
		calls.calls = append(calls.calls, upstreamCall{path: r.URL.Path, key: r.URL.Query().Get("key"), body: body})
		calls.mx.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, upstreamURL, serverKey string) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	conf := &config.Proxy{
		ProcessTimeout: 10 * time.Second,
		RateLimit:      100,
		Google: config.Google{
			APIKey:      serverKey,
			BaseURL:     upstreamURL,
			ImagenModel: "imagen-4.0-generate-001",
			FlashModel:  "gemini-2.5-flash-image-preview",
		},
	}
	conf.CORS.AllowOrigins = []string{"*"}
	return NewRouter(t.Context(), conf, NewClient(upstreamURL, time.Second, log), log)
}

func post(t *testing.T, h http.Handler, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestImagen(t *testing.T) {
	t.Parallel()

	var recorded upstreamCalls
	srv := newUpstream(t, http.StatusOK, `{"generatedImages": [{"bytesBase64Encoded": "aGVsbG8="}]}`, &recorded)
	h := newTestRouter(t, srv.URL, "server-key")

	rec := post(t, h, "/api/imagen4", `{"prompt": "a cat", "config": {"aspectRatio": "4:3"}, "apiKey": "body-key"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mime": "image/png", "base64": "aGVsbG8="}`, rec.Body.String())

	calls := recorded.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "/models/imagen-4.0-generate-001:generateImage", calls[0].path)
	assert.Equal(t, "server-key", calls[0].key)
	assert.Equal(t, "a cat", calls[0].body["prompt"])
	assert.Equal(t, map[string]any{
		"numberOfImages":    float64(1),
		"aspectRatio":       "4:3",
		"safetyFilterLevel": "BLOCK_ONLY_HIGH",
		"personGeneration":  "DONT_ALLOW",
	}, calls[0].body["config"])
}

func TestImagen_Rejects(t *testing.T) {
	t.Parallel()

	var recorded upstreamCalls
	srv := newUpstream(t, http.StatusOK, `{"generatedImages": []}`, &recorded)
	h := newTestRouter(t, srv.URL, "")

	rec := post(t, h, "/api/imagen4", `{"prompt": "a cat"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing Google API key")

	rec = post(t, h, "/api/imagen4", `{"prompt": " "}`, map[string]string{"x-google-api-key": "header-key"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Missing prompt"}`, rec.Body.String())
	assert.Empty(t, recorded.all())

	rec = post(t, h, "/api/imagen4", `{"prompt": "a cat", "apiKey": "body-key"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	calls := recorded.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "body-key", calls[0].key)
}

func TestFlash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		reply    string
		wantCode int
		want     string
	}{
		{
			name:     "inline image",
			reply:    `{"candidates": [{"content": {"parts": [{"text": "here"}, {"inlineData": {"mimeType": "image/jpeg", "data": "abc"}}]}}]}`,
			wantCode: http.StatusOK,
			want:     `{"mime": "image/jpeg", "base64": "abc"}`,
		},
		{
			name:     "link",
			reply:    `{"candidates": [{"content": {"parts": [{"text": "https://img.example/cat.png\n"}]}}]}`,
			wantCode: http.StatusOK,
			want:     `{"url": "https://img.example/cat.png"}`,
		},
		{
			name:     "nothing",
			reply:    `{"candidates": [{"content": {"parts": [{"text": "sorry"}]}}]}`,
			wantCode: http.StatusBadGateway,
			want:     `{"error": "No image returned"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var recorded upstreamCalls
			srv := newUpstream(t, http.StatusOK, tt.reply, &recorded)
			h := newTestRouter(t, srv.URL, "")

			rec := post(t, h, "/api/gemini/flash-preview", `{"prompt": "a cat", "model": "custom-model"}`, map[string]string{"x-api-key": "header-key"})
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())

			calls := recorded.all()
			require.Len(t, calls, 1)
			assert.Equal(t, "/models/custom-model:generateContent", calls[0].path)
			assert.Equal(t, "header-key", calls[0].key)
			assert.Equal(t, map[string]any{"responseMimeType": "application/json"}, calls[0].body["generationConfig"])
		})
	}
}

func TestUpstreamError(t *testing.T) {
	t.Parallel()

	var recorded upstreamCalls
	srv := newUpstream(t, http.StatusTooManyRequests, `quota exceeded`, &recorded)
	h := newTestRouter(t, srv.URL, "server-key")

	rec := post(t, h, "/api/gemini/flash-preview", `{"prompt": "a cat"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error": "Upstream error", "status": 429, "body": "quota exceeded"}`, rec.Body.String())
	calls := recorded.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "/models/gemini-2.5-flash-image-preview:generateContent", calls[0].path)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, "http://localhost:0", "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AI proxy is running")
}
