package summarizer_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"articlelens/internal/apperror"
	"articlelens/internal/domain"
	"articlelens/internal/prompts"
	"articlelens/internal/summarizer"
)

const completionOK = `{
  "id": "gen-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "deepseek/deepseek-chat",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Five theses.  "}}
  ]
}`

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type backend struct {
	mu       sync.Mutex
	calls    int
	path     string
	auth     string
	request  chatRequest
	status   int
	response string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	b.path = r.URL.Path
	b.auth = r.Header.Get("Authorization")

	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, &b.request)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.status)
	_, _ = io.WriteString(w, b.response)
}

func (b *backend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls
}

func newSummarizer(baseURL string, apiKey string) *summarizer.OpenAISummarizer {
	return summarizer.NewOpenAISummarizer(summarizer.OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Prompts: prompts.NewBuilder(""),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOpenAISummarizerSummarize(t *testing.T) {
	b := &backend{status: http.StatusOK, response: completionOK}
	srv := httptest.NewServer(b)
	defer srv.Close()

	s := newSummarizer(srv.URL+"/api/v1", "test-key")

	got, err := s.Summarize(context.Background(), summarizer.Input{
		Mode:      domain.ModeThesis,
		Text:      "Article body text.",
		SourceURL: "https://example.com/a",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Five theses." {
		t.Fatalf("expected trimmed content, got %q", got)
	}

	if b.path != "/api/v1/chat/completions" {
		t.Fatalf("unexpected request path: %q", b.path)
	}

	if b.auth != "Bearer test-key" {
		t.Fatalf("unexpected authorization header: %q", b.auth)
	}

	if b.request.Model != summarizer.DefaultModel {
		t.Fatalf("unexpected model: %q", b.request.Model)
	}

	if len(b.request.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(b.request.Messages))
	}

	if b.request.Messages[0].Role != "system" || b.request.Messages[1].Role != "user" {
		t.Fatalf("unexpected roles: %q, %q", b.request.Messages[0].Role, b.request.Messages[1].Role)
	}

	user := b.request.Messages[1].Content
	if !strings.Contains(user, "Article body text.") {
		t.Fatalf("expected article text in user message, got %q", user)
	}

	if !strings.Contains(user, prompts.NewBuilder("").Build(domain.ModeThesis, "")) {
		t.Fatalf("expected thesis instruction in user message, got %q", user)
	}
}

func TestOpenAISummarizerMissingKeySkipsNetwork(t *testing.T) {
	b := &backend{status: http.StatusOK, response: completionOK}
	srv := httptest.NewServer(b)
	defer srv.Close()

	s := newSummarizer(srv.URL, "   ")

	_, err := s.Summarize(context.Background(), summarizer.Input{Mode: domain.ModeAbout, Text: "text"})

	if got := apperror.CategoryOf(err); got != apperror.UpstreamAuthMissing {
		t.Fatalf("expected %s, got %s (%v)", apperror.UpstreamAuthMissing, got, err)
	}

	if got := b.callCount(); got != 0 {
		t.Fatalf("expected no backend calls, got %d", got)
	}
}

func TestOpenAISummarizerErrorStatus(t *testing.T) {
	b := &backend{
		status:   http.StatusInternalServerError,
		response: `{"error": {"message": "internal secret detail", "code": 500}}`,
	}
	srv := httptest.NewServer(b)
	defer srv.Close()

	_, err := newSummarizer(srv.URL, "key").Summarize(context.Background(), summarizer.Input{Text: "text"})

	if got := apperror.CategoryOf(err); got != apperror.UpstreamError {
		t.Fatalf("expected %s, got %s (%v)", apperror.UpstreamError, got, err)
	}

	if got := apperror.StatusCodeOf(err); got != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", got)
	}

	if strings.Contains(apperror.UserMessage(err), "secret") {
		t.Fatalf("user message leaks backend body: %q", apperror.UserMessage(err))
	}

	if got := b.callCount(); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
}

func TestOpenAISummarizerEmptyChoices(t *testing.T) {
	b := &backend{
		status:   http.StatusOK,
		response: `{"id": "gen-2", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`,
	}
	srv := httptest.NewServer(b)
	defer srv.Close()

	_, err := newSummarizer(srv.URL, "key").Summarize(context.Background(), summarizer.Input{Text: "text"})

	if got := apperror.CategoryOf(err); got != apperror.EmptyCompletion {
		t.Fatalf("expected %s, got %s (%v)", apperror.EmptyCompletion, got, err)
	}
}

func TestOpenAISummarizerBlankContent(t *testing.T) {
	b := &backend{
		status: http.StatusOK,
		response: `{"id": "gen-3", "object": "chat.completion", "created": 1, "model": "m",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " \n "}}]}`,
	}
	srv := httptest.NewServer(b)
	defer srv.Close()

	_, err := newSummarizer(srv.URL, "key").Summarize(context.Background(), summarizer.Input{Text: "text"})

	if got := apperror.CategoryOf(err); got != apperror.EmptyCompletion {
		t.Fatalf("expected %s, got %s (%v)", apperror.EmptyCompletion, got, err)
	}
}

func TestOpenAISummarizerTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := summarizer.NewOpenAISummarizer(summarizer.OpenAIConfig{
		APIKey:  "key",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := s.Summarize(context.Background(), summarizer.Input{Text: "text"})

	if got := apperror.CategoryOf(err); got != apperror.UpstreamError {
		t.Fatalf("expected %s, got %s (%v)", apperror.UpstreamError, got, err)
	}
}
