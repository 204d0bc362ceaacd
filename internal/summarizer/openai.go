package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"articlelens/internal/apperror"
	"articlelens/internal/prompts"
)

const (
	DefaultModel   = "deepseek/deepseek-chat"
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultTimeout = 90 * time.Second
)

// OpenAIConfig configures the chat-completion backend. Any OpenAI-compatible
// endpoint works; OpenRouter is the default.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Prompts    prompts.Builder
	HTTPClient *http.Client
}

// OpenAISummarizer calls the Chat Completions API to produce mode-specific
// texts.
type OpenAISummarizer struct {
	client  openai.Client
	hasKey  bool
	model   string
	timeout time.Duration
	prompts prompts.Builder
	log     *slog.Logger
}

// NewOpenAISummarizer builds a new summarizer instance. A missing API key is
// not an error here; every call then fails with UpstreamAuthMissing.
func NewOpenAISummarizer(cfg OpenAIConfig, log *slog.Logger) *OpenAISummarizer {
	apiKey := strings.TrimSpace(cfg.APIKey)

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAISummarizer{
		client:  openai.NewClient(opts...),
		hasKey:  apiKey != "",
		model:   model,
		timeout: timeout,
		prompts: cfg.Prompts,
		log:     log.With("provider", "openrouter", "model", model),
	}
}

// HasCredential reports whether an API key is configured.
func (s *OpenAISummarizer) HasCredential() bool {
	return s.hasKey
}

// Summarize sends one chat completion request and returns the trimmed content
// of the first choice.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	if !s.hasKey {
		return "", apperror.New(apperror.UpstreamAuthMissing, errors.New("completion API key is not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.prompts.SystemMessage()),
			openai.UserMessage(s.prompts.UserMessage(input.Mode, input.Text, input.SourceURL)),
		},
	})
	if err != nil {
		return "", s.classifyError(ctx, input, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperror.New(apperror.EmptyCompletion, errors.New("response has no choices"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", apperror.New(
			apperror.EmptyCompletion,
			fmt.Errorf("first choice content is empty (finishReason = %s)", resp.Choices[0].FinishReason),
		)
	}

	return content, nil
}

func (s *OpenAISummarizer) classifyError(ctx context.Context, input Input, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		s.log.WarnContext(ctx, "Completion backend returned error status",
			"status", apiErr.StatusCode,
			"body", apiErr.RawJSON(),
			"mode", input.Mode,
			"textLen", len(input.Text))

		return apperror.WithStatus(apperror.UpstreamError, apiErr.StatusCode, fmt.Errorf("create chat completion: %w", err))
	}

	if errors.Is(err, context.Canceled) {
		return apperror.New(apperror.Unknown, fmt.Errorf("create chat completion: %w", err))
	}

	return apperror.New(apperror.UpstreamError, fmt.Errorf("create chat completion: %w", err))
}
