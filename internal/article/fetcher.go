package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"articlelens/internal/apperror"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml"

	// FetchTimeout bounds a single article download, body included.
	FetchTimeout = 30 * time.Second

	maxBodyBytes = 5 << 20
)

// Fetcher downloads article pages and turns them into sanitized text.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}

	return &Fetcher{
		client:  client,
		timeout: FetchTimeout,
		log:     log,
	}
}

// Fetch performs a single GET of articleURL and returns its sanitized text.
// Errors are *apperror.Error with one of the Fetch* categories.
func (f *Fetcher) Fetch(ctx context.Context, articleURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, strings.TrimSpace(articleURL), nil)
	if err != nil {
		return "", apperror.New(apperror.FetchUnreachable, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req) //nolint:gosec // User supplied article URL
	if err != nil {
		return "", classifyTransportError(ctx, fetchCtx, fmt.Errorf("do request: %w", err))
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", articleURL,
				"operation", "Fetch")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", apperror.WithStatus(
			apperror.FetchFailed,
			resp.StatusCode,
			fmt.Errorf("do request: unexpected status: %d", resp.StatusCode),
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classifyTransportError(ctx, fetchCtx, fmt.Errorf("read body: %w", err))
	}

	text := Sanitize(string(body))
	if text == "" {
		return "", apperror.WithStatus(
			apperror.FetchEmptyContent,
			resp.StatusCode,
			fmt.Errorf("sanitized text is empty (bodyLen = %d)", len(body)),
		)
	}

	f.log.DebugContext(ctx, "Article is fetched",
		"url", articleURL,
		"status", resp.StatusCode,
		"bodyLen", len(body),
		"textLen", len(text))

	return text, nil
}

// classifyTransportError tells our own deadline apart from the caller giving
// up. Every other transport failure counts as an unreachable site.
func classifyTransportError(parent context.Context, fetchCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return apperror.New(apperror.Unknown, errors.Join(err, parent.Err()))
	case errors.Is(fetchCtx.Err(), context.DeadlineExceeded):
		return apperror.New(apperror.FetchTimeout, err)
	default:
		return apperror.New(apperror.FetchUnreachable, err)
	}
}
