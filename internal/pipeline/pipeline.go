package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"articlelens/internal/apperror"
	"articlelens/internal/domain"
	"articlelens/internal/summarizer"
)

type Stage string

const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch"
	StageComplete Stage = "complete"
	StagePrompt   Stage = "prompt"
	StageImage    Stage = "image"
)

type ArticleFetcher interface {
	Fetch(ctx context.Context, articleURL string) (string, error)
}

type Illustrator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Pipeline turns an ArticleRequest into a text or image result. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	fetcher     ArticleFetcher
	summarizer  summarizer.Summarizer
	illustrator Illustrator
	log         *slog.Logger
}

func New(
	fetcher ArticleFetcher,
	s summarizer.Summarizer,
	illustrator Illustrator,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		summarizer:  s,
		illustrator: illustrator,
		log:         log,
	}
}

// Process runs the stages for req.Mode in order and stops at the first
// failure. Returned errors are always *apperror.Error.
func (p *Pipeline) Process(ctx context.Context, req domain.ArticleRequest) (domain.Result, error) {
	start := time.Now()
	articleURL := strings.TrimSpace(req.URL)
	mode := req.Mode.Normalize()

	if articleURL == "" {
		return domain.Result{}, p.fail(ctx, StageValidate, mode, articleURL,
			apperror.New(apperror.InvalidURL, errors.New("article URL is empty")))
	}

	text, err := p.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return domain.Result{}, p.fail(ctx, StageFetch, mode, articleURL,
			apperror.Ensure(fmt.Errorf("fetch article: %w", err), apperror.FetchUnreachable))
	}

	var result domain.Result

	switch mode {
	case domain.ModeAbout, domain.ModeThesis, domain.ModeTelegram:
		result, err = p.processText(ctx, mode, articleURL, text)
	case domain.ModeIllustration:
		result, err = p.processIllustration(ctx, articleURL, text)
	default:
		result, err = p.processText(ctx, domain.ModeAbout, articleURL, text)
	}
	if err != nil {
		return domain.Result{}, err
	}

	p.log.InfoContext(ctx, "Article is processed",
		"mode", mode,
		"url", articleURL,
		"textLen", len(text),
		"resultTextLen", len(result.Text),
		"resultImageLen", len(result.Image),
		"durationMs", time.Since(start).Milliseconds())

	return result, nil
}

func (p *Pipeline) processText(
	ctx context.Context,
	mode domain.Mode,
	articleURL string,
	text string,
) (domain.Result, error) {
	summary, err := p.summarizer.Summarize(ctx, summarizer.Input{
		Mode:      mode,
		Text:      text,
		SourceURL: articleURL,
	})
	if err != nil {
		return domain.Result{}, p.fail(ctx, StageComplete, mode, articleURL,
			apperror.Ensure(fmt.Errorf("summarize: %w", err), apperror.UpstreamError))
	}

	return domain.Result{Mode: mode, Text: summary}, nil
}

func (p *Pipeline) processIllustration(
	ctx context.Context,
	articleURL string,
	text string,
) (domain.Result, error) {
	mode := domain.ModeIllustration

	prompt, err := p.summarizer.Summarize(ctx, summarizer.Input{
		Mode: mode,
		Text: text,
	})
	if err != nil {
		return domain.Result{}, p.fail(ctx, StagePrompt, mode, articleURL,
			apperror.Ensure(fmt.Errorf("generate image prompt: %w", err), apperror.UpstreamError))
	}

	p.log.DebugContext(ctx, "Image prompt is generated",
		"url", articleURL,
		"prompt", prompt)

	image, err := p.illustrator.Generate(ctx, prompt)
	if err != nil {
		return domain.Result{}, p.fail(ctx, StageImage, mode, articleURL,
			apperror.Recategorize(fmt.Errorf("generate image: %w", err), apperror.ImageGenerationFailed))
	}

	return domain.Result{Mode: mode, Image: image}, nil
}

// fail logs the full failure for operators and returns it unchanged.
func (p *Pipeline) fail(
	ctx context.Context,
	stage Stage,
	mode domain.Mode,
	articleURL string,
	err *apperror.Error,
) error {
	p.log.ErrorContext(ctx, "Failed to process article",
		"error", err,
		"stage", stage,
		"category", err.Category,
		"statusCode", apperror.StatusCodeOf(err),
		"credentialMissing", isAuthMissing(err),
		"mode", mode,
		"url", articleURL)

	return err
}

func isAuthMissing(err error) bool {
	for err != nil {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			return false
		}

		if appErr.Category == apperror.UpstreamAuthMissing {
			return true
		}

		err = appErr.Err
	}

	return false
}
