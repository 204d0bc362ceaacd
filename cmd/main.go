package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"articlelens/internal/article"
	"articlelens/internal/bot"
	"articlelens/internal/config"
	"articlelens/internal/httpapi"
	"articlelens/internal/illustrator"
	"articlelens/internal/pipeline"
	"articlelens/internal/prompts"
	"articlelens/internal/summarizer"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.ErrorContext(ctx, "Failed to load .env file",
			"error", err)

		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	processor := initPipeline(ctx, cfg, log)

	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewServer(processor, log).Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "HTTP server is started",
			"addr", cfg.HTTPAddr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	botDone := startBot(ctx, cfg, processor, log)

	select {
	case <-ctx.Done():
		log.InfoContext(ctx, "Shutdown signal is received")
	case err = <-serverErr:
		log.ErrorContext(ctx, "HTTP server failed",
			"error", err,
			"addr", cfg.HTTPAddr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}

	<-botDone

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) *pipeline.Pipeline {
	if cfg.OpenRouterAPIKey == "" {
		log.WarnContext(ctx, "OPENROUTER_API_KEY is missing so every AI request will fail",
			"envVar", "OPENROUTER_API_KEY")
	}

	if cfg.HuggingFaceAPIKey == "" {
		log.WarnContext(ctx, "HUGGINGFACE_API_KEY is missing so illustrations will fail",
			"envVar", "HUGGINGFACE_API_KEY")
	}

	fetcher := article.NewFetcher(&http.Client{}, log)

	s := summarizer.NewOpenAISummarizer(summarizer.OpenAIConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.CompletionModel,
		Timeout: cfg.CompletionTimeout,
		Prompts: prompts.NewBuilder(cfg.TargetLanguage),
	}, log)

	i := illustrator.NewHuggingFaceIllustrator(illustrator.HuggingFaceConfig{
		APIKey:         cfg.HuggingFaceAPIKey,
		BaseURL:        cfg.HuggingFaceBaseURL,
		Model:          cfg.ImageModel,
		InferenceSteps: cfg.ImageInferenceSteps,
		Timeout:        cfg.ImageTimeout,
	}, log)

	log.InfoContext(ctx, "Pipeline is initialized",
		"completionModel", cfg.CompletionModel,
		"imageModel", cfg.ImageModel,
		"targetLanguage", cfg.TargetLanguage)

	return pipeline.New(fetcher, s, i, log)
}

// startBot runs the Telegram bot when a token is configured. The returned
// channel is closed once the bot has stopped (or immediately without a token).
func startBot(ctx context.Context, cfg config.Config, processor bot.Processor, log *slog.Logger) <-chan struct{} {
	done := make(chan struct{})

	if cfg.TelegramToken == "" {
		log.InfoContext(ctx, "TELEGRAM_TOKEN is empty so the bot is disabled",
			"envVar", "TELEGRAM_TOKEN")
		close(done)

		return done
	}

	botInst, err := bot.New(cfg.TelegramToken, processor, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err)
		close(done)

		return done
	}

	go func() {
		defer close(done)
		botInst.Start(ctx)
	}()

	return done
}
