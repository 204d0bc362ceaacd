package illustrator

import (
	"bytes"
	"context"
	"encoding/json"
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
	DefaultModel          = "black-forest-labs/FLUX.1-schnell"
	DefaultBaseURL        = "https://router.huggingface.co/hf-inference"
	DefaultInferenceSteps = 5
	DefaultTimeout        = 120 * time.Second

	maxImageBytes      = 20 << 20
	maxErrorBodyBytes  = 4 << 10
	imageContentPrefix = "image/"
)

type HuggingFaceConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	InferenceSteps int
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// HuggingFaceIllustrator generates images through the Hugging Face inference
// router.
type HuggingFaceIllustrator struct {
	client         *http.Client
	apiKey         string
	endpoint       string
	inferenceSteps int
	timeout        time.Duration
	log            *slog.Logger
}

type textToImageRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters textToImageParameters `json:"parameters"`
}

type textToImageParameters struct {
	NumInferenceSteps int `json:"num_inference_steps"`
}

func NewHuggingFaceIllustrator(cfg HuggingFaceConfig, log *slog.Logger) *HuggingFaceIllustrator {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.Trim(strings.TrimSpace(cfg.Model), "/")
	if model == "" {
		model = DefaultModel
	}

	steps := cfg.InferenceSteps
	if steps <= 0 {
		steps = DefaultInferenceSteps
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &HuggingFaceIllustrator{
		client:         client,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		endpoint:       baseURL + "/models/" + model,
		inferenceSteps: steps,
		timeout:        timeout,
		log:            log.With("provider", "huggingface", "model", model),
	}
}

// HasCredential reports whether an API key is configured.
func (h *HuggingFaceIllustrator) HasCredential() bool {
	return h.apiKey != ""
}

// Generate renders prompt into PNG bytes. A missing key fails with
// UpstreamAuthMissing; any other failure is ImageGenerationFailed.
func (h *HuggingFaceIllustrator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if h.apiKey == "" {
		return nil, apperror.New(apperror.UpstreamAuthMissing, errors.New("image API key is not configured"))
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperror.New(apperror.ImageGenerationFailed, errors.New("prompt is empty"))
	}

	payload, err := json.Marshal(textToImageRequest{
		Inputs:     prompt,
		Parameters: textToImageParameters{NumInferenceSteps: h.inferenceSteps},
	})
	if err != nil {
		return nil, apperror.New(apperror.ImageGenerationFailed, fmt.Errorf("marshal request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.New(apperror.ImageGenerationFailed, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperror.New(apperror.ImageGenerationFailed, fmt.Errorf("do request: %w", err))
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			h.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"operation", "Generate")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		h.log.WarnContext(ctx, "Image backend returned error status",
			"status", resp.StatusCode,
			"body", string(body),
			"promptLen", len(prompt))

		return nil, apperror.WithStatus(
			apperror.ImageGenerationFailed,
			resp.StatusCode,
			fmt.Errorf("do request: unexpected status: %d", resp.StatusCode),
		)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, imageContentPrefix) {
		return nil, apperror.WithStatus(
			apperror.ImageGenerationFailed,
			resp.StatusCode,
			fmt.Errorf("unexpected content type: %s", contentType),
		)
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, apperror.New(apperror.ImageGenerationFailed, fmt.Errorf("read body: %w", err))
	}

	if len(image) == 0 {
		return nil, apperror.New(apperror.ImageGenerationFailed, errors.New("image is empty"))
	}

	return image, nil
}
