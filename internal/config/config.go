package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR"      envDefault:":3000"`
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENAI_BASE_URL"    envDefault:"https://openrouter.ai/api/v1"`
	CompletionModel   string        `env:"COMPLETION_MODEL"   envDefault:"deepseek/deepseek-chat"`
	CompletionTimeout time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"90s"`

	HuggingFaceAPIKey   string        `env:"HUGGINGFACE_API_KEY"`
	HuggingFaceBaseURL  string        `env:"HUGGINGFACE_BASE_URL"  envDefault:"https://router.huggingface.co/hf-inference"`
	ImageModel          string        `env:"IMAGE_MODEL"           envDefault:"black-forest-labs/FLUX.1-schnell"`
	ImageInferenceSteps int           `env:"IMAGE_INFERENCE_STEPS" envDefault:"5"`
	ImageTimeout        time.Duration `env:"IMAGE_TIMEOUT"         envDefault:"120s"`

	TargetLanguage string     `env:"TARGET_LANGUAGE" envDefault:"Russian"`
	LogLevel       slog.Level `env:"LOG_LEVEL"       envDefault:"INFO"`
}

// Load reads the configuration from the environment once at startup.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.OpenRouterAPIKey = stripBrackets(strings.TrimSpace(c.OpenRouterAPIKey))
	c.OpenRouterBaseURL = strings.TrimSpace(c.OpenRouterBaseURL)
	c.CompletionModel = strings.TrimSpace(c.CompletionModel)
	c.HuggingFaceAPIKey = strings.TrimSpace(c.HuggingFaceAPIKey)
	c.HuggingFaceBaseURL = strings.TrimSpace(c.HuggingFaceBaseURL)
	c.ImageModel = strings.TrimSpace(c.ImageModel)
	c.TargetLanguage = strings.TrimSpace(c.TargetLanguage)
}

func (c *Config) validate() error {
	switch {
	case c.HTTPAddr == "":
		return errors.New("HTTP_ADDR is empty")
	case c.CompletionTimeout <= 0:
		return fmt.Errorf("COMPLETION_TIMEOUT must be positive (got %s)", c.CompletionTimeout)
	case c.ImageTimeout <= 0:
		return fmt.Errorf("IMAGE_TIMEOUT must be positive (got %s)", c.ImageTimeout)
	case c.ImageInferenceSteps <= 0:
		return fmt.Errorf("IMAGE_INFERENCE_STEPS must be positive (got %d)", c.ImageInferenceSteps)
	}

	return nil
}

// stripBrackets drops the "[...]" some dashboards wrap copied keys in.
func stripBrackets(key string) string {
	key = strings.TrimPrefix(key, "[")
	return strings.TrimSuffix(key, "]")
}
