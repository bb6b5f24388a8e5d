// Package ai wraps the remote text-completion service used by the language
// plugins. It exposes a narrow Completer interface so callers can be tested
// against scripted responses instead of a live endpoint.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Completer is the single capability the language plugins need from the
// remote model: one instruction, one prompt, one text completion.
type Completer interface {
	Complete(ctx context.Context, instruction, prompt string) (string, error)
}

// Config holds the remote model configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	ChatModel   string
	SpeechModel string
	Temperature float32
	MaxRetries  int
	Timeout     time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		APIKey:      "",
		ChatModel:   "gpt-4o-mini",
		SpeechModel: "gpt-4o-mini-transcribe",
		Temperature: 0.1,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}

// Provider is the OpenAI-compatible implementation of Completer.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a provider. The API key is required; everything else
// falls back to defaults.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required, set NAPOMNI_AI_API_KEY environment variable")
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gpt-4o-mini-transcribe"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Complete performs one chat completion with the configured model and
// temperature, retrying transient failures with exponential backoff.
func (p *Provider) Complete(ctx context.Context, instruction, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var result string
	err := p.doWithRetry(ctx, func() error {
		req := openai.ChatCompletionRequest{
			Model:       p.config.ChatModel,
			Temperature: p.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: instruction},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}

	return result, nil
}

// Client exposes the underlying client for sibling plugins that need other
// endpoints of the same service, e.g. speech transcription.
func (p *Provider) Client() *openai.Client {
	return p.client
}

// SpeechModel returns the configured transcription model name.
func (p *Provider) SpeechModel() string {
	return p.config.SpeechModel
}

// doWithRetry executes a function with exponential backoff retry.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("model request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}

// NewProviderFromEnv creates a provider from environment variables.
func NewProviderFromEnv() (*Provider, error) {
	return NewProvider(&Config{
		BaseURL:     getEnv("NAPOMNI_AI_BASE_URL", "https://api.openai.com/v1"),
		APIKey:      getEnv("NAPOMNI_AI_API_KEY", ""),
		ChatModel:   getEnv("NAPOMNI_AI_CHAT_MODEL", "gpt-4o-mini"),
		SpeechModel: getEnv("NAPOMNI_AI_SPEECH_MODEL", "gpt-4o-mini-transcribe"),
		Temperature: 0.1,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	})
}

// getEnv gets an environment variable with a fallback.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
