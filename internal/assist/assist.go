// Package assist proxies free-text prompts to an LLM completion provider.
// It backs the symptom and diagnosis suggestion features and is not part of the comment store.
package assist

import (
	"context"
	"errors"
	"fmt"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"strings"
	"unicode/utf8"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 512
	maxPromptLength  = 8000
)

var ErrEmptyPrompt = errors.New("prompt is required")

type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Assistant sends prompts to a langchaingo model.
type Assistant struct {
	llm       llms.Model
	model     string
	maxTokens int
	log       *zap.Logger
}

func NewOpenAI(opts Options, log *zap.Logger) (*Assistant, error) {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	clientOpts := []openai.Option{
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	model, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return New(model, opts, log), nil
}

// New wraps an existing model; used directly by tests.
func New(model llms.Model, opts Options, log *zap.Logger) *Assistant {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Assistant{llm: model, model: opts.Model, maxTokens: maxTokens, log: log.Named("assist")}
}

func (a *Assistant) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if len(prompt) > maxPromptLength {
		n := maxPromptLength
		for n > 0 && !utf8.RuneStart(prompt[n]) {
			n--
		}
		prompt = prompt[:n]
	}

	callOpts := []llms.CallOption{llms.WithMaxTokens(a.maxTokens)}
	if a.model != "" {
		callOpts = append(callOpts, llms.WithModel(a.model))
	}

	a.log.Debug("Requesting completion", zap.Int("prompt_len", len(prompt)))
	text, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt, callOpts...)
	if err != nil {
		a.log.Error("Completion failed", zap.Error(err))
		return "", fmt.Errorf("completion failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
