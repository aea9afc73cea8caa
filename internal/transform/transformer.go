package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"talkpress/internal/llm"
	"talkpress/internal/logging"
	"talkpress/internal/prompts"
	"talkpress/internal/services"
)

// Completer is the chat capability the transformer needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PromptSource resolves the system prompt for a stage.
type PromptSource interface {
	Prompt(kind prompts.Kind) (string, error)
}

// LLMTransformer runs the text stages through a chat model.
type LLMTransformer struct {
	client  Completer
	prompts PromptSource
	logger  *slog.Logger
}

// NewLLMTransformer wires a completer and prompt source together.
func NewLLMTransformer(client Completer, source PromptSource, logger *slog.Logger) *LLMTransformer {
	return &LLMTransformer{
		client:  client,
		prompts: source,
		logger:  logging.NewComponentLogger(logger, "transform"),
	}
}

// Transform turns input into the stage output for kind. Translate and rewrite
// return Markdown with any outer fence removed; podcast returns the validated
// script encoded as JSON.
func (t *LLMTransformer) Transform(ctx context.Context, kind prompts.Kind, input string) (string, error) {
	stage := string(kind)
	if strings.TrimSpace(input) == "" {
		return "", services.Wrap(services.ErrValidation, stage, "transform", "input is empty", nil)
	}
	if t.client == nil {
		return "", services.Wrap(services.ErrConfiguration, stage, "transform", "llm client not configured", nil)
	}
	system, err := t.prompts.Prompt(kind)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, stage, "load prompt", "", err)
	}

	logger := logging.WithContext(ctx, t.logger)
	started := time.Now()
	var content string
	if kind == prompts.KindPodcast {
		content, err = t.client.CompleteJSON(ctx, system, input)
	} else {
		content, err = t.client.Complete(ctx, system, input)
	}
	if err != nil {
		return "", classify(stage, err)
	}
	logger.Debug("llm completion received",
		logging.Int("input_chars", len(input)),
		logging.Int("output_chars", len(content)),
		logging.Duration("elapsed", time.Since(started)))

	if kind == prompts.KindPodcast {
		script, err := ParsePodcastScript(content)
		if err != nil {
			return "", err
		}
		data, err := script.Encode()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	out := llm.StripFence(content)
	if out == "" {
		return "", services.Wrap(services.ErrValidation, stage, "transform", "model returned empty text", nil)
	}
	return out + "\n", nil
}

func classify(stage string, err error) error {
	switch {
	case errors.Is(err, llm.ErrAPIKeyRequired):
		return services.Wrap(services.ErrConfiguration, stage, "llm request", "set llm.api_key or LLM_API_KEY", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stage, "llm request", "", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: llm request: %w", stage, err)
	default:
		return services.Wrap(services.ErrExternalTool, stage, "llm request", "", err)
	}
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Ping verifies the endpoint when the completer supports health checks.
func (t *LLMTransformer) Ping(ctx context.Context) error {
	checker, ok := t.client.(healthChecker)
	if !ok {
		return nil
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return classify("health", err)
	}
	return nil
}
