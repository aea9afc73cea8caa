package llm

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

	"talkpress/internal/logging"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 300 * time.Second
	defaultTemperature = 0.3
	jsonResponseType   = "json_object"
	maxResponseBytes   = 8 << 20
)

// ErrAPIKeyRequired is returned before any request when no key is configured.
var ErrAPIKeyRequired = errors.New("llm: api key required")

// Config holds the chat-completions endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      retryPolicy
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts sets how many requests one completion may issue.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first backoff delay and its ceiling.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.max = maxDelay
	}
}

// WithSleeper replaces the retry sleep. Tests use it to record delays.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleeper }
}

// WithLogger attaches a logger for retry warnings and token usage.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "llm") }
}

// NewClient builds a client. Blank fields fall back to the OpenRouter endpoint
// and a 300s request timeout.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      defaultRetryPolicy(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Complete sends a system and user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req, err := c.newRequest("llm complete", systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, "llm complete", req)
}

// CompleteJSON is Complete in JSON mode. The reply is returned as received;
// use DecodeJSON to parse it.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req, err := c.newRequest("llm complete json", systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	req.ResponseFormat = map[string]string{"type": jsonResponseType}
	return c.complete(ctx, "llm complete json", req)
}

// HealthCheck asks the model for a fixed JSON reply to prove the key and
// model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := c.newRequest("llm health", "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	req.ResponseFormat = map[string]string{"type": jsonResponseType}
	req.Temperature = 0
	content, err := c.complete(ctx, "llm health", req)
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !reply.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatChoice struct {
	Message      replyMessage `json:"message"`
	// some providers answer non-streaming requests with the streaming shape
	Delta        replyMessage `json:"delta"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason"`
}

type replyMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// content returns the first non-blank reply along with the first finish
// reason and refusal seen across choices.
func (r chatResponse) content() (text, finishReason, refusal string) {
	for _, choice := range r.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
		if text = firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); text != "" {
			return text, finishReason, refusal
		}
	}
	return "", finishReason, refusal
}

func (c *Client) newRequest(op, systemPrompt, userPrompt string) (chatRequest, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return chatRequest{}, fmt.Errorf("%s: system prompt required", op)
	case userPrompt == "":
		return chatRequest{}, fmt.Errorf("%s: user prompt required", op)
	case c.cfg.APIKey == "":
		return chatRequest{}, fmt.Errorf("%s: %w", op, ErrAPIKeyRequired)
	}
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: defaultTemperature,
	}, nil
}

// complete sends req until it yields content, the policy gives up, or ctx ends.
func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	logger := logging.WithContext(ctx, c.logger)
	attempts := c.retry.maxAttempts()

	for attempt := 1; ; attempt++ {
		started := time.Now()
		resp, raw, err := c.post(ctx, body)
		if err == nil {
			text, finishReason, refusal := resp.content()
			if text != "" {
				attrs := []logging.Attr{
					logging.String("model", firstNonEmpty(resp.Model, req.Model)),
					logging.Int("attempt", attempt),
					logging.Duration("elapsed", time.Since(started)),
				}
				if resp.Usage != nil {
					attrs = append(attrs,
						logging.Int("prompt_tokens", resp.Usage.PromptTokens),
						logging.Int("completion_tokens", resp.Usage.CompletionTokens))
				}
				logger.Debug("llm completion received", logging.Args(attrs...)...)
				return text, nil
			}
			err = &emptyContentError{
				op:           op,
				finishReason: finishReason,
				refusal:      refusal,
				snippet:      summarizePayloadSnippet(string(raw)),
			}
		}

		delay, retry := c.retry.next(ctx, err, attempt)
		if !retry {
			if attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		logging.WarnWithContext(logger, "llm request failed; retrying", "llm_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("delay", delay),
			logging.String(logging.FieldImpact, "stage output delayed"),
			logging.Error(err))
		if err := c.retry.wait(ctx, delay); err != nil {
			return "", err
		}
	}
}

func (c *Client) post(ctx context.Context, body []byte) (chatResponse, []byte, error) {
	var resp chatResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return resp, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return resp, nil, fmt.Errorf("llm request (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer httpResp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return resp, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if httpResp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		return resp, raw, &httpStatusError{
			statusCode: httpResp.StatusCode,
			body:       strings.TrimSpace(string(raw)),
			retryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, raw, fmt.Errorf("llm request: decode response: %w", err)
	}
	if resp.Error != nil {
		return resp, raw, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(resp.Error.Message))
	}
	return resp, raw, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
