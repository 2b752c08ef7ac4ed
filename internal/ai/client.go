package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client talks to any OpenAI-compatible chat completions API (Groq, OpenAI,
// OpenRouter, Ollama's /v1).
type Client struct {
	api              *openai.Client
	provider         string
	apiKey           string
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	logger           *zap.Logger
}

// NewClient builds a client for provider. cfg.BaseURL must be set.
func NewClient(provider string, cfg RuntimeConfig) *Client {
	cfg = cfg.withDefaults(3, 500*time.Millisecond, 4*time.Second)
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	return &Client{
		api:              openai.NewClientWithConfig(oc),
		provider:         provider,
		apiKey:           cfg.APIKey,
		baseURL:          oc.BaseURL,
		retryMaxAttempts: cfg.RetryMax,
		retryBaseDelay:   cfg.BaseDelay,
		retryMaxDelay:    cfg.MaxDelay,
		logger:           cfg.Logger.Named("llm").With(zap.String("provider", provider)),
	}
}

func (c *Client) ValidateModel(model string) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	return nil
}

// Generate sends a chat completion, retrying 429, 5xx and transient
// network failures with jittered exponential backoff.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", c.provider, ErrMissingAPIKey)
	}
	if err := c.ValidateModel(req.Model); err != nil {
		return nil, err
	}
	creq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
	if req.Temperature == 0 {
		// zero is dropped from the payload by omitempty
		creq.Temperature = math.SmallestNonzeroFloat32
	}
	for _, m := range req.Messages {
		creq.Messages = append(creq.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.api.CreateChatCompletion(ctx, creq)
		if err == nil {
			c.logger.Debug("chat completion",
				zap.String("model", req.Model),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("total_tokens", resp.Usage.TotalTokens))
			return convertResponse(resp), nil
		}
		classified, retry := c.classify(err)
		lastErr = classified
		if !retry || attempt == c.retryMaxAttempts {
			break
		}
		sleep := withJitter(backoff)
		if c.retryMaxDelay > 0 && sleep > c.retryMaxDelay {
			sleep = c.retryMaxDelay
		}
		c.logger.Warn("retrying chat completion",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", sleep),
			zap.Error(classified))
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, lastErr
}

func convertResponse(resp openai.ChatCompletionResponse) *GenerateResponse {
	out := &GenerateResponse{
		ID: resp.ID,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		RequestID: extractRequestID(resp.Header()),
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{Message: Message{Role: ch.Message.Role, Content: ch.Message.Content}})
	}
	return out
}

// classify converts a go-openai error into a typed error and reports
// whether the call should be retried.
func (c *Client) classify(err error) (error, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if isRetryableNetErr(err) {
			return &UnreachableError{Host: c.baseURL, Err: err}, true
		}
		return err, false
	}
	var oaErr *openai.APIError
	if errors.As(err, &oaErr) {
		apiErr := &APIError{
			Provider:   c.provider,
			StatusCode: oaErr.HTTPStatusCode,
			Message:    oaErr.Message,
			Err:        err,
		}
		if code, ok := oaErr.Code.(string); ok {
			apiErr.Code = code
		} else if oaErr.Code != nil {
			apiErr.Code = fmt.Sprint(oaErr.Code)
		}
		return classifyAPIError(apiErr), retryableStatus(apiErr.StatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		apiErr := &APIError{
			Provider:   c.provider,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    truncate(string(reqErr.Body), 512),
			Err:        err,
		}
		return classifyAPIError(apiErr), retryableStatus(apiErr.StatusCode)
	}
	if isRetryableNetErr(err) {
		return &UnreachableError{Host: c.baseURL, Err: err}, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &UnreachableError{Host: c.baseURL, Err: err}, false
	}
	return fmt.Errorf("%s request: %w", c.provider, err), false
}

func isRetryableNetErr(err error) bool {
	// net errors like timeouts
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return true
		}
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(h http.Header) string {
	if h == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Groq-Id", "Request-Id"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
