package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient adapts the Anthropic Messages API to Runtime.
type AnthropicClient struct {
	api              *anthropic.Client
	apiKey           string
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	logger           *zap.Logger
}

func NewAnthropicClient(cfg RuntimeConfig) *AnthropicClient {
	cfg = cfg.withDefaults(3, 500*time.Millisecond, 4*time.Second)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL(ProviderAnthropic)
	}
	return &AnthropicClient{
		api: anthropic.NewClient(cfg.APIKey,
			anthropic.WithBaseURL(baseURL),
			anthropic.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		),
		apiKey:           cfg.APIKey,
		baseURL:          baseURL,
		retryMaxAttempts: cfg.RetryMax,
		retryBaseDelay:   cfg.BaseDelay,
		retryMaxDelay:    cfg.MaxDelay,
		logger:           cfg.Logger.Named("llm").With(zap.String("provider", ProviderAnthropic)),
	}
}

// Generate maps system messages onto the request's System field and sends
// the rest as conversation turns.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", ProviderAnthropic, ErrMissingAPIKey)
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	mreq := anthropic.MessagesRequest{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
	}
	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			mreq.Messages = append(mreq.Messages, anthropic.NewAssistantTextMessage(m.Content))
		default:
			mreq.Messages = append(mreq.Messages, anthropic.NewUserTextMessage(m.Content))
		}
	}
	mreq.System = strings.Join(system, "\n\n")
	mreq.SetTemperature(float32(req.Temperature))

	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.api.CreateMessages(ctx, mreq)
		if err == nil {
			return convertMessagesResponse(resp), nil
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
		c.logger.Warn("retrying messages request",
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

func convertMessagesResponse(resp anthropic.MessagesResponse) *GenerateResponse {
	out := &GenerateResponse{
		ID: resp.ID,
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	out.Choices = []Choice{{Message: Message{Role: RoleAssistant, Content: text.String()}}}
	return out
}

// anthropicStatus maps Anthropic error types onto the HTTP status they are
// documented with, so classifyAPIError can be shared.
var anthropicStatus = map[string]int{
	"invalid_request_error": http.StatusBadRequest,
	"authentication_error":  http.StatusUnauthorized,
	"permission_error":      http.StatusForbidden,
	"not_found_error":       http.StatusNotFound,
	"rate_limit_error":      http.StatusTooManyRequests,
	"api_error":             http.StatusInternalServerError,
	"overloaded_error":      529,
}

func (c *AnthropicClient) classify(err error) (error, bool) {
	if errors.Is(err, context.Canceled) {
		return err, false
	}
	var aErr *anthropic.APIError
	if errors.As(err, &aErr) {
		typ := string(aErr.Type)
		apiErr := &APIError{
			Provider:   ProviderAnthropic,
			StatusCode: anthropicStatus[typ],
			Code:       typ,
			Message:    aErr.Message,
			Err:        err,
		}
		if apiErr.StatusCode == http.StatusNotFound && containsFold(apiErr.Message, "model") {
			return &ModelNotFoundError{APIError: apiErr}, false
		}
		return classifyAPIError(apiErr), retryableStatus(apiErr.StatusCode)
	}
	if isRetryableNetErr(err) {
		return &UnreachableError{Host: c.baseURL, Err: err}, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err, false
	}
	return &UnreachableError{Host: c.baseURL, Err: err}, false
}
