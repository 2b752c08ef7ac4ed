package ai

import (
	"context"
	"strings"
)

// Runtime is implemented by every LLM backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderGroq       = "groq"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderAnthropic  = "anthropic"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateRequest is a provider-neutral chat completion request. A zero
// Temperature is sent as deterministic sampling.
type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the first choice's content, or "".
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// defaults per provider
var (
	defaultBaseURLs = map[string]string{
		ProviderGroq:       "https://api.groq.com/openai/v1",
		ProviderOpenAI:     "https://api.openai.com/v1",
		ProviderOpenRouter: "https://openrouter.ai/api/v1",
		ProviderAnthropic:  "https://api.anthropic.com/v1",
	}
	defaultModels = map[string]string{
		ProviderGroq:       "llama-3.1-8b-instant",
		ProviderOpenAI:     "gpt-4o-mini",
		ProviderOpenRouter: "meta-llama/llama-3.1-8b-instruct",
		ProviderOllama:     "llama3.1",
		ProviderAnthropic:  "claude-3-5-haiku-latest",
	}
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[strings.ToLower(provider)]
}

// DefaultBaseURL returns the API base for hosted providers.
func DefaultBaseURL(provider string) string {
	return defaultBaseURLs[strings.ToLower(provider)]
}

// DefaultOllamaHost is the local Ollama address.
const DefaultOllamaHost = "http://127.0.0.1:11434"
