package ai

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	// Common
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *zap.Logger
	// Hosted providers
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

func (c RuntimeConfig) withDefaults(retryMax int, baseDelay, maxDelay time.Duration) RuntimeConfig {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	if c.RetryMax <= 0 {
		c.RetryMax = retryMax
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = baseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = maxDelay
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[strings.ToLower(name)] = f }

// GetRuntime creates a Runtime for the given provider if registered.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	if f, ok := registry[strings.ToLower(name)]; ok {
		return f(cfg), true
	}
	return nil, false
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// init registers built-in runtimes.
func init() {
	for _, p := range []string{ProviderGroq, ProviderOpenAI, ProviderOpenRouter} {
		provider := p
		RegisterRuntime(provider, func(c RuntimeConfig) Runtime {
			c = c.withDefaults(3, 500*time.Millisecond, 4*time.Second)
			if c.BaseURL == "" {
				c.BaseURL = DefaultBaseURL(provider)
			}
			return NewClient(provider, c)
		})
	}
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Runtime {
		c = c.withDefaults(2, 200*time.Millisecond, time.Second)
		host := c.Host
		if host == "" {
			host = DefaultOllamaHost
		}
		c.BaseURL = strings.TrimRight(host, "/") + "/v1"
		// Ollama ignores the key but the OpenAI wire format requires one.
		c.APIKey = "ollama"
		return NewClient(ProviderOllama, c)
	})
	RegisterRuntime(ProviderAnthropic, func(c RuntimeConfig) Runtime {
		c = c.withDefaults(3, 500*time.Millisecond, 4*time.Second)
		return NewAnthropicClient(c)
	})
}
