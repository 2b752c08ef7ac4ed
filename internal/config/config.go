package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (CLEANFORGE_MODEL, ...).
const EnvPrefix = "CLEANFORGE"

// Global configuration structure.
type Global struct {
	// LLM provider
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Pipeline
	SampleValues        int     `mapstructure:"sample_values" yaml:"sample_values"`
	PreviewRows         int     `mapstructure:"preview_rows" yaml:"preview_rows"`
	NumericSuccessRatio float64 `mapstructure:"numeric_success_ratio" yaml:"numeric_success_ratio"`
	AgeLimit            float64 `mapstructure:"age_limit" yaml:"age_limit"`

	// HTTP server
	ListenAddr  string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxUploadMB int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

var defaults = map[string]any{
	"provider":              "groq",
	"model":                 "",
	"api_key":               "",
	"base_url":              "",
	"temperature":           0.0,
	"max_tokens":            1024,
	"http_timeout_sec":      60,
	"retry_max_attempts":    3,
	"retry_base_delay_ms":   500,
	"retry_max_delay_ms":    4000,
	"ollama_host":           "http://127.0.0.1:11434",
	"sample_values":         5,
	"preview_rows":          10,
	"numeric_success_ratio": 0.85,
	"age_limit":             100.0,
	"listen_addr":           "127.0.0.1:8000",
	"cors_origins":          []string{"*"},
	"max_upload_mb":         32,
	"log_level":             "info",
	"log_format":            "console",
}

// Keys lists every recognised configuration key, sorted.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// providerKeyEnv holds the conventional key variable per hosted provider.
var providerKeyEnv = map[string]string{
	"groq":       "GROQ_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
}

// DefaultPath returns ~/.cleanforge/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cleanforge", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cleanforge/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	return &c, nil
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// conventional environment variable (GROQ_API_KEY, ...).
func (c *Global) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if env, ok := providerKeyEnv[c.Provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// Set parses value for key and stores it.
func (c *Global) Set(key, value string) error {
	switch key {
	case "provider":
		p := strings.ToLower(strings.TrimSpace(value))
		switch p {
		case "groq", "openai", "openrouter", "ollama", "anthropic":
			c.Provider = p
		case "local":
			c.Provider = "ollama"
		default:
			return fmt.Errorf("invalid provider: %s (use groq, openai, openrouter, ollama or anthropic)", value)
		}
	case "model":
		c.Model = value
	case "api_key":
		c.APIKey = value
	case "base_url":
		c.BaseURL = value
	case "ollama_host":
		c.OllamaHost = value
	case "listen_addr":
		c.ListenAddr = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "cors_origins":
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v", value)
		}
		c.Temperature = f
	case "numeric_success_ratio":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid ratio for numeric_success_ratio: %v", value)
		}
		c.NumericSuccessRatio = f
	case "age_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for age_limit: %v", value)
		}
		c.AgeLimit = f
	case "max_tokens", "http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms",
		"retry_max_delay_ms", "sample_values", "preview_rows", "max_upload_mb":
		i, err := strconv.Atoi(value)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, value)
		}
		*c.intField(key) = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func (c *Global) intField(key string) *int {
	switch key {
	case "max_tokens":
		return &c.MaxTokens
	case "http_timeout_sec":
		return &c.HTTPTimeoutSec
	case "retry_max_attempts":
		return &c.RetryMaxAttempts
	case "retry_base_delay_ms":
		return &c.RetryBaseDelayMs
	case "retry_max_delay_ms":
		return &c.RetryMaxDelayMs
	case "sample_values":
		return &c.SampleValues
	case "preview_rows":
		return &c.PreviewRows
	default:
		return &c.MaxUploadMB
	}
}
