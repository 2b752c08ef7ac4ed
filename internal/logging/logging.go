// Package logging builds the zap loggers used across the CLI and server.
package logging

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedText replaces secrets in log output.
const RedactedText = "[REDACTED]"

var (
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9._\-]+`)
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|x-api-key)(["':=\s]+)[A-Za-z0-9._\-]{8,}`)
	secretKey     = regexp.MustCompile(`\b(sk-ant|sk-or|sk|gsk)[-_][A-Za-z0-9_\-]{8,}`)
)

// New builds a logger writing to stderr. format is "json" or "console";
// level is one of debug, info, warn, error.
func New(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
		lvl = parsed
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Redact masks bearer tokens and API keys in s.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}${2}"+RedactedText)
	return secretKey.ReplaceAllString(s, RedactedText)
}

// RedactError is Redact over an error message.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return Redact(err.Error())
}
