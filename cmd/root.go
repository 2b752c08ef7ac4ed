package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/ai"
	"github.com/Kumkum-Mishra/CleanForge/internal/cleaning"
	"github.com/Kumkum-Mishra/CleanForge/internal/coerce"
	cfgpkg "github.com/Kumkum-Mishra/CleanForge/internal/config"
	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/logging"
	"github.com/Kumkum-Mishra/CleanForge/internal/pipeline"
	"github.com/Kumkum-Mishra/CleanForge/internal/scoring"
	"github.com/Kumkum-Mishra/CleanForge/internal/semantic"
)

var (
	cfgFile string
	debug   bool
	// Overrides (applied when set)
	flagProvider         string
	flagModel            string
	flagDelimiter        string
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cleanforge",
	Short: "CleanForge: profile, score and clean tabular CSV data",
	Long: `CleanForge profiles a CSV dataset, scores its quality from 0 to 100,
cleans it with a fixed pipeline (dedupe, normalize, coerce, fix known columns,
impute medians, cap outliers) and optionally asks a language model what each
column means.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", userMessage(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.cleanforge/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagProvider, "provider", "", "LLM provider: groq|openai|openrouter|ollama|anthropic (overrides config)")
	pf.StringVar(&flagModel, "model", "", "LLM model name (overrides config)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("provider") && flagProvider != "" {
		if err := cfg.Set("provider", flagProvider); err != nil {
			return err
		}
	}
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// readOptions builds CSV options from the --delimiter flag.
func readOptions() (dataset.ReadOptions, error) {
	opt := dataset.ReadOptions{StringColumns: coerce.Excluded}
	switch flagDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", flagDelimiter)
	}
	return opt, nil
}

func readDataset(path string) (*dataset.Dataset, error) {
	opt, err := readOptions()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.ReadFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded",
		zap.String("path", path),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", ds.Width()))
	return ds, nil
}

// modelName returns the configured model or the provider default.
func modelName() string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return ai.DefaultModel(cfg.Provider)
}

func newRuntime() (ai.Runtime, error) {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMax:    cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		Logger:      logger,
		APIKey:      cfg.ResolveAPIKey(),
		BaseURL:     cfg.BaseURL,
		Host:        cfg.OllamaHost,
	}
	rt, ok := ai.GetRuntime(cfg.Provider, rc)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", cfg.Provider, ai.Providers())
	}
	return rt, nil
}

// newRunner wires the pipeline from config. The LLM runtime is only built
// when withSemantic is set.
func newRunner(withSemantic bool) (*pipeline.Runner, error) {
	opt := cleaning.Options{SuccessRatio: cfg.NumericSuccessRatio, AgeLimit: cfg.AgeLimit}
	r := &pipeline.Runner{
		Cleaner:     cleaning.New(opt, logger),
		PreviewRows: cfg.PreviewRows,
		Logger:      logger,
	}
	if !withSemantic {
		return r, nil
	}
	rt, err := newRuntime()
	if err != nil {
		return nil, err
	}
	r.SemanticAnalyzer = &semantic.Analyzer{
		Runtime:     rt,
		Model:       modelName(),
		SampleSize:  cfg.SampleValues,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Logger:      logger,
	}
	return r, nil
}

// userMessage turns well-known sentinel errors into plain sentences.
func userMessage(err error) string {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		return "dataset has no rows or no columns; nothing to score"
	case errors.Is(err, dataset.ErrEmptyInput):
		return "input file is empty (no header row)"
	}
	return logging.Redact(err.Error())
}
