package ai

// Model metadata used for the usage line printed after semantic analysis.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"llama-3.1-8b-instant": {
		Name:          "llama-3.1-8b-instant",
		Provider:      ProviderGroq,
		ContextTokens: 131072,
		InputPerK:     0.00005,
		OutputPerK:    0.00008,
	},
	"llama-3.3-70b-versatile": {
		Name:          "llama-3.3-70b-versatile",
		Provider:      ProviderGroq,
		ContextTokens: 131072,
		InputPerK:     0.00059,
		OutputPerK:    0.00079,
	},
	"gpt-4o-mini": {
		Name:          "gpt-4o-mini",
		Provider:      ProviderOpenAI,
		ContextTokens: 128000,
		InputPerK:     0.00015,
		OutputPerK:    0.0006,
	},
	"meta-llama/llama-3.1-8b-instruct": {
		Name:          "meta-llama/llama-3.1-8b-instruct",
		Provider:      ProviderOpenRouter,
		ContextTokens: 131072,
		InputPerK:     0.00002,
		OutputPerK:    0.00005,
	},
	"claude-3-5-haiku-latest": {
		Name:          "claude-3-5-haiku-latest",
		Provider:      ProviderAnthropic,
		ContextTokens: 200000,
		InputPerK:     0.0008,
		OutputPerK:    0.004,
	},
	"llama3.1": {
		Name:          "llama3.1",
		Provider:      ProviderOllama,
		ContextTokens: 131072,
	},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, u Usage) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(u.PromptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(u.CompletionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}
