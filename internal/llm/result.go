// Package llm implements the gateway to the classification and
// response-generation models: a hosted Mistral API as primary, a self-hosted
// Ollama instance as fallback, and a deterministic keyword rule engine behind
// both. The gateway never propagates a failure to its caller — every path
// yields a Result.
package llm

// Provider identifies which tier of the fallback cascade produced a Result.
type Provider string

const (
	ProviderMistral Provider = "mistral"
	ProviderOllama  Provider = "ollama"
	ProviderLocal   Provider = "local"
)

// Purpose selects the statically configured model pair for a call.
type Purpose string

const (
	PurposeClassification Purpose = "classification"
	PurposeGeneration     Purpose = "generation"
)

// Result is the outcome of one gateway call. Success=false means Content is a
// best-effort human-readable fallback with no guarantee of relevance; callers
// must not treat it as authoritative.
type Result struct {
	Content    string   `json:"content"`
	ModelUsed  string   `json:"model_used"`
	Provider   Provider `json:"provider"`
	TokensUsed int      `json:"tokens_used"`
	CostUSD    float64  `json:"cost_usd"`
	Success    bool     `json:"success"`
	Error      string   `json:"error,omitempty"`
}

// modelPricing is the per-1000-token USD rate for remote models. Unknown
// models bill at defaultRate; the local rule engine is always free.
var modelPricing = map[string]float64{
	"mistral-small": 0.0002,
	"mistral-large": 0.008,
}

const defaultRate = 0.002

// EstimateCost returns the USD cost for a remote call.
func EstimateCost(model string, tokens int) float64 {
	rate, ok := modelPricing[model]
	if !ok {
		rate = defaultRate
	}
	return float64(tokens) / 1000 * rate
}
