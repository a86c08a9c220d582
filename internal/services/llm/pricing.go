package llm

import "strings"

// Price is the USD cost per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// pricing lists hosted models whose cost we can estimate. Keys are matched as
// prefixes of the model identifier, longest first.
var pricing = map[string]Price{
	"gpt-4o-mini":                   {Input: 0.15, Output: 0.60},
	"gpt-4o":                        {Input: 2.50, Output: 10.00},
	"gpt-4.1-mini":                  {Input: 0.40, Output: 1.60},
	"gpt-4.1":                       {Input: 2.00, Output: 8.00},
	"openai/gpt-4o-mini":            {Input: 0.15, Output: 0.60},
	"openai/gpt-4o":                 {Input: 2.50, Output: 10.00},
	"anthropic/claude-3.5-haiku":    {Input: 0.80, Output: 4.00},
	"anthropic/claude-sonnet-4":     {Input: 3.00, Output: 15.00},
	"google/gemini-2.5-flash":       {Input: 0.30, Output: 2.50},
	"google/gemini-3-flash-preview": {Input: 0.50, Output: 3.00},
}

// LookupPrice returns the price for model, matching the longest known prefix.
func LookupPrice(model string) (Price, bool) {
	model = strings.ToLower(strings.TrimSpace(model))
	best, bestLen := Price{}, 0
	for key, price := range pricing {
		if strings.HasPrefix(model, key) && len(key) > bestLen {
			best, bestLen = price, len(key)
		}
	}
	return best, bestLen > 0
}

// EstimateCost returns the USD cost of a call to model. Unknown models and
// local models cost nothing.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	price, ok := LookupPrice(model)
	if !ok {
		return 0
	}
	return (float64(inputTokens)*price.Input + float64(outputTokens)*price.Output) / 1_000_000
}
