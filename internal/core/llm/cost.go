package llm

// tokensPerMillion converts per-million pricing into per-token pricing.
const tokensPerMillion = 1_000_000.0

// CostUSD returns (promptTokens + completionTokens) / 1_000_000 * unitPricePerMillion.
// A single blended unit price is applied to both token kinds.
func CostUSD(promptTokens, completionTokens int, unitPricePerMillion float64) float64 {
	return float64(promptTokens+completionTokens) / tokensPerMillion * unitPricePerMillion
}

// Cost returns the cost of this usage at the given unit price.
func (u Usage) Cost(unitPricePerMillion float64) float64 {
	return CostUSD(u.PromptTokens, u.CompletionTokens, unitPricePerMillion)
}
