// Package cost tracks token usage and estimated spend across API requests.
package cost

// Pricing holds per-million-token prices in USD.
type Pricing struct {
	EmbeddingPer1M  float64
	CompletionPer1M float64
}

func (p Pricing) EmbeddingCost(tokens int) float64 {
	return float64(tokens) / 1_000_000 * p.EmbeddingPer1M
}

func (p Pricing) CompletionCost(tokens int) float64 {
	return float64(tokens) / 1_000_000 * p.CompletionPer1M
}

func (p Pricing) Cost(embeddingTokens, completionTokens int) float64 {
	return p.EmbeddingCost(embeddingTokens) + p.CompletionCost(completionTokens)
}
