// Package embedding provides text embedding providers (OpenAI, local ONNX, mock).
package embedding

import "context"

// Embedder produces vector embeddings for text.
//
// EmbedBatch preserves input order and length, and fails atomically: on any
// provider error the whole batch fails and no partial result is returned.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
