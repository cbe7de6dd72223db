package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// maxBatchSize is the maximum number of inputs sent per embeddings API call.
const maxBatchSize = 100

// OpenAIEmbedder produces embeddings via the OpenAI embeddings API. All calls
// go through a circuit breaker so a flapping upstream fails fast instead of
// stacking timeouts.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	breaker    *gobreaker.CircuitBreaker
}

// NewOpenAIEmbedder creates an embedder for the given model and dimension.
func NewOpenAIEmbedder(apiKey, model string, dimensions int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dimensions,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "openai-embeddings",
		}),
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts preserving input order. Inputs are split into API
// batches of at most 100; a failure in any batch fails the whole call and the
// partial result is discarded.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedOnce(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      texts,
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: e.dimensions,
		})
	})
	if err != nil {
		return nil, classify("batch", err)
	}

	resp := result.(openai.EmbeddingResponse)
	if len(resp.Data) != len(texts) {
		return nil, &ServiceError{
			Op:  "batch",
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}
	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, &ServiceError{Op: "batch", Err: fmt.Errorf("embedding index %d out of range", data.Index)}
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
