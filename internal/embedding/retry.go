package embedding

import (
	"context"
	"time"
)

// retryBaseDelay is the initial backoff delay; it doubles each attempt.
const retryBaseDelay = 500 * time.Millisecond

// EmbedBatchWithRetry embeds texts, retrying transient failures with
// exponential backoff up to attempts tries. Permanent failures and context
// cancellation surface immediately.
func EmbedBatchWithRetry(ctx context.Context, e Embedder, texts []string, attempts int) ([][]float32, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	delay := retryBaseDelay
	for i := 0; i < attempts; i++ {
		vectors, err := e.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}
