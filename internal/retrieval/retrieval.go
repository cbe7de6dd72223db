// Package retrieval finds the glossary entries most relevant to an input
// text by cosine similarity against the active glossary version.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodlang/tarjama/internal/embedding"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/version"
)

// ErrNoGlossary is returned when retrieval is attempted before any glossary
// version has been committed.
var ErrNoGlossary = errors.New("no glossary loaded")

type Engine struct {
	embedder embedding.Embedder
	versions *version.Manager
	topK     int
}

func NewEngine(embedder embedding.Embedder, versions *version.Manager, topK int) *Engine {
	if topK < 1 {
		topK = 1
	}
	return &Engine{embedder: embedder, versions: versions, topK: topK}
}

// Retrieve embeds the text and returns up to topK glossary entries ranked by
// similarity, most similar first. All retrieved entries are returned
// regardless of score; weeding out weak matches is left to the consumer of
// the augmented prompt. The active version is loaded once, so a concurrent
// glossary swap cannot mix entries from two versions in one result.
func (e *Engine) Retrieve(ctx context.Context, text string) ([]models.RetrievedEntry, error) {
	v := e.versions.Active()
	if v == nil {
		return nil, ErrNoGlossary
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := v.Snapshot.Query(vec, e.topK)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	out := make([]models.RetrievedEntry, len(hits))
	for i, h := range hits {
		out[i] = models.RetrievedEntry{
			Entry: v.Entries[h.Index],
			Score: h.Score,
		}
	}
	return out, nil
}
