package retrieval

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/foodlang/tarjama/internal/embedding"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/version"
)

func buildManager(t *testing.T, embedder embedding.Embedder, entries []models.GlossaryEntry) *version.Manager {
	t.Helper()
	m := version.NewManager(10)
	_, err := m.Rebuild(context.Background(), entries, "test.xlsx", embedder.EmbedBatch)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return m
}

func TestRetrieveTopK(t *testing.T) {
	embedder := embedding.NewMockEmbedder(32)
	entries := []models.GlossaryEntry{
		{Source: "whole milk", Target: "حليب كامل الدسم", Row: 2},
		{Source: "skimmed milk", Target: "حليب خالي الدسم", Row: 3},
		{Source: "brown sugar", Target: "سكر بني", Row: 4},
		{Source: "olive oil", Target: "زيت زيتون", Row: 5},
	}
	m := buildManager(t, embedder, entries)
	engine := NewEngine(embedder, m, 3)

	hits, err := engine.Retrieve(context.Background(), "whole milk | حليب كامل الدسم")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Entry.Source != "whole milk" {
		t.Errorf("expected exact match first, got %q", hits[0].Entry.Source)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted by score at %d", i)
		}
	}
}

func TestRetrieveFewerEntriesThanK(t *testing.T) {
	embedder := embedding.NewMockEmbedder(32)
	entries := []models.GlossaryEntry{
		{Source: "salt", Target: "ملح", Row: 2},
		{Source: "pepper", Target: "فلفل", Row: 3},
	}
	m := buildManager(t, embedder, entries)
	engine := NewEngine(embedder, m, 5)

	hits, err := engine.Retrieve(context.Background(), "salt")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected all 2 entries, got %d", len(hits))
	}
}

func TestRetrieveNoGlossary(t *testing.T) {
	embedder := embedding.NewMockEmbedder(32)
	engine := NewEngine(embedder, version.NewManager(10), 3)

	_, err := engine.Retrieve(context.Background(), "anything")
	if !errors.Is(err, ErrNoGlossary) {
		t.Fatalf("expected ErrNoGlossary, got %v", err)
	}
}

func TestRetrieveDeterministic(t *testing.T) {
	embedder := embedding.NewMockEmbedder(32)
	entries := []models.GlossaryEntry{
		{Source: "wheat flour", Target: "دقيق القمح", Row: 2},
		{Source: "corn starch", Target: "نشا الذرة", Row: 3},
		{Source: "baking soda", Target: "بيكربونات الصوديوم", Row: 4},
	}
	m := buildManager(t, embedder, entries)
	engine := NewEngine(embedder, m, 2)

	first, err := engine.Retrieve(context.Background(), "flour")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Retrieve(context.Background(), "flour")
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("retrieval not deterministic on run %d", i)
		}
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	embedder := embedding.NewMockEmbedder(32)
	entries := []models.GlossaryEntry{{Source: "salt", Target: "ملح", Row: 2}}
	m := buildManager(t, embedder, entries)
	engine := NewEngine(failingEmbedder{}, m, 3)

	if _, err := engine.Retrieve(context.Background(), "salt"); err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedder down")
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedder down")
}

func (failingEmbedder) Dimensions() int { return 32 }
func (failingEmbedder) Close() error    { return nil }
