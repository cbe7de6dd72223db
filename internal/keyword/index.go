// Package keyword provides an in-memory term index over glossary entries for
// admin lookups. An index is built once per committed glossary version and
// never mutated afterwards.
package keyword

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/foodlang/tarjama/internal/models"
)

// Match is a keyword search hit.
type Match struct {
	Entry models.GlossaryEntry `json:"entry"`
	Score float64              `json:"score"`
}

// Index is a read-only Bleve index over one glossary version's entries.
type Index struct {
	index   bleve.Index
	entries []models.GlossaryEntry
}

type indexedEntry struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Build creates an in-memory index over entries. The standard analyzer
// (lowercase + tokenize, no stemming) is used so exact food terms match
// without stem surprises.
func Build(entries []models.GlossaryEntry) (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("source", textFieldMapping)
	docMapping.AddFieldMappingsAt("target", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}

	batch := index.NewBatch()
	for i, e := range entries {
		if err := batch.Index(strconv.Itoa(i), indexedEntry{Source: e.Source, Target: e.Target}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index entry %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to commit keyword batch: %w", err)
	}

	stored := make([]models.GlossaryEntry, len(entries))
	copy(stored, entries)
	return &Index{index: index, entries: stored}, nil
}

// Search returns up to limit entries whose source or target terms match the
// query, best first.
func (idx *Index) Search(query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 10
	}
	sourceQuery := bleve.NewMatchQuery(query)
	sourceQuery.SetField("source")
	targetQuery := bleve.NewMatchQuery(query)
	targetQuery.SetField("target")
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(sourceQuery, targetQuery))
	req.Size = limit

	result, err := idx.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	matches := make([]Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(idx.entries) {
			continue
		}
		matches = append(matches, Match{Entry: idx.entries[i], Score: hit.Score})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Close releases the underlying index.
func (idx *Index) Close() error {
	return idx.index.Close()
}
