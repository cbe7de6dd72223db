// Package glossary parses bilingual glossary uploads into validated entry lists.
package glossary

import (
	"fmt"
	"strings"

	"github.com/foodlang/tarjama/internal/models"
)

// previewSize is the number of valid entries included in a parse preview.
const previewSize = 5

// ValidationError reports a glossary upload with no usable rows. It carries
// diagnostics so the admin can correct the file before resubmitting.
type ValidationError struct {
	ValidCount   int
	SkippedCount int
	Reason       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("glossary validation failed: %s (valid=%d skipped=%d)", e.Reason, e.ValidCount, e.SkippedCount)
}

// ParseResult carries the validated entries plus diagnostics for confirmation.
type ParseResult struct {
	Entries      []models.GlossaryEntry `json:"-"`
	ValidCount   int                    `json:"valid_count"`
	SkippedCount int                    `json:"skipped_count"`
	Preview      []models.GlossaryEntry `json:"preview"` // first entries, for confirmation
}

// Parse validates raw two-column rows into glossary entries. The first row is
// treated as a header and skipped. A row is valid iff both of its first two
// columns are non-empty after trimming; invalid rows are counted and excluded.
// Zero valid rows yields a *ValidationError. Parse has no side effects.
func Parse(rows [][]string) (*ParseResult, error) {
	if len(rows) <= 1 {
		return nil, &ValidationError{Reason: "no data rows found after header"}
	}

	result := &ParseResult{}
	for i, row := range rows[1:] {
		source, target := "", ""
		if len(row) > 0 {
			source = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			target = strings.TrimSpace(row[1])
		}
		if source == "" || target == "" {
			result.SkippedCount++
			continue
		}
		result.Entries = append(result.Entries, models.GlossaryEntry{
			Source: source,
			Target: target,
			Row:    i + 1,
		})
	}

	result.ValidCount = len(result.Entries)
	if result.ValidCount == 0 {
		return nil, &ValidationError{
			SkippedCount: result.SkippedCount,
			Reason:       "no valid entries found in glossary",
		}
	}

	n := previewSize
	if n > result.ValidCount {
		n = result.ValidCount
	}
	result.Preview = result.Entries[:n]
	return result, nil
}

// CombinedText returns the text that is embedded for an entry: both terms
// joined so a query in either language can match.
func CombinedText(e models.GlossaryEntry) string {
	return e.Source + " | " + e.Target
}

// CombinedTexts returns the embeddable text for each entry, in order.
func CombinedTexts(entries []models.GlossaryEntry) []string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = CombinedText(e)
	}
	return texts
}
