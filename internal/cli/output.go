// Package cli provides output formatting for the Tarjama command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTranslation writes a translation result to w in the given format.
func WriteTranslation(w io.Writer, t *models.Translation, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, t)
	}
	fmt.Fprintf(w, "%s\n", t.TranslatedText)
	fmt.Fprintf(w, "\nDetected language: %s | Tokens: %d | Cost: $%.6f\n",
		t.DetectedLanguage, t.TokensUsed, t.CostEstimate)
	if len(t.Hints) > 0 {
		fmt.Fprintln(w, "Glossary matches:")
		for i, h := range t.Hints {
			fmt.Fprintf(w, "  %d. %s = %s (%.4f)\n", i+1, h.Entry.Source, h.Entry.Target, h.Score)
		}
	}
	return nil
}

// WriteExtraction writes an extraction result to w in the given format.
func WriteExtraction(w io.Writer, e *models.Extraction, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, e)
	}
	if e.ExtractedText == "" {
		fmt.Fprintln(w, "No text detected.")
		return nil
	}
	fmt.Fprintf(w, "Extracted text:\n%s\n", e.ExtractedText)
	if e.Translation != nil {
		fmt.Fprintln(w)
		return WriteTranslation(w, e.Translation, format)
	}
	return nil
}

// WriteVersions writes the glossary version history to w, newest first.
func WriteVersions(w io.Writer, versions []models.VersionInfo, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, versions)
	}
	if len(versions) == 0 {
		fmt.Fprintln(w, "No glossary versions.")
		return nil
	}
	for _, v := range versions {
		marker := " "
		if v.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s v%d  %s  %d entries  %s\n",
			marker, v.ID, v.CreatedAt.Format("2006-01-02 15:04:05"), v.Entries,
			utils.Truncate(v.Source, 40))
	}
	return nil
}

// WriteUsage writes usage statistics to w in the given format.
func WriteUsage(w io.Writer, stats *models.UsageStats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "Requests: %d | Tokens: %d (embedding %d, completion %d)\n",
		stats.TotalRequests, stats.TotalTokens, stats.EmbeddingTokens, stats.CompletionTokens)
	fmt.Fprintf(w, "Cost: $%.6f (embedding $%.6f, completion $%.6f)\n",
		stats.TotalCost, stats.EmbeddingCost, stats.CompletionCost)
	if len(stats.ByEndpoint) > 0 {
		fmt.Fprintln(w, "By endpoint:")
		for endpoint, usage := range stats.ByEndpoint {
			fmt.Fprintf(w, "  %-28s %d requests, %d tokens, $%.6f\n",
				endpoint, usage.Requests, usage.Tokens, usage.Cost)
		}
	}
	return nil
}
