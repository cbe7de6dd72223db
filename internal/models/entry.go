// Package models defines the shared data types for the translation pipeline.
package models

import "time"

// GlossaryEntry is one validated bilingual glossary row. Immutable once created.
type GlossaryEntry struct {
	Source string `json:"source"` // English term
	Target string `json:"target"` // Arabic term
	Row    int    `json:"row"`    // original row index in the uploaded file (after header)
}

// RetrievedEntry pairs a glossary entry with its similarity score for a query.
type RetrievedEntry struct {
	Entry GlossaryEntry `json:"entry"`
	Score float64       `json:"score"` // cosine similarity (0-1 for unit vectors)
}

// VersionInfo describes one committed glossary version for history listings.
type VersionInfo struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"` // e.g. "startup", "upload:products.xlsx", "rollback:3"
	Entries   int       `json:"entries"`
	Active    bool      `json:"active"`
}
