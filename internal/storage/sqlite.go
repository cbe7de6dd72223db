// Package storage persists usage records and glossary version history in
// SQLite, so cost accounting survives restarts.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/foodlang/tarjama/internal/models"
)

// UsageStore is a SQLite-backed append log for usage records and glossary
// version events.
type UsageStore struct {
	db *sql.DB
}

// NewUsageStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewUsageStore(dbPath string) (*UsageStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &UsageStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		endpoint TEXT NOT NULL,
		request_type TEXT NOT NULL,
		embedding_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		cost REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_usage_endpoint ON usage_records(endpoint);

	CREATE TABLE IF NOT EXISTS glossary_versions (
		version_id INTEGER NOT NULL,
		source TEXT NOT NULL,
		entries INTEGER NOT NULL,
		event TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_versions_created_at ON glossary_versions(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// AppendUsage inserts one usage record. Implements the meter's sink.
func (s *UsageStore) AppendUsage(rec models.UsageRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_records (id, endpoint, request_type, embedding_tokens, completion_tokens, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Endpoint, rec.RequestType, rec.EmbeddingTokens, rec.CompletionTokens, rec.Cost, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// ListUsage returns the most recent usage records, newest first.
func (s *UsageStore) ListUsage(limit int) ([]models.UsageRecord, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, endpoint, request_type, embedding_tokens, completion_tokens, cost, created_at
		 FROM usage_records ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.Endpoint, &rec.RequestType,
			&rec.EmbeddingTokens, &rec.CompletionTokens, &rec.Cost, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppendVersion records a glossary version event ("commit" or "rollback").
func (s *UsageStore) AppendVersion(info models.VersionInfo, event string) error {
	_, err := s.db.Exec(
		`INSERT INTO glossary_versions (version_id, source, entries, event, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.Source, info.Entries, event, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert version event: %w", err)
	}
	return nil
}

// VersionEvent is one row of the persisted glossary version log.
type VersionEvent struct {
	VersionID uint64
	Source    string
	Entries   int
	Event     string
	CreatedAt time.Time
}

// ListVersions returns the most recent version events, newest first.
func (s *UsageStore) ListVersions(limit int) ([]VersionEvent, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT version_id, source, entries, event, created_at
		 FROM glossary_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []VersionEvent
	for rows.Next() {
		var ev VersionEvent
		if err := rows.Scan(&ev.VersionID, &ev.Source, &ev.Entries, &ev.Event, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the database.
func (s *UsageStore) Close() error {
	return s.db.Close()
}
