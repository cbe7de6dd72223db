// Package service wires the glossary pipeline together: parsing, embedding,
// versioned indexing, retrieval, translation and cost accounting.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/foodlang/tarjama/internal/config"
	"github.com/foodlang/tarjama/internal/cost"
	"github.com/foodlang/tarjama/internal/embedding"
	"github.com/foodlang/tarjama/internal/extract"
	"github.com/foodlang/tarjama/internal/glossary"
	"github.com/foodlang/tarjama/internal/keyword"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/retrieval"
	"github.com/foodlang/tarjama/internal/storage"
	"github.com/foodlang/tarjama/internal/translate"
	"github.com/foodlang/tarjama/internal/version"
)

// Service is the application facade the HTTP server and CLI talk to.
type Service struct {
	cfg        *config.Config
	logger     *zap.Logger
	embedder   embedding.Embedder
	versions   *version.Manager
	retriever  *retrieval.Engine
	translator *translate.Translator
	extractor  *extract.Extractor
	meter      *cost.Meter
	counter    *cost.Counter
	store      *storage.UsageStore
	startedAt  time.Time
}

// New builds a service with real provider clients per the config.
func New(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	var store *storage.UsageStore
	if cfg.Usage.DatabasePath != "" {
		store, err = storage.NewUsageStore(cfg.Usage.DatabasePath)
		if err != nil {
			_ = embedder.Close()
			return nil, fmt.Errorf("open usage store: %w", err)
		}
	}

	chat := translate.NewOpenAIChat(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)

	switch cfg.Extract.OCRMethod {
	case "vision", "tesseract", "none", "":
	default:
		_ = embedder.Close()
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("unknown OCR method %q", cfg.Extract.OCRMethod)
	}
	ocrs := map[string]extract.OCR{
		"vision":    extract.NewVisionOCR(cfg.OpenAI.APIKey, cfg.OpenAI.VisionModel),
		"tesseract": extract.NewTesseractOCR(cfg.Extract.TesseractPath, cfg.Extract.Languages),
	}

	return NewWithClients(cfg, logger, embedder, chat, ocrs, store), nil
}

// NewWithClients builds a service from already constructed clients. Tests
// use it to substitute deterministic embedders and chat stubs.
func NewWithClients(cfg *config.Config, logger *zap.Logger, embedder embedding.Embedder, chat translate.ChatClient, ocrs map[string]extract.OCR, store *storage.UsageStore) *Service {
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	var sink cost.Sink
	if store != nil {
		sink = store
	}
	meter := cost.NewMeter(
		cost.Pricing{
			EmbeddingPer1M:  cfg.Pricing.EmbeddingPer1M,
			CompletionPer1M: cfg.Pricing.CompletionPer1M,
		},
		cfg.Usage.ActivityCap,
		cfg.Usage.RecentLimit,
		sink,
	)

	versions := version.NewManager(cfg.Retrieval.HistoryEntries)
	retriever := retrieval.NewEngine(embedder, versions, cfg.Retrieval.TopK)
	translator := translate.NewTranslator(retriever, chat, meter, cfg.Embedding.Retries, logger)

	defaultOCR := cfg.Extract.OCRMethod
	if defaultOCR == "none" {
		defaultOCR = ""
	}

	return &Service{
		cfg:        cfg,
		logger:     logger,
		embedder:   embedder,
		versions:   versions,
		retriever:  retriever,
		translator: translator,
		extractor:  extract.NewExtractor(ocrs, defaultOCR),
		meter:      meter,
		counter:    &cost.Counter{},
		store:      store,
		startedAt:  time.Now(),
	}
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, cfg.Embedding.Dimensions)
	case "onnx":
		return embedding.NewONNXEmbedder(cfg.Embedding.ModelPath, cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Close releases the embedder and the usage store.
func (s *Service) Close() {
	if err := s.embedder.Close(); err != nil {
		s.logger.Warn("embedder close failed", zap.Error(err))
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("usage store close failed", zap.Error(err))
		}
	}
}

// Translate translates food label text with the active glossary as context.
func (s *Service) Translate(ctx context.Context, text string) (*models.Translation, error) {
	return s.translator.Translate(ctx, text)
}

// Extract pulls text from an uploaded image or document and translates it.
// An empty method uses the configured OCR backend for images. A file with
// no recognizable text yields an Extraction with no translation.
func (s *Service) Extract(ctx context.Context, filename, method string, content []byte) (*models.Extraction, error) {
	res, err := s.extractor.Extract(ctx, filename, method, content)
	if err != nil {
		return nil, err
	}
	if res.Tokens > 0 {
		if _, err := s.meter.Record("/api/v1/extract", "extraction", 0, res.Tokens); err != nil {
			s.logger.Warn("usage record not persisted", zap.Error(err))
		}
	}

	out := &models.Extraction{ExtractedText: res.Text}
	if strings.TrimSpace(res.Text) == "" {
		return out, nil
	}

	translation, err := s.translator.TranslateAs(ctx, res.Text, "/api/v1/extract", "translation")
	if err != nil {
		return nil, err
	}
	out.Translation = translation
	return out, nil
}

// UploadResult reports a committed glossary version along with parsing
// statistics and a preview of the first entries.
type UploadResult struct {
	Version      models.VersionInfo
	ValidCount   int
	SkippedCount int
	Preview      []models.GlossaryEntry
}

// UploadGlossary parses an Excel workbook, embeds its entries and commits
// them as the new active glossary version.
func (s *Service) UploadGlossary(ctx context.Context, filename string, content []byte) (*UploadResult, error) {
	rows, err := glossary.DecodeExcel(content)
	if err != nil {
		return nil, err
	}
	parsed, err := glossary.Parse(rows)
	if err != nil {
		return nil, err
	}

	v, err := s.versions.Rebuild(ctx, parsed.Entries, filename, func(ctx context.Context, texts []string) ([][]float32, error) {
		return embedding.EmbedBatchWithRetry(ctx, s.embedder, texts, s.cfg.Embedding.Retries)
	})
	if err != nil {
		return nil, err
	}

	var embTokens int
	for _, text := range glossary.CombinedTexts(parsed.Entries) {
		embTokens += s.counter.Count(text)
	}
	if _, err := s.meter.Record("/api/v1/admin/glossary", "embedding", embTokens, 0); err != nil {
		s.logger.Warn("usage record not persisted", zap.Error(err))
	}

	info := versionInfo(v, true)
	s.recordVersionEvent(info, "commit")
	s.logger.Info("glossary version committed",
		zap.Uint64("version", v.ID),
		zap.String("source", filename),
		zap.Int("entries", len(v.Entries)),
		zap.Int("skipped", parsed.SkippedCount))

	return &UploadResult{
		Version:      info,
		ValidCount:   parsed.ValidCount,
		SkippedCount: parsed.SkippedCount,
		Preview:      parsed.Preview,
	}, nil
}

// LoadDefaultGlossary loads the configured glossary workbook from disk.
// Called at startup and by the file watcher.
func (s *Service) LoadDefaultGlossary(ctx context.Context) (*UploadResult, error) {
	path := s.cfg.Glossary.DefaultPath
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read default glossary: %w", err)
	}
	return s.UploadGlossary(ctx, filepath.Base(path), content)
}

// Rollback makes a previous glossary version active again.
func (s *Service) Rollback(id uint64) (models.VersionInfo, error) {
	v, err := s.versions.Rollback(id)
	if err != nil {
		return models.VersionInfo{}, err
	}
	info := versionInfo(v, true)
	s.recordVersionEvent(info, "rollback")
	s.logger.Info("glossary rolled back", zap.Uint64("version", v.ID))
	return info, nil
}

// Versions lists the glossary version history, newest first.
func (s *Service) Versions() []models.VersionInfo {
	return s.versions.History()
}

// Usage returns aggregate token usage and cost statistics.
func (s *Service) Usage() models.UsageStats {
	return s.meter.Snapshot()
}

// UsageSummary returns the running totals without per-endpoint detail,
// suitable for the public cost endpoint.
func (s *Service) UsageSummary() models.UsageSummary {
	return s.meter.Summary()
}

// SearchGlossary does a keyword lookup over the active glossary version.
func (s *Service) SearchGlossary(query string, limit int) ([]keyword.Match, error) {
	v := s.versions.Active()
	if v == nil {
		return nil, retrieval.ErrNoGlossary
	}
	return v.Keywords.Search(query, limit)
}

// Status describes the running service.
type Status struct {
	GlossaryLoaded bool                `json:"glossary_loaded"`
	ActiveVersion  *models.VersionInfo `json:"active_version,omitempty"`
	Versions       int                 `json:"versions"`
	UptimeSeconds  int64               `json:"uptime_seconds"`
	Provider       string              `json:"provider"`
	EmbeddingModel string              `json:"embedding_model"`
	ChatModel      string              `json:"chat_model"`
	Dimensions     int                 `json:"dimensions"`
	TopK           int                 `json:"top_k"`
}

func (s *Service) Status() Status {
	st := Status{
		Versions:       len(s.versions.History()),
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		Provider:       s.cfg.Embedding.Provider,
		EmbeddingModel: s.cfg.OpenAI.EmbeddingModel,
		ChatModel:      s.cfg.OpenAI.ChatModel,
		Dimensions:     s.cfg.Embedding.Dimensions,
		TopK:           s.cfg.Retrieval.TopK,
	}
	if v := s.versions.Active(); v != nil {
		info := versionInfo(v, true)
		st.GlossaryLoaded = true
		st.ActiveVersion = &info
	}
	return st
}

func (s *Service) recordVersionEvent(info models.VersionInfo, event string) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendVersion(info, event); err != nil {
		s.logger.Warn("version event not persisted", zap.Error(err))
	}
}

func versionInfo(v *version.Version, active bool) models.VersionInfo {
	return models.VersionInfo{
		ID:        v.ID,
		CreatedAt: v.CreatedAt,
		Source:    v.Source,
		Entries:   len(v.Entries),
		Active:    active,
	}
}
