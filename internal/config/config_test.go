package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("Port=%d", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("Dimensions=%d", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("TopK=%d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.HistoryEntries != 10 {
		t.Errorf("HistoryEntries=%d", cfg.Retrieval.HistoryEntries)
	}
	if cfg.Pricing.EmbeddingPer1M != 0.020 || cfg.Pricing.CompletionPer1M != 0.150 {
		t.Errorf("pricing defaults: %+v", cfg.Pricing)
	}
	if cfg.Extract.OCRMethod != "vision" {
		t.Errorf("OCRMethod=%s", cfg.Extract.OCRMethod)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Retrieval.TopK = 5
	cfg.OpenAI.ChatModel = "gpt-4o"
	ApplyDefaults(&cfg)
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("TopK overridden: %d", cfg.Retrieval.TopK)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel overridden: %s", cfg.OpenAI.ChatModel)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
embedding:
  provider: mock
  dimensions: 8
glossary:
  default_path: ./glossary.xlsx
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port=%d", cfg.Server.Port)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Embedding.Dimensions != 8 {
		t.Errorf("embedding: %+v", cfg.Embedding)
	}
	want := filepath.Join(dir, "glossary.xlsx")
	if cfg.Glossary.DefaultPath != want {
		t.Errorf("DefaultPath=%s want %s", cfg.Glossary.DefaultPath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
