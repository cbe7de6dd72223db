// Package config provides configuration loading and structs for the Tarjama server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Glossary  GlossaryConfig  `yaml:"glossary"`
	Usage     UsageConfig     `yaml:"usage"`
	Extract   ExtractConfig   `yaml:"extract"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// OpenAIConfig holds OpenAI model settings. The API key is never read from
// the config file; it comes from the OPENAI_API_KEY environment variable
// (a .env file is honored when present).
type OpenAIConfig struct {
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	VisionModel    string `yaml:"vision_model"`
	APIKey         string `yaml:"-"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // "openai", "onnx" or "mock"
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	Retries    int    `yaml:"retries"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK           int `yaml:"top_k"`
	HistoryEntries int `yaml:"history_entries"` // retained glossary versions
}

// PricingConfig holds per-million-token unit prices in dollars.
type PricingConfig struct {
	EmbeddingPer1M  float64 `yaml:"embedding_per_1m"`
	CompletionPer1M float64 `yaml:"completion_per_1m"`
}

// GlossaryConfig holds the bundled glossary and watch settings.
type GlossaryConfig struct {
	DefaultPath string `yaml:"default_path"`
	Watch       bool   `yaml:"watch"`
}

// UsageConfig holds usage tracking settings.
type UsageConfig struct {
	ActivityCap  int    `yaml:"activity_cap"` // bounded recent-activity log size
	RecentLimit  int    `yaml:"recent_limit"` // entries returned in statistics
	DatabasePath string `yaml:"database_path"`
}

// ExtractConfig selects the OCR method for image extraction.
type ExtractConfig struct {
	OCRMethod     string `yaml:"ocr_method"` // "vision" or "tesseract"
	TesseractPath string `yaml:"tesseract_path"`
	Languages     string `yaml:"languages"` // tesseract -l argument
}

// Load reads and parses the config file at path, loads environment secrets,
// expands paths, and applies defaults. Returns an error if the file cannot be
// read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	loadEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Glossary.DefaultPath = expandPath(cfg.Glossary.DefaultPath, configDir)
	cfg.Usage.DatabasePath = expandPath(cfg.Usage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// loadEnv reads secrets from the environment, after loading a .env file if
// one exists in the working directory.
func loadEnv(cfg *Config) {
	_ = godotenv.Load()
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
