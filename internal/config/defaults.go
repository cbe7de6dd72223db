package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.VisionModel == "" {
		cfg.OpenAI.VisionModel = "gpt-4o"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.Retries == 0 {
		cfg.Embedding.Retries = 3
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.HistoryEntries == 0 {
		cfg.Retrieval.HistoryEntries = 10
	}
	if cfg.Pricing.EmbeddingPer1M == 0 {
		cfg.Pricing.EmbeddingPer1M = 0.020
	}
	if cfg.Pricing.CompletionPer1M == 0 {
		cfg.Pricing.CompletionPer1M = 0.150
	}
	if cfg.Glossary.DefaultPath == "" {
		cfg.Glossary.DefaultPath = "./data/glossary.xlsx"
	}
	if cfg.Usage.ActivityCap == 0 {
		cfg.Usage.ActivityCap = 1000
	}
	if cfg.Usage.RecentLimit == 0 {
		cfg.Usage.RecentLimit = 50
	}
	if cfg.Usage.DatabasePath == "" {
		cfg.Usage.DatabasePath = "./data/usage.db"
	}
	if cfg.Extract.OCRMethod == "" {
		cfg.Extract.OCRMethod = "vision"
	}
	if cfg.Extract.TesseractPath == "" {
		cfg.Extract.TesseractPath = "tesseract"
	}
	if cfg.Extract.Languages == "" {
		cfg.Extract.Languages = "ara+eng"
	}
}
