package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "/usr/local/var/shotseek/data/index.snapshot"
	}
	if cfg.Storage.KeyframeDir == "" {
		cfg.Storage.KeyframeDir = "/usr/local/var/shotseek/data/keyframes"
	}
	if cfg.Storage.SubmissionLogPath == "" {
		cfg.Storage.SubmissionLogPath = "/usr/local/var/shotseek/data/submissions.db"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/shotseek/data/models/clip-vit-b-32-text.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		// CLIP ViT-B/32 embedding width.
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		// CLIP text context length.
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Search.IndexType == "" {
		cfg.Search.IndexType = "flat"
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".json"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Ingest.Directories) > 0 && cfg.Ingest.Recursive == nil {
		t := true
		cfg.Ingest.Recursive = &t
	}
	if cfg.Submit.TimeoutSeconds == 0 {
		cfg.Submit.TimeoutSeconds = 10
	}
}
