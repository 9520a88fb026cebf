// Package config provides configuration loading and structs for the shotseek server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Submit    SubmitConfig    `yaml:"submit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AllowCORS enables permissive CORS headers. Defaults to true when unset;
	// the browser frontend is served from a different origin.
	AllowCORS *bool `yaml:"allow_cors"`
}

// AllowCORSOrDefault returns whether CORS headers are enabled; defaults to true.
func (s *ServerConfig) AllowCORSOrDefault() bool {
	if s.AllowCORS != nil {
		return *s.AllowCORS
	}
	return true
}

// StorageConfig holds paths for the snapshot, keyframe images, and the
// submission log.
type StorageConfig struct {
	SnapshotPath      string `yaml:"snapshot_path"`
	KeyframeDir       string `yaml:"keyframe_dir"`
	SubmissionLogPath string `yaml:"submission_log_path"`
}

// EmbeddingConfig holds ONNX text encoder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// SearchConfig holds query settings.
type SearchConfig struct {
	DefaultTopK int    `yaml:"default_top_k"`
	MaxTopK     int    `yaml:"max_top_k"`
	IndexType   string `yaml:"index_type"`
}

// IngestConfig holds artifact directory scan and watch settings.
type IngestConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// SnapshotPerVideo saves a snapshot after every ingested artifact file.
	SnapshotPerVideo bool `yaml:"snapshot_per_video"`
}

// RecursiveOrDefault returns whether to scan directories recursively;
// defaults to true when unset.
func (c *IngestConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// SubmitConfig holds judge submission settings.
type SubmitConfig struct {
	Enabled        bool   `yaml:"enabled"`
	EndpointURL    string `yaml:"endpoint_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
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

	configDir := filepath.Dir(path)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	cfg.Storage.KeyframeDir = expandPath(cfg.Storage.KeyframeDir, configDir)
	cfg.Storage.SubmissionLogPath = expandPath(cfg.Storage.SubmissionLogPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting ingest directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
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
