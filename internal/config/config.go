package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OllamaEmbedderConfig holds connection details for a local Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds connection details for the OpenAI embeddings API.
// The key is read from the environment variable named by APIKeyEnv, never
// stored in the file.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// SQLiteVectorConfig configures the local sqlite-vec index. A relative path
// is resolved against the project root at startup.
type SQLiteVectorConfig struct {
	Path string `yaml:"path"`
}

// PineconeVectorConfig configures a Pinecone serverless index.
type PineconeVectorConfig struct {
	IndexHost   string `yaml:"index_host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantVectorConfig configures a Qdrant collection.
type QdrantVectorConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorConfig selects and configures the vector index implementation.
// Dimension must match the embedding model's output width.
type VectorConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	SQLite    *SQLiteVectorConfig   `yaml:"sqlite,omitempty"`
	Pinecone  *PineconeVectorConfig `yaml:"pinecone,omitempty"`
	Qdrant    *QdrantVectorConfig   `yaml:"qdrant,omitempty"`
}

// OllamaChatConfig holds connection details for a local Ollama chat model.
type OllamaChatConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIChatConfig holds connection details for the OpenAI chat API.
type OpenAIChatConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChatConfig selects the chat model and how many matches ground an answer.
type ChatConfig struct {
	Type   string            `yaml:"type"`
	TopK   int               `yaml:"top_k"`
	Ollama *OllamaChatConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIChatConfig `yaml:"openai,omitempty"`
}

// RedisHistoryConfig configures the Redis conversation store.
type RedisHistoryConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// HistoryConfig selects where conversation windows live.
type HistoryConfig struct {
	Type  string              `yaml:"type"`
	Redis *RedisHistoryConfig `yaml:"redis,omitempty"`
}

// IndexerConfig tunes the background indexing pipeline.
type IndexerConfig struct {
	Workers int `yaml:"workers"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Vector   VectorConfig   `yaml:"vector"`
	Chat     ChatConfig     `yaml:"chat"`
	History  HistoryConfig  `yaml:"history"`
	Indexer  IndexerConfig  `yaml:"indexer"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./cortex.yaml first, then ~/.config/cortex/config.yaml.
// If neither exists, it writes the defaults to the user path and returns
// them, so the first run leaves an editable file behind.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "cortex.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cortex", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "ollama"},
		Vector:   VectorConfig{Type: "sqlite"},
		Chat:     ChatConfig{Type: "ollama"},
		History:  HistoryConfig{Type: "memory"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 60
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}

	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "sqlite"
	}
	if cfg.Vector.Dimension == 0 {
		// nomic-embed-text output width; OpenAI small model needs 1536.
		cfg.Vector.Dimension = 768
		if cfg.Embedder.Type == "openai" {
			cfg.Vector.Dimension = 1536
		}
	}
	if cfg.Vector.Type == "sqlite" {
		if cfg.Vector.SQLite == nil {
			cfg.Vector.SQLite = &SQLiteVectorConfig{}
		}
		if cfg.Vector.SQLite.Path == "" {
			cfg.Vector.SQLite.Path = filepath.Join(".cortex", "index.db")
		}
	}
	if cfg.Vector.Type == "pinecone" {
		if cfg.Vector.Pinecone == nil {
			cfg.Vector.Pinecone = &PineconeVectorConfig{}
		}
		if cfg.Vector.Pinecone.APIKeyEnv == "" {
			cfg.Vector.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.Vector.Pinecone.TimeoutSecs == 0 {
			cfg.Vector.Pinecone.TimeoutSecs = 15
		}
	}
	if cfg.Vector.Type == "qdrant" {
		if cfg.Vector.Qdrant == nil {
			cfg.Vector.Qdrant = &QdrantVectorConfig{}
		}
		if cfg.Vector.Qdrant.URL == "" {
			cfg.Vector.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Vector.Qdrant.APIKeyEnv == "" {
			cfg.Vector.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
		}
		if cfg.Vector.Qdrant.Collection == "" {
			cfg.Vector.Qdrant.Collection = "cortex_units"
		}
		if cfg.Vector.Qdrant.TimeoutSecs == 0 {
			cfg.Vector.Qdrant.TimeoutSecs = 15
		}
	}

	if cfg.Chat.Type == "" {
		cfg.Chat.Type = "ollama"
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 3
	}
	if cfg.Chat.Type == "ollama" {
		if cfg.Chat.Ollama == nil {
			cfg.Chat.Ollama = &OllamaChatConfig{}
		}
		if cfg.Chat.Ollama.BaseURL == "" {
			cfg.Chat.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Chat.Ollama.Model == "" {
			cfg.Chat.Ollama.Model = "qwen3:8b"
		}
		if cfg.Chat.Ollama.TimeoutSecs == 0 {
			cfg.Chat.Ollama.TimeoutSecs = 120
		}
	}
	if cfg.Chat.Type == "openai" {
		if cfg.Chat.OpenAI == nil {
			cfg.Chat.OpenAI = &OpenAIChatConfig{}
		}
		if cfg.Chat.OpenAI.BaseURL == "" {
			cfg.Chat.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Chat.OpenAI.APIKeyEnv == "" {
			cfg.Chat.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Chat.OpenAI.Model == "" {
			cfg.Chat.OpenAI.Model = "gpt-4o-mini"
		}
		if cfg.Chat.OpenAI.TimeoutSecs == 0 {
			cfg.Chat.OpenAI.TimeoutSecs = 60
		}
	}

	if cfg.History.Type == "" {
		cfg.History.Type = "memory"
	}
	if cfg.History.Type == "redis" {
		if cfg.History.Redis == nil {
			cfg.History.Redis = &RedisHistoryConfig{}
		}
		if cfg.History.Redis.Addr == "" {
			cfg.History.Redis.Addr = "localhost:6379"
		}
		if cfg.History.Redis.PasswordEnv == "" {
			cfg.History.Redis.PasswordEnv = "REDIS_PASSWORD"
		}
		if cfg.History.Redis.TimeoutSecs == 0 {
			cfg.History.Redis.TimeoutSecs = 5
		}
	}
}
