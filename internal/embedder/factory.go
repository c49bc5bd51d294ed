package embedder

import (
	"fmt"

	"go.uber.org/zap"
)

// Type selects an embedding backend.
type Type string

const (
	TypeOpenAI Type = "openai"
	TypeOllama Type = "ollama"
)

// Config selects and configures an embedding backend.
type Config struct {
	Type   Type
	OpenAI OpenAIConfig
	Ollama OllamaConfig
}

// New creates the configured embedder.
func New(cfg Config, log *zap.Logger) (Embedder, error) {
	switch cfg.Type {
	case TypeOpenAI:
		return NewOpenAI(cfg.OpenAI, log)
	case TypeOllama:
		return NewOllama(cfg.Ollama, log), nil
	default:
		return nil, fmt.Errorf("unknown embedder type: %q", cfg.Type)
	}
}
