package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Type selects a chat completion backend.
type Type string

const (
	TypeOpenAI Type = "openai"
	TypeOllama Type = "ollama"
)

// Config selects and configures a chat backend.
type Config struct {
	Type   Type
	OpenAI OpenAIConfig
	Ollama OllamaConfig
}

// New creates the configured chat client.
func New(cfg Config, log *zap.Logger) (Chat, error) {
	switch cfg.Type {
	case TypeOpenAI:
		return NewOpenAI(cfg.OpenAI, log)
	case TypeOllama:
		return NewOllama(cfg.Ollama, log), nil
	default:
		return nil, fmt.Errorf("unknown chat type: %q", cfg.Type)
	}
}
