package vectordb

import (
	"fmt"

	"go.uber.org/zap"
)

// Type selects a vector index backend.
type Type string

const (
	TypePinecone Type = "pinecone"
	TypeQdrant   Type = "qdrant"
	TypeSQLite   Type = "sqlite"
	TypeMemory   Type = "memory"
)

// Config selects and configures a vector index backend.
type Config struct {
	Type     Type
	Pinecone PineconeConfig
	Qdrant   QdrantConfig
	SQLite   SQLiteConfig
}

// New creates the configured index. Call Initialize on the result before
// using it.
func New(cfg Config, log *zap.Logger) (Index, error) {
	switch cfg.Type {
	case TypePinecone:
		return NewPinecone(cfg.Pinecone, log)
	case TypeQdrant:
		return NewQdrant(cfg.Qdrant, log)
	case TypeSQLite:
		return NewSQLite(cfg.SQLite, log)
	case TypeMemory:
		return NewMemory(log), nil
	default:
		return nil, fmt.Errorf("unknown vector index type: %q", cfg.Type)
	}
}
