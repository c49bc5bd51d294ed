package vectordb

import "context"

// Metadata travels with every stored vector and comes back on matches.
type Metadata struct {
	FilePath string `json:"file_path"`
	Kind     string `json:"kind"`
}

// Item is a vector plus identity, ready for upserting.
type Item struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is a query hit. Score is cosine similarity clamped to [0, 1].
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// clampScore forces a backend's similarity into the [0, 1] range Match
// promises. Cosine similarity runs negative for opposed vectors, and float
// rounding can push it a hair past 1.
func clampScore(s float32) float32 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Index is a namespace-partitioned vector store.
//
// Upsert is idempotent per (namespace, id): re-upserting an id replaces its
// vector and metadata. Remote backends are eventually consistent; a query
// issued right after an upsert may not see it for a few seconds.
//
// Query returns matches ordered by descending score. A namespace with no
// data, including one never written to, yields an empty result and no error.
type Index interface {
	// Initialize verifies the backend is reachable and provisions
	// whatever schema or collection it needs. Call once before use.
	Initialize(ctx context.Context) error
	Upsert(ctx context.Context, namespace string, items []Item) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
	// Count reports how many vectors the namespace holds. An unknown
	// namespace counts as zero.
	Count(ctx context.Context, namespace string) (int, error)
	// DeleteNamespace removes every vector in the namespace. Deleting a
	// namespace that does not exist is a no-op.
	DeleteNamespace(ctx context.Context, namespace string) error
	// DeleteIndex removes all data across every namespace.
	DeleteIndex(ctx context.Context) error
	Close() error
}
