package vectordb

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MemoryIndex is a process-local Index for tests and dependency-free runs.
type MemoryIndex struct {
	mu   sync.RWMutex
	data map[string]map[string]Item // namespace → id → item
	log  *zap.Logger
}

// NewMemory creates an empty in-memory index.
func NewMemory(log *zap.Logger) *MemoryIndex {
	return &MemoryIndex{
		data: make(map[string]map[string]Item),
		log:  log,
	}
}

func (m *MemoryIndex) Initialize(ctx context.Context) error { return nil }

func (m *MemoryIndex) Upsert(ctx context.Context, namespace string, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]Item, len(items))
		m.data[namespace] = ns
	}
	for _, item := range items {
		ns[item.ID] = item
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.data[namespace]
	if !ok {
		return nil, nil
	}

	matches := make([]Match, 0, len(ns))
	for _, item := range ns {
		matches = append(matches, Match{
			ID:       item.ID,
			Score:    clampScore(cosine(vector, item.Vector)),
			Metadata: item.Metadata,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MemoryIndex) Count(ctx context.Context, namespace string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[namespace]), nil
}

func (m *MemoryIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace)
	return nil
}

func (m *MemoryIndex) DeleteIndex(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]map[string]Item)
	return nil
}

func (m *MemoryIndex) Close() error { return nil }

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
