package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPineconeTimeout = 15 * time.Second
	pineconeUpsertBatch    = 100
)

// PineconeConfig configures a PineconeIndex.
type PineconeConfig struct {
	// IndexHost is the index's data-plane URL, e.g.
	// https://my-index-abc1234.svc.us-east-1-aws.pinecone.io
	IndexHost string
	APIKey    string
	Timeout   time.Duration
}

// PineconeIndex is a REST client for one Pinecone index. Namespaces map
// directly onto Pinecone namespaces.
type PineconeIndex struct {
	host   string
	apiKey string
	client *http.Client
	log    *zap.Logger
}

// NewPinecone creates a client for the given index host.
func NewPinecone(cfg PineconeConfig, log *zap.Logger) (*PineconeIndex, error) {
	if cfg.IndexHost == "" {
		return nil, errors.New("pinecone: index host is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone: API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPineconeTimeout
	}
	return &PineconeIndex{
		host:   cfg.IndexHost,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}, nil
}

type pineconeVector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

type pineconeUpsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type pineconeQueryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type pineconeQueryResponse struct {
	Matches []struct {
		ID       string   `json:"id"`
		Score    float32  `json:"score"`
		Metadata Metadata `json:"metadata"`
	} `json:"matches"`
}

type pineconeDeleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace,omitempty"`
}

type pineconeStatsResponse struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
	Namespaces       map[string]struct {
		VectorCount int `json:"vectorCount"`
	} `json:"namespaces"`
}

// Initialize probes the index to confirm the host and key are valid.
func (p *PineconeIndex) Initialize(ctx context.Context) error {
	var stats pineconeStatsResponse
	if err := p.post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return fmt.Errorf("pinecone describe_index_stats: %w", err)
	}
	p.log.Info("connected to pinecone index",
		zap.Int("dimension", stats.Dimension),
		zap.Int("vectors", stats.TotalVectorCount))
	return nil
}

// Upsert writes items into the namespace in batches.
func (p *PineconeIndex) Upsert(ctx context.Context, namespace string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	for start := 0; start < len(items); start += pineconeUpsertBatch {
		end := start + pineconeUpsertBatch
		if end > len(items) {
			end = len(items)
		}
		vectors := make([]pineconeVector, 0, end-start)
		for _, item := range items[start:end] {
			vectors = append(vectors, pineconeVector{
				ID:       item.ID,
				Values:   item.Vector,
				Metadata: item.Metadata,
			})
		}
		req := pineconeUpsertRequest{Vectors: vectors, Namespace: namespace}
		if err := p.post(ctx, "/vectors/upsert", req, nil); err != nil {
			return fmt.Errorf("pinecone upsert: %w", err)
		}
	}
	p.log.Debug("upserted vectors",
		zap.String("namespace", namespace), zap.Int("count", len(items)))
	return nil
}

// Query returns the topK nearest matches in the namespace, best first.
func (p *PineconeIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}
	req := pineconeQueryRequest{
		Namespace:       namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}
	var resp pineconeQueryResponse
	if err := p.post(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, Match{ID: m.ID, Score: clampScore(m.Score), Metadata: m.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// Count reads the namespace's vector count from the index stats. A
// namespace the index has never seen reports zero.
func (p *PineconeIndex) Count(ctx context.Context, namespace string) (int, error) {
	var stats pineconeStatsResponse
	if err := p.post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return 0, fmt.Errorf("pinecone describe_index_stats: %w", err)
	}
	return stats.Namespaces[namespace].VectorCount, nil
}

// DeleteNamespace drops every vector in the namespace. An unknown namespace
// is a no-op: serverless indexes answer 404 for it, which is swallowed here.
func (p *PineconeIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	err := p.post(ctx, "/vectors/delete", pineconeDeleteRequest{DeleteAll: true, Namespace: namespace}, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("pinecone delete namespace: %w", err)
	}
	return nil
}

// DeleteIndex drops every vector across all namespaces.
func (p *PineconeIndex) DeleteIndex(ctx context.Context) error {
	if err := p.post(ctx, "/vectors/delete", pineconeDeleteRequest{DeleteAll: true}, nil); err != nil {
		return fmt.Errorf("pinecone delete index: %w", err)
	}
	return nil
}

func (p *PineconeIndex) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (p *PineconeIndex) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &statusError{code: resp.StatusCode, body: string(respBody)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
