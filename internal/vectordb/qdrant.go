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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultQdrantTimeout = 15 * time.Second

// QdrantConfig configures a QdrantIndex.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// QdrantIndex stores all namespaces in one collection, with the namespace as
// an indexed payload field. Qdrant only accepts integer or UUID point ids, so
// points get a deterministic UUID derived from (namespace, id) and keep the
// logical id in the payload.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
	log        *zap.Logger
}

// NewQdrant creates a client for the given collection.
func NewQdrant(cfg QdrantConfig, log *zap.Logger) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant: URL is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("qdrant: dimension is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultQdrantTimeout
	}
	return &QdrantIndex{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// Initialize creates the collection and the namespace payload index.
// Creating either when it already exists is fine.
func (q *QdrantIndex) Initialize(ctx context.Context) error {
	create := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	if err := q.send(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collection), create, nil); err != nil {
		var se *statusError
		if !errors.As(err, &se) || se.code != http.StatusConflict {
			return fmt.Errorf("qdrant create collection: %w", err)
		}
	}

	index := map[string]any{
		"field_name":   "namespace",
		"field_schema": "keyword",
	}
	if err := q.send(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/index", q.collection), index, nil); err != nil {
		var se *statusError
		if !errors.As(err, &se) || se.code != http.StatusConflict {
			return fmt.Errorf("qdrant create payload index: %w", err)
		}
	}
	q.log.Info("connected to qdrant collection",
		zap.String("collection", q.collection), zap.Int("dimension", q.dimension))
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, namespace string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	points := make([]map[string]any, 0, len(items))
	for _, item := range items {
		points = append(points, map[string]any{
			"id":     pointID(namespace, item.ID),
			"vector": item.Vector,
			"payload": map[string]any{
				"namespace": namespace,
				"unit":      item.ID,
				"file_path": item.Metadata.FilePath,
				"kind":      item.Metadata.Kind,
			},
		})
	}
	body := map[string]any{"points": points}
	path := fmt.Sprintf("/collections/%s/points?wait=true", q.collection)
	if err := q.send(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func (q *QdrantIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter":       namespaceFilter(namespace),
	}
	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", q.collection)
	if err := q.send(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := Match{Score: clampScore(r.Score)}
		if v, ok := r.Payload["unit"].(string); ok {
			m.ID = v
		}
		if v, ok := r.Payload["file_path"].(string); ok {
			m.Metadata.FilePath = v
		}
		if v, ok := r.Payload["kind"].(string); ok {
			m.Metadata.Kind = v
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

func (q *QdrantIndex) Count(ctx context.Context, namespace string) (int, error) {
	req := map[string]any{
		"filter": namespaceFilter(namespace),
		"exact":  true,
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/count", q.collection)
	if err := q.send(ctx, http.MethodPost, path, req, &resp); err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return resp.Result.Count, nil
}

func (q *QdrantIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	body := map[string]any{"filter": namespaceFilter(namespace)}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection)
	if err := q.send(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("qdrant delete namespace: %w", err)
	}
	return nil
}

func (q *QdrantIndex) DeleteIndex(ctx context.Context) error {
	path := fmt.Sprintf("/collections/%s", q.collection)
	if err := q.send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("qdrant drop collection: %w", err)
	}
	return nil
}

func (q *QdrantIndex) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func namespaceFilter(namespace string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": "namespace", "match": map[string]any{"value": namespace}},
		},
	}
}

// pointID derives a stable UUID so re-upserting a unit overwrites its point.
func pointID(namespace, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("cortex/"+namespace+"/"+id)).String()
}

func (q *QdrantIndex) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.url+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
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
