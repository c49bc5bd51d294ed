package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newPineconeAgainst(t *testing.T, handler http.HandlerFunc) (*PineconeIndex, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	idx, err := NewPinecone(PineconeConfig{IndexHost: srv.URL, APIKey: "test-key"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return idx, srv
}

func TestPineconeUpsertRequestShape(t *testing.T) {
	var got pineconeUpsertRequest
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/upsert", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]int{"upsertedCount": len(got.Vectors)})
	})

	err := idx.Upsert(context.Background(), "sess-1", []Item{
		{ID: "add", Vector: []float32{1, 0}, Metadata: Metadata{FilePath: "math.js", Kind: "function"}},
		{ID: "Stack", Vector: []float32{0, 1}, Metadata: Metadata{FilePath: "stack.js", Kind: "class"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", got.Namespace)
	require.Len(t, got.Vectors, 2)
	assert.Equal(t, "add", got.Vectors[0].ID)
	assert.Equal(t, "math.js", got.Vectors[0].Metadata.FilePath)
}

func TestPineconeQueryParsesAndSorts(t *testing.T) {
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)

		var req pineconeQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sess-1", req.Namespace)
		assert.Equal(t, 3, req.TopK)
		assert.True(t, req.IncludeMetadata)

		resp := map[string]any{
			"matches": []map[string]any{
				{"id": "low", "score": 0.41, "metadata": map[string]string{"file_path": "a.js", "kind": "function"}},
				{"id": "high", "score": 0.93, "metadata": map[string]string{"file_path": "b.js", "kind": "class"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	matches, err := idx.Query(context.Background(), "sess-1", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "high", matches[0].ID)
	assert.Equal(t, "b.js", matches[0].Metadata.FilePath)
	assert.Equal(t, "low", matches[1].ID)
}

func TestPineconeQueryNoMatches(t *testing.T) {
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"matches": nil})
	})

	matches, err := idx.Query(context.Background(), "empty-ns", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPineconeDeleteUnknownNamespace(t *testing.T) {
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":5,"message":"Namespace not found"}`, http.StatusNotFound)
	})

	assert.NoError(t, idx.DeleteNamespace(context.Background(), "missing"))
}

func TestPineconeDeleteIndexClearsEverything(t *testing.T) {
	var got pineconeDeleteRequest
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("{}"))
	})

	require.NoError(t, idx.DeleteIndex(context.Background()))
	assert.True(t, got.DeleteAll)
	assert.Empty(t, got.Namespace)
}

func TestPineconeCountReadsNamespaceStats(t *testing.T) {
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/describe_index_stats", r.URL.Path)
		resp := map[string]any{
			"dimension":        2,
			"totalVectorCount": 12,
			"namespaces": map[string]any{
				"sess-1": map[string]int{"vectorCount": 7},
				"sess-2": map[string]int{"vectorCount": 5},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	n, err := idx.Count(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = idx.Count(context.Background(), "never-indexed")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPineconeUpsertServerError(t *testing.T) {
	idx, _ := newPineconeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	err := idx.Upsert(context.Background(), "ns", []Item{{ID: "x", Vector: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
