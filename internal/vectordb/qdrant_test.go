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

func newQdrantAgainst(t *testing.T, handler http.HandlerFunc) *QdrantIndex {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	idx, err := NewQdrant(QdrantConfig{
		URL:        srv.URL,
		Collection: "code_units",
		Dimension:  2,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return idx
}

func TestQdrantUpsertDerivesStableIDs(t *testing.T) {
	var bodies []map[string]any
	idx := newQdrantAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/code_units/points", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	})

	item := Item{ID: "add", Vector: []float32{1, 0}, Metadata: Metadata{FilePath: "math.js", Kind: "function"}}
	require.NoError(t, idx.Upsert(context.Background(), "ns", []Item{item}))
	require.NoError(t, idx.Upsert(context.Background(), "ns", []Item{item}))

	require.Len(t, bodies, 2)
	first := bodies[0]["points"].([]any)[0].(map[string]any)
	second := bodies[1]["points"].([]any)[0].(map[string]any)

	// Same (namespace, id) must hit the same point so re-upserts overwrite.
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, "add", first["payload"].(map[string]any)["unit"])
	assert.Equal(t, "ns", first["payload"].(map[string]any)["namespace"])
}

func TestQdrantQueryFiltersByNamespace(t *testing.T) {
	idx := newQdrantAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/code_units/points/search", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		filter := req["filter"].(map[string]any)
		must := filter["must"].([]any)[0].(map[string]any)
		assert.Equal(t, "namespace", must["key"])
		assert.Equal(t, "sess-9", must["match"].(map[string]any)["value"])

		resp := map[string]any{
			"result": []map[string]any{
				{"score": 0.88, "payload": map[string]any{
					"unit": "add", "file_path": "math.js", "kind": "function",
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	matches, err := idx.Query(context.Background(), "sess-9", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "add", matches[0].ID)
	assert.Equal(t, "math.js", matches[0].Metadata.FilePath)
	assert.InDelta(t, 0.88, float64(matches[0].Score), 1e-6)
}
