package embedder

import (
	"context"

	"go.uber.org/zap"

	"cortex/internal/extractor"
)

// Embedder turns source text into embedding vectors.
type Embedder interface {
	// Embed returns one vector per input text, same length and order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle embeds a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Attach embeds each unit's source text and stores the vector on the unit.
// Units whose embedding fails keep a nil Embedding and are logged, never
// fatal; callers filter them before upserting. Returns how many units
// received a vector.
//
// The whole collection is embedded in one batch first. Only when the batch
// call fails does Attach retry unit by unit, so one poisoned input cannot
// sink its siblings.
func Attach(ctx context.Context, e Embedder, units []extractor.CodeUnit, log *zap.Logger) int {
	if len(units) == 0 {
		return 0
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.SourceText
	}

	vectors, err := e.Embed(ctx, texts)
	if err == nil && len(vectors) == len(units) {
		for i := range units {
			units[i].Embedding = vectors[i]
		}
		return len(units)
	}
	if err != nil {
		log.Warn("batch embedding failed, retrying per unit", zap.Error(err))
	}

	attached := 0
	for i := range units {
		vec, err := e.EmbedSingle(ctx, units[i].SourceText)
		if err != nil {
			log.Warn("skipping unit without embedding",
				zap.String("unit", units[i].ID),
				zap.String("file", units[i].FilePath),
				zap.Error(err))
			continue
		}
		units[i].Embedding = vec
		attached++
	}
	return attached
}
