package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cortex/internal/embedder"
	"cortex/internal/extractor"
	"cortex/internal/history"
	"cortex/internal/llm"
	"cortex/internal/source"
	"cortex/internal/vectordb"
)

// DefaultTopK is how many matches ground an answer.
const DefaultTopK = 3

// noMatchesAnswer is returned without any chat call when the namespace has
// nothing relevant, including when nothing was indexed at all.
const noMatchesAnswer = "I didn't find anything in this codebase related to your question. If indexing just started, give it a moment and ask again."

// Params collects the collaborators an Engine needs. Everything is injected;
// the engine owns no connections.
type Params struct {
	Extractor *extractor.Extractor
	Embedder  embedder.Embedder
	Index     vectordb.Index
	History   *history.Window
	Chat      llm.Chat
	Sources   source.Reader
	TopK      int
	Logger    *zap.Logger
}

// Engine ties extraction, embedding, the vector index, the history window
// and the chat model into the ask-your-codebase loop. One engine serves many
// sessions; the session id doubles as the vector namespace and the history
// key.
type Engine struct {
	extractor *extractor.Extractor
	embedder  embedder.Embedder
	index     vectordb.Index
	history   *history.Window
	chat      llm.Chat
	sources   source.Reader
	topK      int
	log       *zap.Logger
}

// NewEngine creates an engine. TopK falls back to DefaultTopK.
func NewEngine(p Params) *Engine {
	topK := p.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{
		extractor: p.Extractor,
		embedder:  p.Embedder,
		index:     p.Index,
		history:   p.History,
		chat:      p.Chat,
		sources:   p.Sources,
		topK:      topK,
		log:       p.Logger,
	}
}

// PrepareSession seeds the session's history list. Called once when a
// codebase is registered for the session; calling it again is harmless.
func (e *Engine) PrepareSession(ctx context.Context, session string) error {
	if strings.TrimSpace(session) == "" {
		return ErrSessionRequired
	}
	return e.history.EnsureExists(ctx, session)
}

// IndexFile extracts units from one file, embeds them and upserts the ones
// that received a vector. A unit whose embedding failed is skipped, not
// fatal. Returns how many units were indexed.
func (e *Engine) IndexFile(ctx context.Context, namespace, path string, src []byte) (int, error) {
	units, err := e.extractor.Extract(ctx, path, src)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}
	if len(units) == 0 {
		return 0, nil
	}

	embedder.Attach(ctx, e.embedder, units, e.log)

	items := make([]vectordb.Item, 0, len(units))
	for _, u := range units {
		if u.Embedding == nil {
			continue
		}
		items = append(items, vectordb.Item{
			ID:     u.ID,
			Vector: u.Embedding,
			Metadata: vectordb.Metadata{
				FilePath: u.FilePath,
				Kind:     u.Kind,
			},
		})
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := e.index.Upsert(ctx, namespace, items); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", path, err)
	}
	e.log.Debug("indexed file",
		zap.String("namespace", namespace),
		zap.String("file", path),
		zap.Int("units", len(items)))
	return len(items), nil
}

// Answer holds the assistant's reply plus the retrieval evidence behind it.
type Answer struct {
	Text     string
	Matches  []vectordb.Match
	Files    []string
	Grounded bool
}

// Answer runs the retrieval loop for one question: embed it, pull the topK
// nearest units from the session's namespace, ground a prompt in the matched
// files and the conversation so far, and complete it. When nothing matches,
// a canned reply comes back without touching the chat model.
//
// Recording the exchange in history happens after the completion; if only
// that final step fails, the answer is returned together with the error so
// the caller decides whether to surface or retry it.
func (e *Engine) Answer(ctx context.Context, session, question string) (*Answer, error) {
	if strings.TrimSpace(session) == "" {
		return nil, ErrSessionRequired
	}
	if err := e.history.EnsureExists(ctx, session); err != nil {
		return nil, err
	}

	qvec, err := e.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryEmbedding, err)
	}

	matches, err := e.index.Query(ctx, session, qvec, e.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if len(matches) == 0 {
		e.log.Info("no matches for question", zap.String("session", session))
		return &Answer{Text: noMatchesAnswer}, nil
	}

	grounding, files := e.buildGrounding(matches)

	entries, err := e.history.ReadAll(ctx, session)
	if err != nil {
		return nil, err
	}

	text, err := e.chat.Complete(ctx, buildSystemPrompt(grounding, entries), question)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	answer := &Answer{Text: text, Matches: matches, Files: files, Grounded: true}
	if err := e.history.AppendTurn(ctx, session, "User: "+question); err != nil {
		return answer, err
	}
	if err := e.history.AppendTurn(ctx, session, "Assistant: "+text); err != nil {
		return answer, err
	}
	return answer, nil
}

// DeleteCodebase removes everything indexed for the session and clears its
// conversation history. Deleting a session that indexed nothing is a no-op.
func (e *Engine) DeleteCodebase(ctx context.Context, session string) error {
	if strings.TrimSpace(session) == "" {
		return ErrSessionRequired
	}
	if err := e.index.DeleteNamespace(ctx, session); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	if err := e.history.Clear(ctx, session); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	e.log.Info("deleted codebase", zap.String("session", session))
	return nil
}
