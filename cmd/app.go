package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cortex/internal/config"
	"cortex/internal/embedder"
	"cortex/internal/extractor"
	"cortex/internal/extractor/languages"
	"cortex/internal/history"
	"cortex/internal/indexer"
	"cortex/internal/llm"
	"cortex/internal/rag"
	"cortex/internal/source"
	"cortex/internal/vectordb"
)

const setupTimeout = 30 * time.Second

// app holds the wired collaborators for one project root. Build it with
// newApp, release it with Close.
type app struct {
	cfg     *config.AppConfig
	log     *zap.Logger
	root    string
	session string

	index   vectordb.Index
	store   history.ListStore
	window  *history.Window
	engine  *rag.Engine
	service *indexer.Service
}

func newApp(projectRoot string) (*app, error) {
	_ = godotenv.Load()

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	session := flagSession
	if session == "" {
		session = sessionFor(root)
	}

	idx, err := buildIndex(cfg, root, log)
	if err != nil {
		return nil, err
	}
	store, err := buildHistoryStore(cfg, log)
	if err != nil {
		return nil, err
	}
	emb, err := buildEmbedder(cfg, log)
	if err != nil {
		return nil, err
	}
	chat, err := buildChat(cfg, log)
	if err != nil {
		return nil, err
	}

	reg := extractor.NewRegistry()
	languages.RegisterJavaScript(reg)
	languages.RegisterTypeScript(reg)

	sources, err := source.NewDir(root)
	if err != nil {
		return nil, err
	}

	window := history.NewWindow(store, history.DefaultMaxEntries, log)
	engine := rag.NewEngine(rag.Params{
		Extractor: extractor.New(reg),
		Embedder:  emb,
		Index:     idx,
		History:   window,
		Chat:      chat,
		Sources:   sources,
		TopK:      cfg.Chat.TopK,
		Logger:    log,
	})
	service := indexer.NewService(indexer.Params{
		Engine:   engine,
		Registry: reg,
		Workers:  cfg.Indexer.Workers,
		Logger:   log,
	})

	a := &app{
		cfg:     cfg,
		log:     log,
		root:    root,
		session: session,
		index:   idx,
		store:   store,
		window:  window,
		engine:  engine,
		service: service,
	}
	if err := a.connect(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// connect dials the backends that need a handshake before use.
func (a *app) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	if err := a.index.Initialize(ctx); err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	if r, ok := a.store.(*history.RedisList); ok {
		if err := r.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *app) Close() {
	a.service.Close()
	_ = a.index.Close()
	_ = a.store.Close()
	_ = a.log.Sync()
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagWorkers > 0 {
		cfg.Indexer.Workers = flagWorkers
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	if !flagDebug {
		c.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return c.Build()
}

// sessionFor derives a stable session id from the project path, so the same
// checkout always lands in the same namespace.
func sessionFor(root string) string {
	sum := sha256.Sum256([]byte(root))
	return "cx-" + hex.EncodeToString(sum[:6])
}

func buildEmbedder(cfg *config.AppConfig, log *zap.Logger) (embedder.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai":
		c := cfg.Embedder.OpenAI
		return embedder.New(embedder.Config{
			Type: embedder.TypeOpenAI,
			OpenAI: embedder.OpenAIConfig{
				BaseURL: c.BaseURL,
				APIKey:  os.Getenv(c.APIKeyEnv),
				Model:   c.Model,
				Timeout: time.Duration(c.TimeoutSecs) * time.Second,
			},
		}, log)
	case "ollama", "":
		c := cfg.Embedder.Ollama
		return embedder.New(embedder.Config{
			Type: embedder.TypeOllama,
			Ollama: embedder.OllamaConfig{
				BaseURL: c.BaseURL,
				Model:   c.Model,
				Timeout: time.Duration(c.TimeoutSecs) * time.Second,
			},
		}, log)
	default:
		return nil, fmt.Errorf("unknown embedder type: %q", cfg.Embedder.Type)
	}
}

func buildIndex(cfg *config.AppConfig, root string, log *zap.Logger) (vectordb.Index, error) {
	v := cfg.Vector
	switch v.Type {
	case "sqlite", "":
		path := v.SQLite.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		return vectordb.New(vectordb.Config{
			Type:   vectordb.TypeSQLite,
			SQLite: vectordb.SQLiteConfig{Path: path, Dimension: v.Dimension},
		}, log)
	case "pinecone":
		return vectordb.New(vectordb.Config{
			Type: vectordb.TypePinecone,
			Pinecone: vectordb.PineconeConfig{
				IndexHost: v.Pinecone.IndexHost,
				APIKey:    os.Getenv(v.Pinecone.APIKeyEnv),
				Timeout:   time.Duration(v.Pinecone.TimeoutSecs) * time.Second,
			},
		}, log)
	case "qdrant":
		return vectordb.New(vectordb.Config{
			Type: vectordb.TypeQdrant,
			Qdrant: vectordb.QdrantConfig{
				URL:        v.Qdrant.URL,
				APIKey:     os.Getenv(v.Qdrant.APIKeyEnv),
				Collection: v.Qdrant.Collection,
				Dimension:  v.Dimension,
				Timeout:    time.Duration(v.Qdrant.TimeoutSecs) * time.Second,
			},
		}, log)
	case "memory":
		return vectordb.New(vectordb.Config{Type: vectordb.TypeMemory}, log)
	default:
		return nil, fmt.Errorf("unknown vector index type: %q", v.Type)
	}
}

func buildChat(cfg *config.AppConfig, log *zap.Logger) (llm.Chat, error) {
	switch cfg.Chat.Type {
	case "openai":
		c := cfg.Chat.OpenAI
		return llm.New(llm.Config{
			Type: llm.TypeOpenAI,
			OpenAI: llm.OpenAIConfig{
				BaseURL: c.BaseURL,
				APIKey:  os.Getenv(c.APIKeyEnv),
				Model:   c.Model,
				Timeout: time.Duration(c.TimeoutSecs) * time.Second,
			},
		}, log)
	case "ollama", "":
		c := cfg.Chat.Ollama
		return llm.New(llm.Config{
			Type: llm.TypeOllama,
			Ollama: llm.OllamaConfig{
				BaseURL: c.BaseURL,
				Model:   c.Model,
				Timeout: time.Duration(c.TimeoutSecs) * time.Second,
			},
		}, log)
	default:
		return nil, fmt.Errorf("unknown chat type: %q", cfg.Chat.Type)
	}
}

func buildHistoryStore(cfg *config.AppConfig, log *zap.Logger) (history.ListStore, error) {
	switch cfg.History.Type {
	case "redis":
		c := cfg.History.Redis
		return history.NewRedis(history.RedisConfig{
			Addr:     c.Addr,
			Password: os.Getenv(c.PasswordEnv),
			DB:       c.DB,
			Timeout:  time.Duration(c.TimeoutSecs) * time.Second,
		}, log), nil
	case "memory", "":
		return history.NewMemoryList(), nil
	default:
		return nil, fmt.Errorf("unknown history type: %q", cfg.History.Type)
	}
}
