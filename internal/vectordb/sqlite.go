package vectordb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteConfig configures a SQLiteIndex.
type SQLiteConfig struct {
	Path      string
	Dimension int
}

// SQLiteIndex stores vectors in a local sqlite-vec database. The namespace
// is a vec0 partition key, so queries never cross namespaces.
type SQLiteIndex struct {
	db        *sql.DB
	dimension int
	log       *zap.Logger
}

// NewSQLite opens (or creates) the database at cfg.Path. The schema is laid
// down by Initialize.
func NewSQLite(cfg SQLiteConfig, log *zap.Logger) (*SQLiteIndex, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("sqlite: dimension is required")
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &SQLiteIndex{db: db, dimension: cfg.Dimension, log: log}, nil
}

// Initialize creates the vec0 table if it does not exist.
func (s *SQLiteIndex) Initialize(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE VIRTUAL TABLE IF NOT EXISTS vec_units USING vec0(
    unit_key  TEXT PRIMARY KEY,
    namespace TEXT PARTITION KEY,
    embedding FLOAT[%d] distance_metric=cosine,
    +unit_id   TEXT,
    +file_path TEXT,
    +kind      TEXT
);`, s.dimension)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Upsert replaces each item under its namespace-qualified key. vec0 has no
// ON CONFLICT, so this is delete-then-insert inside one transaction.
func (s *SQLiteIndex) Upsert(ctx context.Context, namespace string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del, err := tx.PrepareContext(ctx, "DELETE FROM vec_units WHERE unit_key = ?")
	if err != nil {
		return err
	}
	defer del.Close()
	ins, err := tx.PrepareContext(ctx,
		"INSERT INTO vec_units (unit_key, namespace, embedding, unit_id, file_path, kind) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, item := range items {
		blob, err := sqlite_vec.SerializeFloat32(item.Vector)
		if err != nil {
			return fmt.Errorf("serialize embedding for %q: %w", item.ID, err)
		}
		key := unitKey(namespace, item.ID)
		if _, err := del.ExecContext(ctx, key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
		if _, err := ins.ExecContext(ctx, key, namespace, blob, item.ID, item.Metadata.FilePath, item.Metadata.Kind); err != nil {
			return fmt.Errorf("insert %q: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit_id, distance, file_path, kind
		FROM vec_units
		WHERE embedding MATCH ? AND namespace = ? AND k = ?
		ORDER BY distance
	`, blob, namespace, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var distance float32
		if err := rows.Scan(&m.ID, &distance, &m.Metadata.FilePath, &m.Metadata.Kind); err != nil {
			return nil, err
		}
		// Cosine distance is 1 - similarity.
		m.Score = clampScore(1 - distance)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *SQLiteIndex) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vec_units WHERE namespace = ?", namespace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count namespace %q: %w", namespace, err)
	}
	return n, nil
}

func (s *SQLiteIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	rows, err := s.db.QueryContext(ctx, "SELECT unit_key FROM vec_units WHERE namespace = ?", namespace)
	if err != nil {
		return err
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return err
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vec_units WHERE unit_key = ?", key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) DeleteIndex(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM vec_units")
	return err
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func unitKey(namespace, id string) string {
	return namespace + "/" + id
}
