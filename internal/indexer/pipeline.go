package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cortex/internal/walker"
)

// run walks the task's root and indexes changed files with a pool of
// workers. Per-file failures are counted and logged, never fatal to the
// siblings; the run itself fails only when the walk fails or the service
// shuts down.
func (s *Service) run(t *Task) error {
	g, ctx := errgroup.WithContext(s.baseCtx)
	files, walkErrs := walker.Walk(ctx, t.Root, s.registry.Extensions())

	for range s.workers {
		g.Go(func() error {
			for fi := range files {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.seen.Add(1)

				src, err := os.ReadFile(fi.Path)
				if err != nil {
					t.failed.Add(1)
					s.log.Warn("unreadable file", zap.String("file", fi.Path), zap.Error(err))
					continue
				}

				sum := sha256.Sum256(src)
				hash := hex.EncodeToString(sum[:])
				if s.hashes.Unchanged(t.Session, fi.RelPath, hash) {
					t.skipped.Add(1)
					continue
				}

				n, err := s.engine.IndexFile(ctx, t.Session, fi.RelPath, src)
				if err != nil {
					t.failed.Add(1)
					s.log.Warn("file not indexed", zap.String("file", fi.RelPath), zap.Error(err))
					continue
				}
				s.hashes.Record(t.Session, fi.RelPath, hash)
				t.indexed.Add(1)
				t.units.Add(int64(n))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := <-walkErrs; err != nil {
		return fmt.Errorf("walk %s: %w", t.Root, err)
	}
	// A shutdown mid-run marks the task failed even when the walk already
	// finished; the namespace may hold a partial index.
	return s.baseCtx.Err()
}
