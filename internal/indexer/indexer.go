package indexer

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cortex/internal/extractor"
)

// Status of an indexing task.
type Status string

const (
	StatusIndexing Status = "indexing"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// FileIndexer indexes one file into a namespace. Implemented by rag.Engine.
type FileIndexer interface {
	PrepareSession(ctx context.Context, session string) error
	IndexFile(ctx context.Context, namespace, path string, src []byte) (int, error)
}

// Stats counts what one indexing run did.
type Stats struct {
	FilesSeen    int
	FilesIndexed int
	FilesSkipped int
	FilesFailed  int
	Units        int
}

// Task is one background indexing run. ID, Session and Root are set at
// submission and never change; progress is read through Snapshot.
type Task struct {
	ID      string
	Session string
	Root    string

	seen    atomic.Int64
	indexed atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
	units   atomic.Int64

	mu       sync.Mutex
	status   Status
	errMsg   string
	started  time.Time
	finished time.Time
	done     chan struct{}
}

// Done closes when the task finishes, whatever the outcome.
func (t *Task) Done() <-chan struct{} { return t.done }

// Snapshot is a point-in-time view of a task.
type Snapshot struct {
	TaskID   string
	Session  string
	Root     string
	Status   Status
	Stats    Stats
	Error    string
	Started  time.Time
	Finished time.Time
}

func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		TaskID:  t.ID,
		Session: t.Session,
		Root:    t.Root,
		Status:  t.status,
		Stats: Stats{
			FilesSeen:    int(t.seen.Load()),
			FilesIndexed: int(t.indexed.Load()),
			FilesSkipped: int(t.skipped.Load()),
			FilesFailed:  int(t.failed.Load()),
			Units:        int(t.units.Load()),
		},
		Error:    t.errMsg,
		Started:  t.started,
		Finished: t.finished,
	}
}

// Wait blocks until the task finishes or the context expires.
func (t *Task) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-t.done:
		return t.Snapshot(), nil
	case <-ctx.Done():
		return t.Snapshot(), ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.finished = time.Now()
	if err != nil {
		t.status = StatusFailed
		t.errMsg = err.Error()
	} else {
		t.status = StatusReady
	}
	t.mu.Unlock()
	close(t.done)
}

// Params configures a Service.
type Params struct {
	Engine   FileIndexer
	Registry *extractor.Registry
	Workers  int
	Logger   *zap.Logger
}

// Service runs indexing tasks in the background and answers status queries.
// Tasks keep running after Submit returns; Close stops them.
type Service struct {
	engine   FileIndexer
	registry *extractor.Registry
	workers  int
	log      *zap.Logger
	hashes   *hashCache

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.RWMutex
	tasks     map[string]*Task
	bySession map[string]string
}

// NewService creates a service. Workers falls back to GOMAXPROCS-ish
// parallelism when zero.
func NewService(p Params) *Service {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		engine:    p.Engine,
		registry:  p.Registry,
		workers:   workers,
		log:       p.Logger,
		hashes:    newHashCache(),
		baseCtx:   ctx,
		cancel:    cancel,
		tasks:     make(map[string]*Task),
		bySession: make(map[string]string),
	}
}

// Submit starts indexing root into the session's namespace and returns
// immediately. If a task for the session is still running, that task is
// returned instead of starting a second walk over the same namespace.
func (s *Service) Submit(ctx context.Context, session, root string) (*Task, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}
	if err := s.engine.PrepareSession(ctx, session); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if id, ok := s.bySession[session]; ok {
		if t := s.tasks[id]; t != nil {
			select {
			case <-t.done:
			default:
				s.mu.Unlock()
				s.log.Info("indexing already running",
					zap.String("session", session), zap.String("task", t.ID))
				return t, nil
			}
		}
	}
	t := &Task{
		ID:      uuid.NewString(),
		Session: session,
		Root:    root,
		status:  StatusIndexing,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	s.tasks[t.ID] = t
	s.bySession[session] = t.ID
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.run(t)
		t.finish(err)
		if err != nil {
			s.log.Warn("indexing failed",
				zap.String("session", session), zap.String("task", t.ID), zap.Error(err))
			return
		}
		snap := t.Snapshot()
		s.log.Info("indexing finished",
			zap.String("session", session),
			zap.String("task", t.ID),
			zap.Int("files", snap.Stats.FilesIndexed),
			zap.Int("units", snap.Stats.Units))
	}()
	return t, nil
}

// Status reports the latest task submitted for the session, if any.
func (s *Service) Status(session string) (Snapshot, bool) {
	s.mu.RLock()
	id, ok := s.bySession[session]
	t := s.tasks[id]
	s.mu.RUnlock()
	if !ok || t == nil {
		return Snapshot{}, false
	}
	return t.Snapshot(), true
}

// Forget drops the cached file hashes for a session so the next submission
// re-indexes every file. Call it after the session's namespace is deleted.
func (s *Service) Forget(session string) {
	s.hashes.Forget(session)
}

// Close cancels running tasks and waits for them to stop.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
