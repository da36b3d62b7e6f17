package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/feed"
	"github.com/umputun/skyfeed/pkg/repository"
)

//go:generate moq -out mocks/pipeline.go -pkg mocks -skip-ensure -fmt goimports . Pipeline
//go:generate moq -out mocks/snapshot_store.go -pkg mocks -skip-ensure -fmt goimports . SnapshotStore
//go:generate moq -out mocks/setting_store.go -pkg mocks -skip-ensure -fmt goimports . SettingStore

// DefaultUpdateInterval is used when Params.UpdateInterval is not set
const DefaultUpdateInterval = 15 * time.Minute

// Pipeline produces a fresh feed document
type Pipeline interface {
	Run(ctx context.Context) (*domain.FeedDocument, error)
}

// SnapshotStore keeps generated documents
type SnapshotStore interface {
	Save(ctx context.Context, runID string, doc domain.FeedDocument) (*domain.Snapshot, error)
}

// SettingStore keeps the last run status
type SettingStore interface {
	SetJSON(ctx context.Context, key string, v any) error
}

// Params for the scheduler
type Params struct {
	Pipeline       Pipeline
	Snapshots      SnapshotStore
	Settings       SettingStore // optional
	UpdateInterval time.Duration
	OutputFile     string // optional, the latest document is written there as json
}

// Scheduler runs the pipeline periodically and stores each successful document.
// A failed run keeps the previous snapshot in place.
type Scheduler struct {
	pipeline       Pipeline
	snapshots      SnapshotStore
	settings       SettingStore
	updateInterval time.Duration
	outputFile     string

	runMu  sync.Mutex // serializes runs
	mu     sync.RWMutex
	status domain.RunStatus

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(params Params) *Scheduler {
	if params.UpdateInterval <= 0 {
		params.UpdateInterval = DefaultUpdateInterval
	}
	return &Scheduler{
		pipeline:       params.Pipeline,
		snapshots:      params.Snapshots,
		settings:       params.Settings,
		updateInterval: params.UpdateInterval,
		outputFile:     params.OutputFile,
	}
}

// Start begins the update worker, the first run happens immediately
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.updateWorker(ctx)
	lgr.Printf("[INFO] scheduler started with update interval %v", s.updateInterval)
}

// Stop gracefully stops the scheduler and waits for the running update
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

func (s *Scheduler) updateWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	s.update(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.update(ctx)
		}
	}
}

func (s *Scheduler) update(ctx context.Context) {
	if _, err := s.RefreshNow(ctx); err != nil {
		lgr.Printf("[WARN] scheduled feed update failed: %v", err)
	}
}

// RefreshNow runs the pipeline immediately and stores the result. Concurrent calls
// are serialized, each one makes its own run.
func (s *Scheduler) RefreshNow(ctx context.Context) (*domain.Snapshot, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	status := domain.RunStatus{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	snap, err := s.refresh(ctx, status.RunID)
	status.Duration = time.Since(status.StartedAt)
	if err != nil {
		status.Error = feed.PublicMessage(err)
	} else {
		status.Posts = snap.Document.TotalPosts
	}
	s.setStatus(ctx, status)
	return snap, err
}

func (s *Scheduler) refresh(ctx context.Context, runID string) (*domain.Snapshot, error) {
	doc, err := s.pipeline.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	snap, err := s.snapshots.Save(ctx, runID, *doc)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	if s.outputFile != "" {
		if err := writeJSONFile(s.outputFile, doc); err != nil {
			// the snapshot is stored, a broken output file is not a failed run
			lgr.Printf("[WARN] can't write %s: %v", s.outputFile, err)
		}
	}
	lgr.Printf("[INFO] feed snapshot %d saved, run %s, %d posts", snap.ID, runID, doc.TotalPosts)
	return snap, nil
}

// LastStatus returns the status of the last finished run, zero value before the first one
func (s *Scheduler) LastStatus() domain.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) setStatus(ctx context.Context, status domain.RunStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if s.settings == nil {
		return
	}
	if err := s.settings.SetJSON(ctx, repository.KeyLastRun, status); err != nil {
		lgr.Printf("[WARN] can't store run status: %v", err)
	}
}

// writeJSONFile writes v to a temp file next to fileName and renames it in place,
// readers never see a partial document
func writeJSONFile(fileName string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fileName), "."+filepath.Base(fileName)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // public document
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), fileName); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
