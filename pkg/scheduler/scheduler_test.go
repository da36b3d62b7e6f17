package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/skyfeed/pkg/bluesky"
	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/feed"
	"github.com/umputun/skyfeed/pkg/repository"
	"github.com/umputun/skyfeed/pkg/scheduler/mocks"
)

func testDoc() *domain.FeedDocument {
	return &domain.FeedDocument{
		Posts:       []domain.NormalizedPost{{ID: "cid1", Text: "hello"}},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TotalPosts:  1,
		Author:      domain.DocumentAuthor{Handle: "me.bsky.social", DisplayName: "Me"},
	}
}

func saveOK(_ context.Context, runID string, doc domain.FeedDocument) (*domain.Snapshot, error) {
	return &domain.Snapshot{ID: 1, RunID: runID, Document: doc}, nil
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(Params{})
	assert.Equal(t, DefaultUpdateInterval, s.updateInterval)

	s = NewScheduler(Params{UpdateInterval: time.Minute})
	assert.Equal(t, time.Minute, s.updateInterval)
	assert.Equal(t, domain.RunStatus{}, s.LastStatus())
}

func TestScheduler_RefreshNow(t *testing.T) {
	pipeline := &mocks.PipelineMock{RunFunc: func(context.Context) (*domain.FeedDocument, error) { return testDoc(), nil }}
	snapshots := &mocks.SnapshotStoreMock{SaveFunc: saveOK}
	settings := &mocks.SettingStoreMock{SetJSONFunc: func(context.Context, string, any) error { return nil }}
	outFile := filepath.Join(t.TempDir(), "feed.json")

	s := NewScheduler(Params{Pipeline: pipeline, Snapshots: snapshots, Settings: settings, OutputFile: outFile})
	snap, err := s.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *testDoc(), snap.Document)

	require.Len(t, snapshots.SaveCalls(), 1)
	runID := snapshots.SaveCalls()[0].RunID
	assert.NotEmpty(t, runID)

	status := s.LastStatus()
	assert.True(t, status.OK())
	assert.Equal(t, runID, status.RunID)
	assert.Equal(t, 1, status.Posts)

	require.Len(t, settings.SetJSONCalls(), 1)
	assert.Equal(t, repository.KeyLastRun, settings.SetJSONCalls()[0].Key)
	assert.Equal(t, status, settings.SetJSONCalls()[0].V)

	data, err := os.ReadFile(outFile) //nolint:gosec // test file
	require.NoError(t, err)
	var written domain.FeedDocument
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, *testDoc(), written)

	entries, err := os.ReadDir(filepath.Dir(outFile))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left")
}

func TestScheduler_RefreshNowFailureKeepsOutput(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(outFile, []byte(`{"posts":[]}`), 0o600))

	pipeline := &mocks.PipelineMock{RunFunc: func(context.Context) (*domain.FeedDocument, error) {
		return nil, &bluesky.AuthError{Status: 401, Body: "bad password"}
	}}
	snapshots := &mocks.SnapshotStoreMock{SaveFunc: saveOK}

	s := NewScheduler(Params{Pipeline: pipeline, Snapshots: snapshots, OutputFile: outFile})
	_, err := s.RefreshNow(context.Background())
	require.Error(t, err)
	var authErr *bluesky.AuthError
	assert.True(t, errors.As(err, &authErr))

	assert.Empty(t, snapshots.SaveCalls())
	status := s.LastStatus()
	assert.False(t, status.OK())
	assert.Equal(t, feed.MsgAuthFailed, status.Error)

	data, err := os.ReadFile(outFile) //nolint:gosec // test file
	require.NoError(t, err)
	assert.JSONEq(t, `{"posts":[]}`, string(data))
}

func TestScheduler_RefreshNowSaveError(t *testing.T) {
	pipeline := &mocks.PipelineMock{RunFunc: func(context.Context) (*domain.FeedDocument, error) { return testDoc(), nil }}
	snapshots := &mocks.SnapshotStoreMock{SaveFunc: func(context.Context, string, domain.FeedDocument) (*domain.Snapshot, error) {
		return nil, errors.New("disk full")
	}}
	settings := &mocks.SettingStoreMock{SetJSONFunc: func(context.Context, string, any) error { return errors.New("also broken") }}

	s := NewScheduler(Params{Pipeline: pipeline, Snapshots: snapshots, Settings: settings})
	_, err := s.RefreshNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, feed.MsgUnavailable, s.LastStatus().Error)
}

func TestScheduler_RefreshNowSerialized(t *testing.T) {
	var active, maxActive int32
	pipeline := &mocks.PipelineMock{RunFunc: func(context.Context) (*domain.FeedDocument, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return testDoc(), nil
	}}
	s := NewScheduler(Params{Pipeline: pipeline, Snapshots: &mocks.SnapshotStoreMock{SaveFunc: saveOK}})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RefreshNow(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, pipeline.RunCalls(), 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestScheduler_StartStop(t *testing.T) {
	pipeline := &mocks.PipelineMock{RunFunc: func(context.Context) (*domain.FeedDocument, error) { return testDoc(), nil }}
	snapshots := &mocks.SnapshotStoreMock{SaveFunc: saveOK}
	s := NewScheduler(Params{Pipeline: pipeline, Snapshots: snapshots, UpdateInterval: 20 * time.Millisecond})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return len(pipeline.RunCalls()) >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	calls := len(pipeline.RunCalls())
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, pipeline.RunCalls(), calls, "no runs after stop")
	assert.True(t, s.LastStatus().OK())
}

func TestScheduler_FirstRunImmediate(t *testing.T) {
	pipeline := &mocks.PipelineMock{RunFunc: func(context.Context) (*domain.FeedDocument, error) { return testDoc(), nil }}
	s := NewScheduler(Params{Pipeline: pipeline, Snapshots: &mocks.SnapshotStoreMock{SaveFunc: saveOK},
		UpdateInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	require.Eventually(t, func() bool { return len(pipeline.RunCalls()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()
}

func TestWriteJSONFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "out.json")
	require.NoError(t, writeJSONFile(f, map[string]int{"a": 1}))
	require.NoError(t, writeJSONFile(f, map[string]int{"a": 2}))
	data, err := os.ReadFile(f) //nolint:gosec // test file
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	err = writeJSONFile(filepath.Join(dir, "missing", "out.json"), 1)
	assert.Error(t, err)
}
