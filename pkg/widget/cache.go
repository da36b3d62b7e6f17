package widget

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/skyfeed/pkg/domain"
)

//go:generate moq -out mocks/json_store.go -pkg mocks -skip-ensure -fmt goimports . JSONStore

// Cache keeps the last good document. Both methods report the outcome instead of
// failing, an unavailable cache is a normal case.
type Cache interface {
	Load() (domain.FeedDocument, bool)
	Store(doc domain.FeedDocument) bool
}

// cacheEntry is the stored form of a cached document
type cacheEntry struct {
	SavedAt  time.Time           `json:"savedAt"`
	Document domain.FeedDocument `json:"document"`
}

// NopCache never stores anything, for disabled storage
type NopCache struct{}

// Load always reports a miss
func (NopCache) Load() (domain.FeedDocument, bool) { return domain.FeedDocument{}, false }

// Store always reports a failure
func (NopCache) Store(domain.FeedDocument) bool { return false }

// FileCache keeps the document in a json file
type FileCache struct {
	path string
}

// NewFileCache makes a cache stored in path
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Load reads the cached document, missing or broken file is a miss
func (f *FileCache) Load() (domain.FeedDocument, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			lgr.Printf("[WARN] can't read feed cache %s: %v", f.path, err)
		}
		return domain.FeedDocument{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		lgr.Printf("[WARN] broken feed cache %s: %v", f.path, err)
		return domain.FeedDocument{}, false
	}
	if entry.Document.Posts == nil {
		entry.Document.Posts = []domain.NormalizedPost{}
	}
	return entry.Document, true
}

// Store writes the document via a temp file and rename
func (f *FileCache) Store(doc domain.FeedDocument) bool {
	data, err := json.Marshal(cacheEntry{SavedAt: time.Now().UTC(), Document: doc})
	if err != nil {
		lgr.Printf("[WARN] can't encode feed cache: %v", err)
		return false
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		lgr.Printf("[WARN] can't write feed cache: %v", err)
		return false
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		lgr.Printf("[WARN] can't write feed cache: %v", err)
		return false
	}
	if err = tmp.Close(); err != nil {
		lgr.Printf("[WARN] can't write feed cache: %v", err)
		return false
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		lgr.Printf("[WARN] can't write feed cache: %v", err)
		return false
	}
	return true
}

// JSONStore is a key-value store of json values, repository.SettingRepository fits
type JSONStore interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// StoreCache keeps the document in a JSONStore under a key
type StoreCache struct {
	store   JSONStore
	key     string
	timeout time.Duration
}

// NewStoreCache makes a cache on top of a key-value store
func NewStoreCache(store JSONStore, key string) *StoreCache {
	return &StoreCache{store: store, key: key, timeout: 5 * time.Second}
}

// Load reads the cached document, store errors are a miss
func (s *StoreCache) Load() (domain.FeedDocument, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var entry cacheEntry
	ok, err := s.store.GetJSON(ctx, s.key, &entry)
	if err != nil {
		lgr.Printf("[WARN] can't load feed cache %s: %v", s.key, err)
		return domain.FeedDocument{}, false
	}
	if !ok {
		return domain.FeedDocument{}, false
	}
	if entry.Document.Posts == nil {
		entry.Document.Posts = []domain.NormalizedPost{}
	}
	return entry.Document, true
}

// Store saves the document, false if the store failed
func (s *StoreCache) Store(doc domain.FeedDocument) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.SetJSON(ctx, s.key, cacheEntry{SavedAt: time.Now().UTC(), Document: doc}); err != nil {
		lgr.Printf("[WARN] can't store feed cache %s: %v", s.key, err)
		return false
	}
	return true
}
