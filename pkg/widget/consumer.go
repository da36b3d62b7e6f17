// Package widget is the client side of the feed: it pulls the feed document from the
// server with retries, keeps the last good copy in a cache and renders an html fragment.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/skyfeed/pkg/domain"
)

// State of the consumer
type State int

// consumer states, idle -> loading -> success | error
const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// MsgUnavailable is shown on the error panel
const MsgUnavailable = "Posts can't be loaded right now."

// ErrRefreshInProgress is returned by Refresh when another refresh is running
var ErrRefreshInProgress = errors.New("refresh in progress")

// Snapshot is what the consumer shows at the moment
type Snapshot struct {
	State     State
	Document  *domain.FeedDocument // last good document, network or cache
	Stale     bool                 // Document came from the cache or a failed refresh kept it
	Error     string               // set in error state only
	UpdatedAt time.Time            // last successful network fetch
}

// Config for the consumer
type Config struct {
	SourceURL       string
	Attempts        int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	AttemptTimeout  time.Duration
	RefreshInterval time.Duration
	ProfileURL      string
	MaxImages       int
	Client          *http.Client
}

// Consumer fetches the feed document, caches and renders it.
// One refresh runs at a time, the rest are coalesced.
type Consumer struct {
	cfg   Config
	cache Cache

	mu   sync.RWMutex
	snap Snapshot

	inFlight atomic.Bool
	retryCh  chan struct{}
}

// NewConsumer makes a consumer, nil cache means no caching
func NewConsumer(cfg Config, cache Cache) *Consumer {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 4
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cache == nil {
		cache = NopCache{}
	}
	return &Consumer{cfg: cfg, cache: cache, retryCh: make(chan struct{}, 1)}
}

// Snapshot returns a copy of the current state
func (c *Consumer) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Run publishes the cached document, if any, before the first network attempt, then
// refreshes right away and every RefreshInterval until ctx is done. Retry requests
// trigger an extra refresh.
func (c *Consumer) Run(ctx context.Context) error {
	c.LoadCache()

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	c.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.refresh(ctx)
		case <-c.retryCh:
			c.refresh(ctx)
		}
	}
}

// LoadCache publishes the cached document as a stale success, returns false if there is none
func (c *Consumer) LoadCache() bool {
	doc, ok := c.cache.Load()
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.Document != nil {
		return false // never replace a fresher document
	}
	c.snap = Snapshot{State: StateSuccess, Document: &doc, Stale: true}
	lgr.Printf("[DEBUG] cached feed document with %d posts loaded", len(doc.Posts))
	return true
}

// Retry switches to loading and asks the running loop for a refresh, doesn't block
func (c *Consumer) Retry() {
	c.mu.Lock()
	c.snap.State = StateLoading
	c.mu.Unlock()

	select {
	case c.retryCh <- struct{}{}:
	default: // one pending request is enough
	}
}

func (c *Consumer) refresh(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
		lgr.Printf("[WARN] feed refresh failed: %v", err)
	}
}

// Refresh fetches the document with retries and updates the state. Returns
// ErrRefreshInProgress without doing anything if another refresh is running.
func (c *Consumer) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	c.snap.State = StateLoading
	c.mu.Unlock()

	var doc *domain.FeedDocument
	attempt := 0
	rpt := repeater.NewBackoff(c.cfg.Attempts, c.cfg.InitialDelay, repeater.WithMaxDelay(c.cfg.MaxDelay))
	err := rpt.Do(ctx, func() error {
		attempt++
		d, err := c.fetch(ctx)
		if err != nil {
			lgr.Printf("[DEBUG] feed fetch attempt %d of %d failed: %v", attempt, c.cfg.Attempts, err)
			return err
		}
		doc = d
		return nil
	})
	if err != nil || doc == nil {
		if err == nil {
			err = errors.New("no document")
		}
		c.fail()
		return err
	}

	c.succeed(*doc)
	return nil
}

func (c *Consumer) succeed(doc domain.FeedDocument) {
	c.mu.Lock()
	c.snap = Snapshot{State: StateSuccess, Document: &doc, UpdatedAt: time.Now()}
	c.mu.Unlock()

	if !c.storeCache(doc) {
		lgr.Printf("[DEBUG] feed document not cached")
	}
}

// fail keeps the last good document, stale and without an error, or switches to the error state
func (c *Consumer) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.Document != nil {
		c.snap.State = StateSuccess
		c.snap.Stale = true
		c.snap.Error = ""
		return
	}
	c.snap = Snapshot{State: StateError, Error: MsgUnavailable}
}

// storeCache writes to the cache, a misbehaving cache never breaks the refresh
func (c *Consumer) storeCache(doc domain.FeedDocument) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[WARN] feed cache panic: %v", r)
			ok = false
		}
	}()
	return c.cache.Store(doc)
}

// wireDocument is either a FeedDocument or an ErrorDocument
type wireDocument struct {
	domain.FeedDocument
	Error string `json:"error"`
}

// fetch makes a single attempt bounded by AttemptTimeout
func (c *Consumer) fetch(ctx context.Context) (*domain.FeedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SourceURL, http.NoBody)
	if err != nil {
		return nil, &ClientFetchError{Err: fmt.Errorf("make request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return nil, &ClientFetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ClientFetchError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	var wire wireDocument
	decodeErr := json.Unmarshal(body, &wire)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ClientFetchError{Status: resp.StatusCode, Message: wire.Error}
	}
	if decodeErr != nil {
		return nil, &ClientFetchError{Status: resp.StatusCode, Err: fmt.Errorf("decode document: %w", decodeErr)}
	}
	if wire.Error != "" {
		return nil, &ClientFetchError{Status: resp.StatusCode, Message: wire.Error}
	}
	if wire.Posts == nil {
		wire.Posts = []domain.NormalizedPost{}
	}
	return &wire.FeedDocument, nil
}

// ClientFetchError is a failed fetch attempt: transport error, timeout, non-2xx
// status or an error document
type ClientFetchError struct {
	Status  int
	Message string // error field of an error document
	Err     error
}

func (e *ClientFetchError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("fetch feed document (status %d): %v", e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch feed document: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("fetch feed document (status %d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("fetch feed document: unexpected status %d", e.Status)
	}
}

func (e *ClientFetchError) Unwrap() error { return e.Err }
