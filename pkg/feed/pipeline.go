package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/umputun/skyfeed/pkg/bluesky"
	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/metrics"
	"github.com/umputun/skyfeed/pkg/sanitize"
)

//go:generate moq -out mocks/upstream.go -pkg mocks -skip-ensure -fmt goimports . Upstream

// DefaultFetchLimit is how many raw items are requested to absorb filtering loss
const DefaultFetchLimit = 20

// client-facing messages, upstream details never leave the server
const (
	MsgAuthFailed  = "authentication failed"
	MsgFetchFailed = "failed to fetch feed"
	MsgUnavailable = "feed temporarily unavailable"
)

// Upstream is the social network API used by the pipeline
type Upstream interface {
	CreateSession(ctx context.Context, cred domain.Credential) (domain.Session, error)
	GetAuthorFeed(ctx context.Context, sess domain.Session, actor string, limit int) ([]bluesky.FeedItem, error)
}

// Config for the pipeline
type Config struct {
	Credential  domain.Credential
	FetchLimit  int
	MaxPosts    int
	DisplayName string // overrides the display name taken from the feed
	Now         func() time.Time
}

// Pipeline authenticates, fetches the author feed, filters, normalizes and
// assembles a FeedDocument. Runs are independent, nothing is kept between them.
type Pipeline struct {
	upstream    Upstream
	cred        domain.Credential
	fetchLimit  int
	displayName string
	transformer Transformer
}

// NewPipeline makes a pipeline on top of the upstream API
func NewPipeline(upstream Upstream, cfg Config) *Pipeline {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = DefaultMaxPosts
	}
	return &Pipeline{
		upstream:    upstream,
		cred:        cfg.Credential,
		fetchLimit:  cfg.FetchLimit,
		displayName: cfg.DisplayName,
		transformer: Transformer{MaxPosts: cfg.MaxPosts, Now: cfg.Now},
	}
}

// Run makes one pass: authenticate, then fetch the feed. Auth and fetch failures abort
// the run and are returned as is (*bluesky.AuthError, *bluesky.FetchError); use
// PublicMessage to get the text safe for clients.
func (p *Pipeline) Run(ctx context.Context) (*domain.FeedDocument, error) {
	runID := uuid.NewString()[:8]
	st := time.Now()

	sess, err := p.upstream.CreateSession(ctx, p.cred)
	if err != nil {
		metrics.ObservePipelineRun("auth_error", time.Since(st))
		lgr.Printf("[WARN] run %s, authentication failed for %s: %v", runID, p.cred.Handle, err)
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	items, err := p.upstream.GetAuthorFeed(ctx, sess, sess.DID, p.fetchLimit)
	if err != nil {
		metrics.ObservePipelineRun("fetch_error", time.Since(st))
		lgr.Printf("[WARN] run %s, fetch author feed failed: %v", runID, err)
		return nil, fmt.Errorf("fetch author feed: %w", err)
	}

	kept, stats := Filter(items, sess.DID)
	for reason, n := range stats {
		metrics.AddDropped(string(reason), n)
	}
	lgr.Printf("[DEBUG] run %s, fetched %d items, %d original posts, dropped %v", runID, len(items), len(kept), stats)

	author := domain.DocumentAuthor{
		Handle:      sanitize.Text(p.cred.Handle),
		DisplayName: p.resolveDisplayName(items, sess),
	}
	doc, skipped := p.transformer.Transform(kept, author)
	metrics.AddDropped("normalization", skipped)
	metrics.SetPostsPublished(doc.TotalPosts)
	metrics.ObservePipelineRun("ok", time.Since(st))

	lgr.Printf("[INFO] run %s, feed document with %d posts generated in %v", runID, doc.TotalPosts, time.Since(st).Round(time.Millisecond))
	return &doc, nil
}

// resolveDisplayName picks the configured name, then the actor's name seen in the feed, then the handle
func (p *Pipeline) resolveDisplayName(items []bluesky.FeedItem, sess domain.Session) string {
	if name := sanitize.Text(p.displayName); name != "" {
		return name
	}
	for _, item := range items {
		if item.Post.Author.DID == sess.DID && item.Post.Author.DisplayName != "" {
			return sanitize.Text(item.Post.Author.DisplayName)
		}
	}
	return sanitize.Text(p.cred.Handle)
}

// PublicMessage maps a pipeline error to a generic message for clients
func PublicMessage(err error) string {
	var authErr *bluesky.AuthError
	var fetchErr *bluesky.FetchError
	switch {
	case errors.As(err, &authErr):
		return MsgAuthFailed
	case errors.As(err, &fetchErr):
		return MsgFetchFailed
	default:
		return MsgUnavailable
	}
}
