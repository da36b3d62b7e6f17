package feed

import (
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/skyfeed/pkg/bluesky"
	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/sanitize"
)

// DefaultMaxPosts is the number of posts in a feed document unless configured otherwise
const DefaultMaxPosts = 3

// Transformer caps the filtered items and turns them into a FeedDocument
type Transformer struct {
	MaxPosts int
	Now      func() time.Time
}

// Transform truncates items to MaxPosts, keeping their order, and normalizes each one.
// Items failing normalization are logged and skipped, the number of skipped items is returned.
func (t Transformer) Transform(items []bluesky.FeedItem, author domain.DocumentAuthor) (doc domain.FeedDocument, skipped int) {
	maxPosts := t.MaxPosts
	if maxPosts <= 0 {
		maxPosts = DefaultMaxPosts
	}
	if len(items) > maxPosts {
		items = items[:maxPosts]
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	posts := make([]domain.NormalizedPost, 0, len(items))
	for _, item := range items {
		post, err := NormalizePost(item)
		if err != nil {
			lgr.Printf("[WARN] skip post: %v", err)
			skipped++
			continue
		}
		posts = append(posts, post)
	}

	return domain.FeedDocument{
		Posts:       posts,
		GeneratedAt: now().UTC(),
		TotalPosts:  len(posts),
		Author:      author,
	}, skipped
}

// NormalizePost maps one feed item to a NormalizedPost with sanitized fields,
// engagement counters, permalink and embed. Errors are *NormalizationError.
func NormalizePost(item bluesky.FeedItem) (domain.NormalizedPost, error) {
	post := item.Post
	fail := func(err error) (domain.NormalizedPost, error) {
		return domain.NormalizedPost{}, &NormalizationError{URI: post.URI, Err: err}
	}

	link, err := Permalink(post.Author.Handle, post.URI)
	if err != nil {
		return fail(err)
	}
	permalink := sanitize.URL(link)
	if permalink == "" {
		return fail(fmt.Errorf("unsafe permalink for handle %q", post.Author.Handle))
	}

	createdAt := post.Record.CreatedAt
	if createdAt == "" {
		createdAt = post.IndexedAt
	}
	if _, err := time.Parse(time.RFC3339, createdAt); err != nil {
		return fail(fmt.Errorf("bad createdAt %q: %w", createdAt, err))
	}

	embed, err := ParseEmbed(post)
	if err != nil {
		return domain.NormalizedPost{}, err
	}

	id := post.CID
	if id == "" {
		id = post.URI
	}

	handle := sanitize.Text(post.Author.Handle)
	name := sanitize.Text(post.Author.DisplayName)
	if name == "" {
		name = handle
	}

	res := domain.NormalizedPost{
		ID:        sanitize.Text(id),
		Text:      sanitize.Text(post.Record.Text),
		CreatedAt: sanitize.Text(createdAt),
		Author: domain.Author{
			DisplayName: name,
			Handle:      handle,
			AvatarURL:   sanitize.URL(post.Author.Avatar),
		},
		Engagement: domain.Engagement{
			Likes:   counter(post.LikeCount),
			Reposts: counter(post.RepostCount),
			Replies: counter(post.ReplyCount),
		},
		Permalink: permalink,
	}
	if embed != nil {
		embed.apply(&res)
	}
	return res, nil
}

// counter dereferences an optional upstream counter, missing or negative is 0
func counter(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
