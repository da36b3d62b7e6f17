package feed

import (
	"fmt"
	"strings"

	"github.com/umputun/skyfeed/pkg/bluesky"
)

// DropReason tells why an item was excluded from the feed
type DropReason string

// drop reasons, checked in this order
const (
	DropRepost      DropReason = "repost"
	DropReply       DropReason = "reply"
	DropOtherAuthor DropReason = "other_author"
)

// FilterStats counts dropped items per reason
type FilterStats map[DropReason]int

// Filter keeps original posts of actorDID only: no reposts, no replies and nothing
// authored by someone else. Predicates are checked in order and the first failing one
// decides the drop reason. The relative order of kept items is preserved.
func Filter(items []bluesky.FeedItem, actorDID string) ([]bluesky.FeedItem, FilterStats) {
	stats := FilterStats{}
	res := make([]bluesky.FeedItem, 0, len(items))
	for _, item := range items {
		if reason, drop := dropReason(item, actorDID); drop {
			stats[reason]++
			continue
		}
		res = append(res, item)
	}
	return res, stats
}

func dropReason(item bluesky.FeedItem, actorDID string) (DropReason, bool) {
	if item.Reason != nil && item.Reason.Type == bluesky.ReasonRepost {
		return DropRepost, true
	}
	if item.Post.Record.Reply != nil {
		return DropReply, true
	}
	if item.Post.Author.DID != actorDID {
		return DropOtherAuthor, true
	}
	return "", false
}

// Permalink makes the public bsky.app link of a post from its author handle and at:// URI
func Permalink(handle, uri string) (string, error) {
	// at://{did}/{collection}/{rkey}
	parts := strings.Split(strings.TrimPrefix(uri, "at://"), "/")
	if !strings.HasPrefix(uri, "at://") || len(parts) < 3 || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("no record key in uri %q", uri)
	}
	rkey := parts[len(parts)-1]
	if handle == "" {
		return "", fmt.Errorf("empty author handle for %q", uri)
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey), nil
}
