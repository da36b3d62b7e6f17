package widget

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/umputun/skyfeed/pkg/domain"
)

// findAll collects elements with the given tag and, if set, class
func findAll(n *html.Node, tag, class string) []*html.Node {
	var res []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag && (class == "" || hasClass(n, class)) {
			res = append(res, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return res
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func renderNode(t *testing.T, c *Consumer) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	root, err := html.Parse(&buf)
	require.NoError(t, err)
	return root
}

func consumerWith(snap Snapshot) *Consumer {
	c := NewConsumer(Config{SourceURL: "http://localhost/feed.json", ProfileURL: "https://bsky.app/profile/me.bsky.social"}, nil)
	c.snap = snap
	return c
}

func richPost() domain.NormalizedPost {
	images := make([]domain.Image, 0, 6)
	for i := 0; i < 6; i++ {
		images = append(images, domain.Image{URL: "https://cdn.bsky.app/img/" + string(rune('a'+i)),
			AltText: "cat &amp; dog", AspectRatio: domain.AspectRatio{Width: 4, Height: 3}})
	}
	return domain.NormalizedPost{
		ID:         "cid1",
		Text:       "line one &lt;b&gt;\nline two",
		CreatedAt:  time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339),
		Author:     domain.Author{DisplayName: "Me &amp; Co", Handle: "me.bsky.social", AvatarURL: "https://cdn.bsky.app/avatar"},
		Engagement: domain.Engagement{Likes: 7, Reposts: 2, Replies: 1},
		Images:     images,
		ExternalLink: &domain.ExternalLink{URL: "https://example.com/article", Title: "Article &quot;title&quot;",
			Description: "desc", ThumbnailURL: "https://cdn.bsky.app/thumb"},
		QuotedPost: &domain.QuotedPost{Text: "quoted text", AuthorName: "Alice", AuthorHandle: "alice.bsky.social"},
		Permalink:  "https://bsky.app/profile/me.bsky.social/post/rk1",
	}
}

func TestRender_Posts(t *testing.T) {
	doc := testDocument("unused")
	doc.Posts = []domain.NormalizedPost{richPost()}
	root := renderNode(t, consumerWith(Snapshot{State: StateSuccess, Document: &doc}))

	sections := findAll(root, "section", "bsky-widget")
	require.Len(t, sections, 1)
	assert.Equal(t, "success", attr(sections[0], "data-state"))
	assert.Empty(t, attr(sections[0], "data-stale"))

	posts := findAll(root, "li", "bsky-post")
	require.Len(t, posts, 1)
	post := posts[0]

	body := findAll(post, "p", "bsky-text")
	require.Len(t, body, 1)
	assert.Equal(t, "line one <b>line two", text(body[0]), "escaped once, rendered as text")
	assert.Len(t, findAll(body[0], "br", ""), 1)
	assert.Empty(t, findAll(body[0], "b", ""), "no markup injected from post text")

	assert.Equal(t, "Me & Co", text(findAll(post, "span", "bsky-name")[0]))
	assert.Equal(t, "@me.bsky.social", text(findAll(post, "span", "bsky-handle")[0]))
	assert.Equal(t, "2h", text(findAll(post, "time", "")[0]))

	imgBox := findAll(post, "div", "bsky-images")
	require.Len(t, imgBox, 1)
	imgs := findAll(imgBox[0], "img", "")
	require.Len(t, imgs, 4, "at most four images rendered")
	assert.Equal(t, "https://cdn.bsky.app/img/a", attr(imgs[0], "src"))
	assert.Equal(t, "cat & dog", attr(imgs[0], "alt"))
	assert.Equal(t, "4", attr(imgs[0], "width"))
	assert.Equal(t, "3", attr(imgs[0], "height"))
	assert.Equal(t, "+2", text(findAll(imgBox[0], "span", "bsky-more-images")[0]))

	ext := findAll(post, "a", "bsky-external")
	require.Len(t, ext, 1)
	assert.Equal(t, "https://example.com/article", attr(ext[0], "href"))
	assert.Contains(t, attr(ext[0], "rel"), "nofollow")
	assert.Equal(t, `Article "title"`, text(findAll(ext[0], "span", "bsky-external-title")[0]))

	quote := findAll(post, "blockquote", "bsky-quote")
	require.Len(t, quote, 1)
	assert.Contains(t, text(quote[0]), "Alice")
	assert.Contains(t, text(quote[0]), "@alice.bsky.social")
	assert.Contains(t, text(quote[0]), "quoted text")

	assert.Equal(t, "♥ 7", text(findAll(post, "span", "bsky-likes")[0]))
	assert.Equal(t, "⟳ 2", text(findAll(post, "span", "bsky-reposts")[0]))
	assert.Equal(t, "💬 1", text(findAll(post, "span", "bsky-replies")[0]))
	perma := findAll(post, "a", "bsky-permalink")
	require.Len(t, perma, 1)
	assert.Equal(t, "https://bsky.app/profile/me.bsky.social/post/rk1", attr(perma[0], "href"))

	assert.Empty(t, findAll(root, "div", "bsky-error"))
	assert.Empty(t, findAll(root, "div", "bsky-loading"))
}

func TestRender_PlainPost(t *testing.T) {
	doc := testDocument("just text")
	doc.Posts[0].CreatedAt = "not a date"
	root := renderNode(t, consumerWith(Snapshot{State: StateSuccess, Document: &doc, Stale: true}))

	assert.Equal(t, "true", attr(findAll(root, "section", "bsky-widget")[0], "data-stale"))
	post := findAll(root, "li", "bsky-post")[0]
	assert.Empty(t, findAll(post, "div", "bsky-images"))
	assert.Empty(t, findAll(post, "a", "bsky-external"))
	assert.Empty(t, findAll(post, "blockquote", ""))
	assert.Empty(t, findAll(post, "time", ""), "no time for unparsable date")
	assert.Empty(t, findAll(post, "img", "bsky-avatar"))
}

func TestRender_States(t *testing.T) {
	t.Run("idle shows loading", func(t *testing.T) {
		root := renderNode(t, consumerWith(Snapshot{}))
		assert.Len(t, findAll(root, "div", "bsky-loading"), 1)
		assert.Empty(t, findAll(root, "li", "bsky-post"))
	})

	t.Run("loading with document shows posts", func(t *testing.T) {
		doc := testDocument("still here")
		root := renderNode(t, consumerWith(Snapshot{State: StateLoading, Document: &doc}))
		assert.Empty(t, findAll(root, "div", "bsky-loading"))
		assert.Len(t, findAll(root, "li", "bsky-post"), 1)
	})

	t.Run("error panel", func(t *testing.T) {
		root := renderNode(t, consumerWith(Snapshot{State: StateError, Error: MsgUnavailable}))
		panel := findAll(root, "div", "bsky-error")
		require.Len(t, panel, 1)
		assert.Contains(t, text(panel[0]), MsgUnavailable)
		btn := findAll(panel[0], "button", "bsky-retry")
		require.Len(t, btn, 1)
		assert.Equal(t, "/widget/retry", attr(btn[0], "hx-post"))
		link := findAll(panel[0], "a", "bsky-profile")
		require.Len(t, link, 1)
		assert.Equal(t, "https://bsky.app/profile/me.bsky.social", attr(link[0], "href"))
	})

	t.Run("empty document", func(t *testing.T) {
		doc := testDocument("x")
		doc.Posts = []domain.NormalizedPost{}
		root := renderNode(t, consumerWith(Snapshot{State: StateSuccess, Document: &doc}))
		assert.Len(t, findAll(root, "p", "bsky-empty"), 1)
	})
}

func TestRenderPage(t *testing.T) {
	doc := testDocument("page post")
	c := consumerWith(Snapshot{State: StateSuccess, Document: &doc})
	var buf bytes.Buffer
	require.NoError(t, c.RenderPage(&buf))
	root, err := html.Parse(&buf)
	require.NoError(t, err)

	titles := findAll(root, "title", "")
	require.Len(t, titles, 1)
	assert.Equal(t, "Me Myself on Bluesky", text(titles[0]))
	assert.Len(t, findAll(root, "section", "bsky-widget"), 1)
	assert.Len(t, findAll(root, "li", "bsky-post"), 1)
}

func TestAgo(t *testing.T) {
	now := time.Now()
	assert.Empty(t, ago(time.Time{}))
	assert.Equal(t, "just now", ago(now.Add(-10*time.Second)))
	assert.Equal(t, "5m", ago(now.Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3h", ago(now.Add(-3*time.Hour-time.Second)))
	assert.Equal(t, "2d", ago(now.Add(-49*time.Hour)))
	old := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jan 2, 2023", ago(old))
}
