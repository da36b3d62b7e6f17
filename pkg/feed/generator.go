package feed

import (
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/skyfeed/pkg/domain"
)

const rssTitleLen = 80

// Generator renders a FeedDocument as RSS 2.0
type Generator struct {
	baseURL string
	policy  *bluemonday.Policy
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  bluemonday.UGCPolicy().RequireNoFollowOnLinks(true).AddTargetBlankToFullyQualifiedLinks(true),
	}
}

// GenerateRSS creates an RSS 2.0 feed from the document posts, newest first as in the document
func (g *Generator) GenerateRSS(doc domain.FeedDocument) (string, error) {
	name := html.UnescapeString(doc.Author.DisplayName)
	if name == "" {
		name = html.UnescapeString(doc.Author.Handle)
	}

	rssItems := make([]*RSSItem, 0, len(doc.Posts))
	for _, post := range doc.Posts {
		rssItems = append(rssItems, g.convertToRSSItem(post))
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    nsAtom,
		DC:      nsDC,
		Media:   nsMedia,
		Channel: &RSSChannel{
			Title:         fmt.Sprintf("%s on Bluesky", name),
			Link:          fmt.Sprintf("https://bsky.app/profile/%s", html.UnescapeString(doc.Author.Handle)),
			Description:   fmt.Sprintf("Latest posts of @%s", html.UnescapeString(doc.Author.Handle)),
			SelfLink:      &AtomLink{Href: g.baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			Generator:     "skyfeed",
			LastBuildDate: doc.GeneratedAt.Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

// convertToRSSItem converts a normalized post to an RSS item. Post fields are already
// escaped, title and author are unescaped back to plain text for the xml encoder.
func (g *Generator) convertToRSSItem(post domain.NormalizedPost) *RSSItem {
	item := &RSSItem{
		Title:       rssTitle(html.UnescapeString(post.Text)),
		Link:        post.Permalink,
		GUID:        RSSGUID{Value: post.Permalink, IsPermaLink: true},
		Description: g.description(post),
		Creator:     html.UnescapeString(post.Author.DisplayName),
	}
	if item.Creator == "" {
		item.Creator = html.UnescapeString(post.Author.Handle)
	}
	if ts, err := time.Parse(time.RFC3339, post.CreatedAt); err == nil {
		item.PubDate = ts.UTC().Format(time.RFC1123Z)
	}
	if len(post.Images) > 0 {
		item.Categories = append(item.Categories, "images")
	}
	for _, img := range post.Images {
		item.Media = append(item.Media, MediaContent{URL: img.URL, Medium: "image",
			Width: img.AspectRatio.Width, Height: img.AspectRatio.Height})
	}
	if post.QuotedPost != nil {
		item.Categories = append(item.Categories, "quote")
	}
	return item
}

// description builds the html body of an item: text, images, quote and link card
func (g *Generator) description(post domain.NormalizedPost) string {
	var sb strings.Builder
	sb.WriteString("<p>" + strings.ReplaceAll(post.Text, "\n", "<br/>") + "</p>")
	for _, img := range post.Images {
		fmt.Fprintf(&sb, `<p><img src="%s" alt="%s"/></p>`, html.EscapeString(img.URL), img.AltText)
	}
	if q := post.QuotedPost; q != nil {
		fmt.Fprintf(&sb, "<blockquote><p>%s</p><p>%s", q.Text, q.AuthorName)
		if q.AuthorHandle != "" {
			fmt.Fprintf(&sb, " (@%s)", q.AuthorHandle)
		}
		sb.WriteString("</p></blockquote>")
	}
	if l := post.ExternalLink; l != nil {
		title := l.Title
		if title == "" {
			title = html.EscapeString(l.URL)
		}
		fmt.Fprintf(&sb, `<p><a href="%s">%s</a>`, html.EscapeString(l.URL), title)
		if l.Description != "" {
			sb.WriteString("<br/>" + l.Description)
		}
		sb.WriteString("</p>")
	}
	fmt.Fprintf(&sb, "<p>♥ %d · ↻ %d · 💬 %d</p>", post.Engagement.Likes, post.Engagement.Reposts, post.Engagement.Replies)
	return g.policy.Sanitize(sb.String())
}

// rssTitle is the first line of the text, cut to rssTitleLen runes
func rssTitle(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if line == "" {
		return "(no text)"
	}
	if utf8.RuneCountInString(line) <= rssTitleLen {
		return line
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[:rssTitleLen])) + "…"
}
