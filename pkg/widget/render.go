package widget

import (
	"embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/umputun/skyfeed/pkg/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"ago": ago,
}).ParseFS(templatesFS, "templates/*.html"))

// view is the template data
type view struct {
	State      string
	Loading    bool
	Stale      bool
	Error      string
	ProfileURL string
	Author     domain.DocumentAuthor
	AuthorName string
	Posts      []postView
}

// postView is a post prepared for the template. Post fields come escaped by the
// pipeline, they are unescaped here and escaped again by the template.
type postView struct {
	Lines        []string
	AuthorName   string
	AuthorHandle string
	AvatarURL    string
	CreatedAt    time.Time
	Permalink    string
	Engagement   domain.Engagement
	Images       []imageView
	MoreImages   int
	ExternalLink *externalView
	Quote        *quoteView
}

// imageView carries the aspect ratio as width and height, browsers derive the box from them
type imageView struct {
	URL     string
	AltText string
	Width   int
	Height  int
}

type externalView struct {
	URL          string
	Title        string
	Description  string
	ThumbnailURL string
}

type quoteView struct {
	Lines        []string
	AuthorName   string
	AuthorHandle string
}

// Render writes the widget html fragment for the current state
func (c *Consumer) Render(w io.Writer) error {
	return c.execute(w, "widget")
}

// RenderPage writes a complete html page embedding the widget
func (c *Consumer) RenderPage(w io.Writer) error {
	return c.execute(w, "page.html")
}

func (c *Consumer) execute(w io.Writer, name string) error {
	v := c.view(c.Snapshot())
	if err := templates.ExecuteTemplate(w, name, v); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

func (c *Consumer) view(snap Snapshot) view {
	v := view{
		State:      snap.State.String(),
		Loading:    snap.State == StateLoading || snap.State == StateIdle,
		Stale:      snap.Stale,
		Error:      snap.Error,
		ProfileURL: c.cfg.ProfileURL,
	}
	if snap.Document == nil {
		return v
	}
	v.Loading = false
	v.Author = snap.Document.Author
	v.AuthorName = html.UnescapeString(snap.Document.Author.DisplayName)
	for _, p := range snap.Document.Posts {
		v.Posts = append(v.Posts, c.postView(p))
	}
	return v
}

func (c *Consumer) postView(p domain.NormalizedPost) postView {
	res := postView{
		Lines:        lines(p.Text),
		AuthorName:   html.UnescapeString(p.Author.DisplayName),
		AuthorHandle: html.UnescapeString(p.Author.Handle),
		AvatarURL:    p.Author.AvatarURL,
		Permalink:    p.Permalink,
		Engagement:   p.Engagement,
	}
	if ts, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		res.CreatedAt = ts
	}

	images := p.Images
	if len(images) > c.cfg.MaxImages {
		res.MoreImages = len(images) - c.cfg.MaxImages
		images = images[:c.cfg.MaxImages]
	}
	for _, img := range images {
		res.Images = append(res.Images, imageView{
			URL:     img.URL,
			AltText: html.UnescapeString(img.AltText),
			Width:   img.AspectRatio.Width,
			Height:  img.AspectRatio.Height,
		})
	}

	if l := p.ExternalLink; l != nil {
		res.ExternalLink = &externalView{
			URL:          l.URL,
			Title:        html.UnescapeString(l.Title),
			Description:  html.UnescapeString(l.Description),
			ThumbnailURL: l.ThumbnailURL,
		}
		if res.ExternalLink.Title == "" {
			res.ExternalLink.Title = l.URL
		}
	}
	if q := p.QuotedPost; q != nil {
		res.Quote = &quoteView{
			Lines:        lines(q.Text),
			AuthorName:   html.UnescapeString(q.AuthorName),
			AuthorHandle: html.UnescapeString(q.AuthorHandle),
		}
	}
	return res
}

// lines unescapes the post text and splits it for rendering with line breaks
func lines(escaped string) []string {
	return strings.Split(html.UnescapeString(escaped), "\n")
}

// ago formats the post age for display
func ago(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	d := time.Since(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return ts.Format("Jan 2, 2006")
	}
}
