package domain

// NormalizedPost is a single Bluesky post prepared for rendering on the blog.
// All string fields are sanitized before they get here.
type NormalizedPost struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	CreatedAt    string        `json:"createdAt"`
	Author       Author        `json:"author"`
	Engagement   Engagement    `json:"engagement"`
	Images       []Image       `json:"images,omitempty"`
	ExternalLink *ExternalLink `json:"externalLink,omitempty"`
	QuotedPost   *QuotedPost   `json:"quotedPost,omitempty"`
	Permalink    string        `json:"permalink"`
}

// Author of a post
type Author struct {
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Engagement counters, zero when upstream omits them
type Engagement struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
}

// Image attached to a post
type Image struct {
	URL         string      `json:"url"`
	AltText     string      `json:"altText"`
	AspectRatio AspectRatio `json:"aspectRatio"`
}

// AspectRatio of an image, {1,1} when unknown
type AspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExternalLink is a link card attached to a post
type ExternalLink struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// QuotedPost is another post referenced by a quote
type QuotedPost struct {
	Text         string `json:"text"`
	AuthorName   string `json:"authorName"`
	AuthorHandle string `json:"authorHandle"`
}

// HasMedia reports whether the post carries images or a link card
func (p NormalizedPost) HasMedia() bool {
	return len(p.Images) > 0 || p.ExternalLink != nil
}
