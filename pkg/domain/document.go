package domain

import "time"

// FeedDocument is the precomputed feed snapshot served to the blog.
// It is produced fresh on every pipeline run and never mutated afterwards.
type FeedDocument struct {
	Posts       []NormalizedPost `json:"posts"`
	GeneratedAt time.Time        `json:"generatedAt"`
	TotalPosts  int              `json:"totalPosts"`
	Author      DocumentAuthor   `json:"author"`
}

// DocumentAuthor identifies whose feed the document is
type DocumentAuthor struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

// ErrorDocument is returned to clients instead of a FeedDocument on failure.
// Posts is always an empty (non-nil) list.
type ErrorDocument struct {
	Error string           `json:"error"`
	Posts []NormalizedPost `json:"posts"`
}

// NewErrorDocument makes an error document with the given client-facing message
func NewErrorDocument(msg string) ErrorDocument {
	return ErrorDocument{Error: msg, Posts: []NormalizedPost{}}
}

// Credential is the long-lived handle and app password pair
type Credential struct {
	Handle      string
	AppPassword string
}

// Session is a short-lived upstream session, valid for a single pipeline run
type Session struct {
	AccessToken string
	DID         string
	Handle      string
}
