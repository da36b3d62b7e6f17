package bluesky

import (
	"encoding/json"
	"strings"
)

// embed type discriminators, without the "#view" suffix
const (
	KindImages          = "app.bsky.embed.images"
	KindExternal        = "app.bsky.embed.external"
	KindRecord          = "app.bsky.embed.record"
	KindRecordWithMedia = "app.bsky.embed.recordWithMedia"

	// ReasonRepost marks a feed entry shown because the author reposted it
	ReasonRepost = "app.bsky.feed.defs#reasonRepost"
)

// FeedItem is one entry of app.bsky.feed.getAuthorFeed
type FeedItem struct {
	Post   PostView `json:"post"`
	Reason *Reason  `json:"reason,omitempty"`
}

// Reason explains why an item appears in the feed, e.g. a repost
type Reason struct {
	Type string       `json:"$type"`
	By   *ProfileView `json:"by,omitempty"`
}

// PostView is the hydrated post as returned by the app view
type PostView struct {
	URI         string          `json:"uri"`
	CID         string          `json:"cid"`
	Author      ProfileView     `json:"author"`
	Record      PostRecord      `json:"record"`
	Embed       json.RawMessage `json:"embed,omitempty"`
	ReplyCount  *int            `json:"replyCount,omitempty"`
	RepostCount *int            `json:"repostCount,omitempty"`
	LikeCount   *int            `json:"likeCount,omitempty"`
	QuoteCount  *int            `json:"quoteCount,omitempty"`
	IndexedAt   string          `json:"indexedAt,omitempty"`
}

// ProfileView is the basic author profile attached to posts
type ProfileView struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// PostRecord is the authored app.bsky.feed.post record
type PostRecord struct {
	Type      string          `json:"$type,omitempty"`
	Text      string          `json:"text"`
	CreatedAt string          `json:"createdAt"`
	Reply     *ReplyRef       `json:"reply,omitempty"`
	Embed     json.RawMessage `json:"embed,omitempty"`
}

// ReplyRef points to the thread root and the direct parent of a reply
type ReplyRef struct {
	Root   *PostRef `json:"root,omitempty"`
	Parent *PostRef `json:"parent,omitempty"`
}

// PostRef is a strong reference to a record
type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Embed is the union of all embed shapes, both the live view (#view) and
// authored record variants. Which fields are set depends on Type.
type Embed struct {
	Type     string         `json:"$type"`
	Images   []EmbedImage   `json:"images,omitempty"`
	External *EmbedExternal `json:"external,omitempty"`
	Record   *EmbedRecord   `json:"record,omitempty"`
	Media    *Embed         `json:"media,omitempty"`
}

// Kind returns the embed discriminator without the "#view" suffix
func (e Embed) Kind() string {
	kind, _, _ := strings.Cut(e.Type, "#")
	return kind
}

// EmbedImage is a single image; view embeds carry URLs, record embeds carry blobs only
type EmbedImage struct {
	Thumb       Link         `json:"thumb,omitempty"`
	Fullsize    Link         `json:"fullsize,omitempty"`
	Alt         string       `json:"alt"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

// AspectRatio as reported upstream
type AspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EmbedExternal is a link card
type EmbedExternal struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumb       Link   `json:"thumb,omitempty"`
}

// EmbedRecord is a quoted record. For record#view it is the viewRecord itself,
// for recordWithMedia#view the quoted viewRecord sits in the nested Record.
type EmbedRecord struct {
	Type   string       `json:"$type,omitempty"`
	URI    string       `json:"uri,omitempty"`
	Author *ProfileView `json:"author,omitempty"`
	Value  *PostRecord  `json:"value,omitempty"`
	Record *EmbedRecord `json:"record,omitempty"`
}

// Link is a URL field which upstream sometimes sends as a blob object instead
// of a string. Anything but a JSON string decodes to empty.
type Link string

// UnmarshalJSON accepts strings and ignores every other JSON value
func (l *Link) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*l = ""
		return nil
	}
	*l = Link(s)
	return nil
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type authorFeedResponse struct {
	Feed   []FeedItem `json:"feed"`
	Cursor string     `json:"cursor,omitempty"`
}
