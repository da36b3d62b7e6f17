package feed

import (
	"encoding/xml"
)

// xml namespaces declared on the rss element, elements below use their prefixes
const (
	nsAtom  = "http://www.w3.org/2005/Atom"
	nsDC    = "http://purl.org/dc/elements/1.1/"
	nsMedia = "http://search.yahoo.com/mrss/"
)

// RSS is the root element of the author feed
type RSS struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	DC      string      `xml:"xmlns:dc,attr"`
	Media   string      `xml:"xmlns:media,attr"`
	Channel *RSSChannel `xml:"channel"`
}

// RSSChannel links to the Bluesky profile, SelfLink points back to the feed url
type RSSChannel struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	SelfLink      *AtomLink  `xml:"atom:link"`
	Generator     string     `xml:"generator,omitempty"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*RSSItem `xml:"item"`
}

// AtomLink is written as atom:link
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// RSSItem is one post
type RSSItem struct {
	Title       string         `xml:"title"`
	Link        string         `xml:"link"`
	GUID        RSSGUID        `xml:"guid"`
	Description string         `xml:"description"`
	Creator     string         `xml:"dc:creator,omitempty"`
	PubDate     string         `xml:"pubDate,omitempty"`
	Categories  []string       `xml:"category"`
	Media       []MediaContent `xml:"media:content"`
}

// RSSGUID is the post permalink, stable across runs
type RSSGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// MediaContent is a post image, width and height carry the aspect ratio only
type MediaContent struct {
	URL    string `xml:"url,attr"`
	Medium string `xml:"medium,attr"`
	Width  int    `xml:"width,attr,omitempty"`
	Height int    `xml:"height,attr,omitempty"`
}
