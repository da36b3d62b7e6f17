package feed

import (
	"encoding/json"
	"fmt"

	"github.com/umputun/skyfeed/pkg/bluesky"
	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/sanitize"
)

// quotedFallbackName is used when a quoted post has neither display name nor handle
const quotedFallbackName = "Quoted post"

// Embed is a normalized post embed, one of ImageSet, ExternalCard, QuotedRecord
// or QuoteWithMedia. A nil Embed means the post has no (recognized) embed.
type Embed interface {
	apply(p *domain.NormalizedPost)
}

// ImageSet is a non-empty list of images with usable URLs
type ImageSet []domain.Image

// ExternalCard is a link card with a usable URL
type ExternalCard domain.ExternalLink

// QuotedRecord is a quoted post
type QuotedRecord domain.QuotedPost

// QuoteWithMedia is a quote carrying its own media, Media is ImageSet, ExternalCard or nil
type QuoteWithMedia struct {
	Quote *QuotedRecord
	Media Embed
}

func (s ImageSet) apply(p *domain.NormalizedPost) { p.Images = append(p.Images, s...) }

func (c ExternalCard) apply(p *domain.NormalizedPost) {
	link := domain.ExternalLink(c)
	p.ExternalLink = &link
}

func (q QuotedRecord) apply(p *domain.NormalizedPost) {
	quoted := domain.QuotedPost(q)
	p.QuotedPost = &quoted
}

func (m QuoteWithMedia) apply(p *domain.NormalizedPost) {
	if m.Quote != nil {
		m.Quote.apply(p)
	}
	if m.Media != nil {
		m.Media.apply(p)
	}
}

// NormalizationError reports a single post which could not be mapped.
// It never fails the whole batch.
type NormalizationError struct {
	URI string
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize post %s: %v", e.URI, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ParseEmbed picks the embed of a post, live view first and the authored record
// second, and maps it to an Embed. Unknown or absent embeds give nil, malformed ones an error.
func ParseEmbed(post bluesky.PostView) (Embed, error) {
	raw := post.Embed
	if isEmptyJSON(raw) {
		raw = post.Record.Embed
	}
	if isEmptyJSON(raw) {
		return nil, nil
	}

	var e bluesky.Embed
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, &NormalizationError{URI: post.URI, Err: fmt.Errorf("decode embed: %w", err)}
	}
	return normalizeEmbed(e), nil
}

// normalizeEmbed dispatches on the embed discriminator
func normalizeEmbed(e bluesky.Embed) Embed {
	switch e.Kind() {
	case bluesky.KindImages:
		if set := imageSet(e.Images); len(set) > 0 {
			return set
		}
	case bluesky.KindExternal:
		if card, ok := externalCard(e.External); ok {
			return card
		}
	case bluesky.KindRecord:
		if q := quotedRecord(e.Record); q != nil {
			return *q
		}
	case bluesky.KindRecordWithMedia:
		return quoteWithMedia(e)
	}
	return nil
}

func imageSet(images []bluesky.EmbedImage) ImageSet {
	res := make(ImageSet, 0, len(images))
	for _, img := range images {
		src := img.Fullsize
		if src == "" {
			src = img.Thumb
		}
		u := sanitize.URL(string(src))
		if u == "" {
			continue
		}
		ratio := domain.AspectRatio{Width: 1, Height: 1}
		if img.AspectRatio != nil && img.AspectRatio.Width > 0 && img.AspectRatio.Height > 0 {
			ratio = domain.AspectRatio{Width: img.AspectRatio.Width, Height: img.AspectRatio.Height}
		}
		res = append(res, domain.Image{URL: u, AltText: sanitize.Text(img.Alt), AspectRatio: ratio})
	}
	return res
}

func externalCard(ext *bluesky.EmbedExternal) (ExternalCard, bool) {
	if ext == nil {
		return ExternalCard{}, false
	}
	u := sanitize.URL(ext.URI)
	if u == "" {
		return ExternalCard{}, false
	}
	return ExternalCard{
		URL:          u,
		Title:        sanitize.Text(ext.Title),
		Description:  sanitize.Text(ext.Description),
		ThumbnailURL: sanitize.URL(string(ext.Thumb)),
	}, true
}

// quotedRecord maps a quoted view record, nil if it has no value payload
// (not found, blocked, or an authored strong ref without a view)
func quotedRecord(rec *bluesky.EmbedRecord) *QuotedRecord {
	if rec == nil || rec.Value == nil {
		return nil
	}
	var handle, name string
	if rec.Author != nil {
		handle = sanitize.Text(rec.Author.Handle)
		name = sanitize.Text(rec.Author.DisplayName)
	}
	if name == "" {
		name = handle
	}
	if name == "" {
		name = quotedFallbackName
	}
	return &QuotedRecord{Text: sanitize.Text(rec.Value.Text), AuthorName: name, AuthorHandle: handle}
}

// quoteWithMedia applies the quote rule to the nested record and the image/link
// rules to the media. Top-level images, if any, go before the media images.
func quoteWithMedia(e bluesky.Embed) Embed {
	res := QuoteWithMedia{}
	if e.Record != nil {
		// the quoted view record is nested one level down, record#view -> viewRecord
		res.Quote = quotedRecord(e.Record.Record)
		if res.Quote == nil {
			res.Quote = quotedRecord(e.Record)
		}
	}

	images := imageSet(e.Images)
	if e.Media != nil {
		switch media := normalizeEmbed(*e.Media).(type) {
		case ImageSet:
			images = append(images, media...)
		case ExternalCard:
			res.Media = media
		}
	}
	if res.Media == nil && len(images) > 0 {
		res.Media = images
	}

	if res.Quote == nil && res.Media == nil {
		return nil
	}
	return res
}

func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
