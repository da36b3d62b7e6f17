package feed

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/skyfeed/pkg/bluesky"
	"github.com/umputun/skyfeed/pkg/domain"
)

const (
	imagesView = `{"$type":"app.bsky.embed.images#view","images":[
		{"thumb":"https://cdn.bsky.app/t1","fullsize":"https://cdn.bsky.app/f1","alt":"first <img>","aspectRatio":{"width":4,"height":3}},
		{"thumb":"https://cdn.bsky.app/t2","alt":"thumb only"},
		{"thumb":"http://insecure/t3","fullsize":"javascript:alert(1)","alt":"dropped"}]}`

	externalView = `{"$type":"app.bsky.embed.external#view","external":{
		"uri":"https://example.com/post","title":"Title & more","description":" desc ","thumb":"https://cdn.bsky.app/thumb"}}`

	recordView = `{"$type":"app.bsky.embed.record#view","record":{
		"$type":"app.bsky.embed.record#viewRecord","uri":"at://did:plc:q/app.bsky.feed.post/1",
		"author":{"did":"did:plc:q","handle":"quoted.bsky.social","displayName":"Quoted Person"},
		"value":{"$type":"app.bsky.feed.post","text":"quoted <b>text</b>","createdAt":"2024-01-01T00:00:00Z"}}}`

	recordWithMediaView = `{"$type":"app.bsky.embed.recordWithMedia#view",
		"record":{"$type":"app.bsky.embed.record#view","record":{
			"$type":"app.bsky.embed.record#viewRecord","uri":"at://did:plc:q/app.bsky.feed.post/2",
			"author":{"did":"did:plc:q","handle":"quoted.bsky.social"},
			"value":{"text":"nested quote","createdAt":"2024-01-01T00:00:00Z"}}},
		"media":{"$type":"app.bsky.embed.images#view","images":[
			{"thumb":"https://cdn.bsky.app/m1t","fullsize":"https://cdn.bsky.app/m1","alt":"media"}]}}`
)

func postWithEmbed(view, record string) bluesky.PostView {
	p := bluesky.PostView{URI: "at://did:plc:me/app.bsky.feed.post/3k", CID: "cid"}
	if view != "" {
		p.Embed = json.RawMessage(view)
	}
	if record != "" {
		p.Record.Embed = json.RawMessage(record)
	}
	return p
}

func applyEmbed(t *testing.T, e Embed) domain.NormalizedPost {
	t.Helper()
	var p domain.NormalizedPost
	if e != nil {
		e.apply(&p)
	}
	return p
}

func TestParseEmbed_Images(t *testing.T) {
	e, err := ParseEmbed(postWithEmbed(imagesView, ""))
	require.NoError(t, err)
	set, ok := e.(ImageSet)
	require.True(t, ok, "expected ImageSet, got %T", e)
	require.Len(t, set, 2)

	assert.Equal(t, domain.Image{URL: "https://cdn.bsky.app/f1", AltText: "first &lt;img&gt;",
		AspectRatio: domain.AspectRatio{Width: 4, Height: 3}}, set[0])
	assert.Equal(t, domain.Image{URL: "https://cdn.bsky.app/t2", AltText: "thumb only",
		AspectRatio: domain.AspectRatio{Width: 1, Height: 1}}, set[1])

	p := applyEmbed(t, e)
	assert.Len(t, p.Images, 2)
	assert.Nil(t, p.QuotedPost)
	assert.Nil(t, p.ExternalLink)
}

func TestParseEmbed_ImagesAllUnsafe(t *testing.T) {
	e, err := ParseEmbed(postWithEmbed(`{"$type":"app.bsky.embed.images#view","images":[{"fullsize":"http://x/y","alt":""}]}`, ""))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseEmbed_External(t *testing.T) {
	e, err := ParseEmbed(postWithEmbed(externalView, ""))
	require.NoError(t, err)
	p := applyEmbed(t, e)
	require.NotNil(t, p.ExternalLink)
	assert.Equal(t, domain.ExternalLink{URL: "https://example.com/post", Title: "Title &amp; more",
		Description: "desc", ThumbnailURL: "https://cdn.bsky.app/thumb"}, *p.ExternalLink)
	assert.Empty(t, p.Images)

	t.Run("unsafe url dropped", func(t *testing.T) {
		e, err := ParseEmbed(postWithEmbed(`{"$type":"app.bsky.embed.external#view","external":{"uri":"http://example.com","title":"t"}}`, ""))
		require.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("record form with blob thumb", func(t *testing.T) {
		rec := `{"$type":"app.bsky.embed.external","external":{"uri":"https://example.com","title":"t",
			"description":"","thumb":{"$type":"blob","ref":{"$link":"bafk"},"mimeType":"image/jpeg","size":10}}}`
		e, err := ParseEmbed(postWithEmbed("", rec))
		require.NoError(t, err)
		p := applyEmbed(t, e)
		require.NotNil(t, p.ExternalLink)
		assert.Equal(t, "https://example.com", p.ExternalLink.URL)
		assert.Empty(t, p.ExternalLink.ThumbnailURL)
		assert.Empty(t, p.ExternalLink.Description)
	})
}

func TestParseEmbed_Quote(t *testing.T) {
	e, err := ParseEmbed(postWithEmbed(recordView, ""))
	require.NoError(t, err)
	p := applyEmbed(t, e)
	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, domain.QuotedPost{Text: "quoted &lt;b&gt;text&lt;/b&gt;", AuthorName: "Quoted Person",
		AuthorHandle: "quoted.bsky.social"}, *p.QuotedPost)
	assert.Empty(t, p.Images)
}

func TestParseEmbed_QuoteAuthorFallback(t *testing.T) {
	tbl := []struct {
		name       string
		author     string
		wantName   string
		wantHandle string
	}{
		{"full author", `"author":{"handle":"h.bsky.social","displayName":"Name"},`, "Name", "h.bsky.social"},
		{"no display name", `"author":{"handle":"h.bsky.social"},`, "h.bsky.social", "h.bsky.social"},
		{"empty author", `"author":{},`, "Quoted post", ""},
		{"no author", ``, "Quoted post", ""},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			view := `{"$type":"app.bsky.embed.record#view","record":{` + tt.author + `"value":{"text":"q"}}}`
			e, err := ParseEmbed(postWithEmbed(view, ""))
			require.NoError(t, err)
			p := applyEmbed(t, e)
			require.NotNil(t, p.QuotedPost)
			assert.Equal(t, tt.wantName, p.QuotedPost.AuthorName)
			assert.Equal(t, tt.wantHandle, p.QuotedPost.AuthorHandle)
		})
	}
}

func TestParseEmbed_QuoteWithoutValue(t *testing.T) {
	notFound := `{"$type":"app.bsky.embed.record#view","record":{"$type":"app.bsky.embed.record#viewNotFound","uri":"at://x/y/z","notFound":true}}`
	e, err := ParseEmbed(postWithEmbed(notFound, ""))
	require.NoError(t, err)
	assert.Nil(t, e)

	// authored record embed is a strong ref only
	strongRef := `{"$type":"app.bsky.embed.record","record":{"uri":"at://x/y/z","cid":"c"}}`
	e, err = ParseEmbed(postWithEmbed("", strongRef))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseEmbed_QuoteWithMedia(t *testing.T) {
	e, err := ParseEmbed(postWithEmbed(recordWithMediaView, ""))
	require.NoError(t, err)
	qm, ok := e.(QuoteWithMedia)
	require.True(t, ok, "expected QuoteWithMedia, got %T", e)
	require.NotNil(t, qm.Quote)

	p := applyEmbed(t, e)
	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, "nested quote", p.QuotedPost.Text)
	assert.Equal(t, "quoted.bsky.social", p.QuotedPost.AuthorName)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://cdn.bsky.app/m1", p.Images[0].URL)
	assert.Nil(t, p.ExternalLink)

	t.Run("top level and media images are merged", func(t *testing.T) {
		view := `{"$type":"app.bsky.embed.recordWithMedia#view",
			"images":[{"fullsize":"https://cdn.bsky.app/top","alt":"top"}],
			"record":{"record":{"value":{"text":"q"}}},
			"media":{"$type":"app.bsky.embed.images#view","images":[{"fullsize":"https://cdn.bsky.app/m","alt":"m"}]}}`
		e, err := ParseEmbed(postWithEmbed(view, ""))
		require.NoError(t, err)
		p := applyEmbed(t, e)
		require.Len(t, p.Images, 2)
		assert.Equal(t, "https://cdn.bsky.app/top", p.Images[0].URL)
		assert.Equal(t, "https://cdn.bsky.app/m", p.Images[1].URL)
		assert.NotNil(t, p.QuotedPost)
	})

	t.Run("external media", func(t *testing.T) {
		view := `{"$type":"app.bsky.embed.recordWithMedia#view",
			"record":{"record":{"author":{"handle":"a.b"},"value":{"text":"q"}}},
			"media":{"$type":"app.bsky.embed.external#view","external":{"uri":"https://example.com/x","title":"x"}}}`
		e, err := ParseEmbed(postWithEmbed(view, ""))
		require.NoError(t, err)
		p := applyEmbed(t, e)
		require.NotNil(t, p.QuotedPost)
		require.NotNil(t, p.ExternalLink)
		assert.Equal(t, "https://example.com/x", p.ExternalLink.URL)
		assert.Empty(t, p.Images)
	})

	t.Run("nothing usable", func(t *testing.T) {
		view := `{"$type":"app.bsky.embed.recordWithMedia#view","record":{"record":{"uri":"at://x"}},"media":{"$type":"app.bsky.embed.video#view"}}`
		e, err := ParseEmbed(postWithEmbed(view, ""))
		require.NoError(t, err)
		assert.Nil(t, e)
	})
}

func TestParseEmbed_SourcePriority(t *testing.T) {
	t.Run("view wins over record", func(t *testing.T) {
		rec := `{"$type":"app.bsky.embed.external","external":{"uri":"https://record.example.com"}}`
		e, err := ParseEmbed(postWithEmbed(imagesView, rec))
		require.NoError(t, err)
		p := applyEmbed(t, e)
		assert.Len(t, p.Images, 2)
		assert.Nil(t, p.ExternalLink)
	})

	t.Run("record used without view", func(t *testing.T) {
		rec := `{"$type":"app.bsky.embed.external","external":{"uri":"https://record.example.com"}}`
		e, err := ParseEmbed(postWithEmbed("null", rec))
		require.NoError(t, err)
		p := applyEmbed(t, e)
		require.NotNil(t, p.ExternalLink)
		assert.Equal(t, "https://record.example.com", p.ExternalLink.URL)
	})

	t.Run("no embed", func(t *testing.T) {
		e, err := ParseEmbed(postWithEmbed("", ""))
		require.NoError(t, err)
		assert.Nil(t, e)
	})
}

func TestParseEmbed_Unrecognized(t *testing.T) {
	for _, view := range []string{
		`{"$type":"app.bsky.embed.video#view","playlist":"https://video/x.m3u8"}`,
		`{"$type":"","images":[{"fullsize":"https://cdn/x"}]}`,
		`{"images":[{"fullsize":"https://cdn/x"}]}`,
	} {
		e, err := ParseEmbed(postWithEmbed(view, ""))
		require.NoError(t, err, view)
		p := applyEmbed(t, e)
		assert.Empty(t, p.Images, view)
		assert.Nil(t, p.QuotedPost, view)
		assert.Nil(t, p.ExternalLink, view)
	}
}

func TestParseEmbed_Malformed(t *testing.T) {
	_, err := ParseEmbed(postWithEmbed(`{"$type":42}`, ""))
	require.Error(t, err)
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "at://did:plc:me/app.bsky.feed.post/3k", nerr.URI)
}
