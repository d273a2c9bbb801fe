package extractor

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnsnap/internal/adapters/readability"
	"learnsnap/internal/adapters/sanitize"
	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

const pageHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <title>Test Page Title</title>
    <link rel="icon" href="/favicon.ico">
    <meta name="description" content="A page about tests">
    <meta property="article:published_time" content="2024-02-03T04:05:06Z">
  </head>
  <body>
    <header><h1>Ignore this</h1></header>
    <article><h1>Real Article Title</h1><p>This is the first paragraph.</p></article>
  </body>
</html>`

type fakeReadability struct {
	article *ports.Article
	err     error
	gotURL  *url.URL
}

func (f *fakeReadability) Parse(_ context.Context, _ string, u *url.URL) (*ports.Article, error) {
	f.gotURL = u
	return f.article, f.err
}

type fakeFetcher struct {
	bodies map[string]string
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, u string) ([]byte, string, error) {
	f.calls = append(f.calls, u)
	b, ok := f.bodies[u]
	if !ok {
		return nil, "", errors.New("404 Not Found")
	}
	return []byte(b), "image/png", nil
}

var fixed = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newExtractor(r ports.Readability, f ports.ResourceFetcher) *Extractor {
	return New(Deps{Readability: r, Sanitizer: sanitize.New(), Resources: f, Now: func() time.Time { return fixed }})
}

func TestExtract_BuildsDraft(t *testing.T) {
	r := &fakeReadability{article: &ports.Article{
		ContentHTML: `<div><h2>Real Article Title</h2><p>This is the first paragraph.</p>` +
			`<img src="https://example.com/image.png" alt="a"><img src="//cdn.example.com/b.png"><img src="/local.png"></div>`,
		TextContent: "Real Article Title\n This is the first paragraph.",
	}}
	f := &fakeFetcher{bodies: map[string]string{
		"https://example.com/image.png": "abc",
		"https://cdn.example.com/b.png": "xyz",
	}}

	d, err := newExtractor(r, f).Extract(context.Background(), domain.DOMSnapshot{HTML: pageHTML, URL: "https://example.com/article"})
	require.NoError(t, err)

	assert.Equal(t, "Test Page Title", d.Title)
	assert.Equal(t, "https://example.com/article", d.URL)
	assert.Equal(t, "en", d.Metadata.Language)
	assert.Equal(t, "https://example.com/favicon.ico", d.Metadata.Favicon)
	assert.Equal(t, "A page about tests", d.Metadata.Description)
	assert.Equal(t, "2024-02-03T04:05:06Z", d.Metadata.PublishDate)
	assert.Equal(t, "2024-05-06T07:08:09Z", d.Metadata.CapturedAt)
	assert.Equal(t, 8, d.Metadata.WordCount)
	assert.Equal(t, []string{domain.DefaultCategory}, d.Categories)
	assert.Equal(t, []string{}, d.Tags)
	assert.Equal(t, []domain.Annotation{}, d.Annotations)
	assert.Equal(t, 0, d.Rating)

	assert.Contains(t, d.Content.HTML, "<h2>Real Article Title</h2>")
	assert.Contains(t, d.Content.HTML, `src="data:image/png;base64,YWJj"`)
	assert.Contains(t, d.Content.HTML, `src="data:image/png;base64,eHl6"`)
	assert.Contains(t, d.Content.HTML, `src="/local.png"`)
	assert.NotContains(t, d.Content.HTML, "https://example.com/image.png")
	assert.NotContains(t, d.Content.Text, "Ignore this")
	assert.Equal(t, []string{"https://example.com/image.png", "https://cdn.example.com/b.png"}, f.calls, "fetched in document order")
	assert.Equal(t, "https://example.com/article", r.gotURL.String())
}

func TestExtract_ImageFailureKeepsSource(t *testing.T) {
	r := &fakeReadability{article: &ports.Article{
		Title:       "T",
		ContentHTML: `<p>one two</p><img src="https://down.example.com/x.png"><img src="https://example.com/ok.png">`,
		TextContent: "one two",
	}}
	f := &fakeFetcher{bodies: map[string]string{"https://example.com/ok.png": "ok"}}

	d, err := newExtractor(r, f).Extract(context.Background(), domain.DOMSnapshot{HTML: pageHTML, URL: "https://example.com/"})
	require.NoError(t, err)
	assert.Contains(t, d.Content.HTML, `src="https://down.example.com/x.png"`)
	assert.Contains(t, d.Content.HTML, `src="data:image/png;base64,b2s="`)
	assert.Equal(t, "T", d.Title)
	assert.Equal(t, 2, d.Metadata.WordCount)
}

func TestExtract_WithReadability(t *testing.T) {
	body := strings.Repeat("Goroutines are lightweight threads managed by the Go runtime, and channels let them communicate without sharing memory. ", 6)
	html := `<!DOCTYPE html>
<html lang="en">
<head><title>Test Page Title</title></head>
<body>
  <header><nav><a href="/">Home</a> <a href="/about">About</a></nav><h1>Ignore this</h1></header>
  <main>
    <article>
      <h1>Real Article Title</h1>
      <p>This is the first paragraph of the article. ` + body + `</p>
      <img src="https://example.com/image.png" alt="Test Image">
      <p>This is the second paragraph. ` + body + `</p>
    </article>
  </main>
</body>
</html>`
	f := &fakeFetcher{bodies: map[string]string{"https://example.com/image.png": "abc"}}
	ex := New(Deps{Readability: readability.New(), Sanitizer: sanitize.New(), Resources: f, Now: func() time.Time { return fixed }})

	d, err := ex.Extract(context.Background(), domain.DOMSnapshot{HTML: html, URL: "https://example.com/article"})
	require.NoError(t, err)

	assert.Contains(t, d.Content.Text, "This is the first paragraph")
	assert.Contains(t, d.Content.Text, "This is the second paragraph")
	assert.NotContains(t, d.Content.Text, "Ignore this")
	assert.NotContains(t, d.Content.HTML, "Ignore this")
	assert.Equal(t, len(strings.Fields(d.Content.Text)), d.Metadata.WordCount)
	assert.Contains(t, d.Content.HTML, `src="data:image/png;base64,YWJj"`)
	assert.NotContains(t, d.Content.HTML, `src="https://example.com/image.png"`)
	assert.Equal(t, []string{"https://example.com/image.png"}, f.calls)
	assert.Equal(t, "en", d.Metadata.Language)
}

func TestRemoteImage(t *testing.T) {
	page, _ := url.Parse("http://example.com/post")
	cases := []struct {
		src    string
		want   string
		remote bool
	}{
		{"https://example.com/a.png", "https://example.com/a.png", true},
		{"HTTP://example.com/b.png", "http://example.com/b.png", true},
		{"//cdn.example.com/c.png", "http://cdn.example.com/c.png", true},
		{"httpdocs/d.png", "", false},
		{"/local.png", "", false},
		{"data:image/png;base64,AAAA", "", false},
	}
	for _, tc := range cases {
		got, ok := remoteImage(tc.src, page)
		assert.Equal(t, tc.remote, ok, tc.src)
		assert.Equal(t, tc.want, got, tc.src)
	}
}

func TestExtract_NoArticle(t *testing.T) {
	_, err := newExtractor(&fakeReadability{}, &fakeFetcher{}).Extract(context.Background(), domain.DOMSnapshot{HTML: "<html></html>", URL: "https://example.com/"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	_, err = newExtractor(&fakeReadability{err: errors.New("bad markup")}, &fakeFetcher{}).Extract(context.Background(), domain.DOMSnapshot{HTML: "<html></html>", URL: "https://example.com/"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "bad markup")
}

func TestExtract_ArticleFieldsWin(t *testing.T) {
	r := &fakeReadability{article: &ports.Article{
		Title:       "Article",
		ContentHTML: "<p>x</p>",
		TextContent: "",
		Byline:      " Ada ",
		Excerpt:     "excerpt",
		Lang:        "de",
	}}
	d, err := newExtractor(r, &fakeFetcher{}).Extract(context.Background(), domain.DOMSnapshot{HTML: pageHTML, URL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "Article", d.Title)
	assert.Equal(t, "Ada", d.Metadata.Author)
	assert.Equal(t, "excerpt", d.Metadata.Description)
	assert.Equal(t, "de", d.Metadata.Language)
	assert.Equal(t, "x", d.Content.Text)
	assert.Equal(t, 1, d.Metadata.WordCount)
	assert.False(t, strings.Contains(d.Content.HTML, "<html"))
}
