// Package extractor turns a serialized page into a snapshot draft.
package extractor

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"learnsnap/internal/domain"
	"learnsnap/internal/metrics"
	"learnsnap/internal/ports"
)

type Deps struct {
	Readability ports.Readability
	Sanitizer   ports.Sanitizer // optional
	Resources   ports.ResourceFetcher
	Now         func() time.Time
	Logger      *slog.Logger
}

type Extractor struct{ d Deps }

func New(d Deps) *Extractor {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Extractor{d: d}
}

// Extract works on its own parse of page.HTML, so the source document is never touched.
func (e *Extractor) Extract(ctx context.Context, page domain.DOMSnapshot) (*domain.SnapshotDraft, error) {
	pageURL, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: page url: %v", domain.ErrExtractionFailed, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", domain.ErrExtractionFailed, err)
	}
	article, err := e.d.Readability.Parse(ctx, page.HTML, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if article == nil {
		return nil, fmt.Errorf("%w: no readable content", domain.ErrExtractionFailed)
	}

	body := article.ContentHTML
	if e.d.Sanitizer != nil {
		body = e.d.Sanitizer.Sanitize(body)
	}
	localized, plain, err := e.localizeImages(ctx, body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		text = plain
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	lang := article.Lang
	if lang == "" {
		lang, _ = doc.Find("html").First().Attr("lang")
	}
	desc := article.Excerpt
	if desc == "" {
		desc, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	}
	published, _ := doc.Find(`meta[property="article:published_time"]`).First().Attr("content")

	return &domain.SnapshotDraft{
		Title:   title,
		URL:     page.URL,
		Content: domain.Content{HTML: localized, Text: text},
		Metadata: domain.Metadata{
			Author:      strings.TrimSpace(article.Byline),
			PublishDate: strings.TrimSpace(published),
			Favicon:     favicon(doc, pageURL),
			Description: strings.TrimSpace(desc),
			CapturedAt:  e.d.Now().UTC().Format(time.RFC3339),
			WordCount:   len(strings.Fields(text)),
			Language:    strings.TrimSpace(lang),
		},
		Annotations: []domain.Annotation{},
		Categories:  []string{domain.DefaultCategory},
		Tags:        []string{},
	}, nil
}

func favicon(doc *goquery.Document, base *url.URL) string {
	for _, sel := range []string{`link[rel="shortcut icon"]`, `link[rel="icon"]`} {
		href, ok := doc.Find(sel).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		return base.ResolveReference(ref).String()
	}
	return ""
}

// remoteImage returns the absolute address of an http(s) or protocol-relative src.
func remoteImage(src string, pageURL *url.URL) (string, bool) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		scheme := pageURL.Scheme
		if scheme == "" {
			scheme = "https"
		}
		return scheme + ":" + src, true
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	}
	return "", false
}

// localizeImages inlines remote images one at a time, in document order. An image that cannot
// be fetched keeps its original src. It returns the rewritten HTML and its plain text.
func (e *Extractor) localizeImages(ctx context.Context, html string, pageURL *url.URL) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		target, ok := remoteImage(src, pageURL)
		if !ok {
			return
		}
		if e.d.Resources == nil {
			return
		}
		data, mimeType, err := e.d.Resources.Fetch(ctx, target)
		if err != nil {
			e.d.Logger.WarnContext(ctx, "could not localize image", "src", src, "err", err)
			metrics.RecordImage(false)
			return
		}
		metrics.RecordImage(true)
		img.SetAttr("src", "data:"+mimeType+";base64,"+base64.StdEncoding.EncodeToString(data))
	})
	body := doc.Find("body").First()
	out, err := body.Html()
	if err != nil {
		return "", "", err
	}
	return out, strings.TrimSpace(body.Text()), nil
}
