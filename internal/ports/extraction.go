package ports

import (
	"context"
	"net/url"

	"learnsnap/internal/domain"
)

// Article is what a readability algorithm reports for a document.
type Article struct {
	Title       string
	ContentHTML string
	TextContent string
	Byline      string
	Excerpt     string
	Lang        string
}

// Readability detects the main article of a document. A nil article means nothing usable was found.
type Readability interface {
	Parse(ctx context.Context, html string, pageURL *url.URL) (*Article, error)
}

// ResourceFetcher downloads a remote resource, returning its body and MIME type.
type ResourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// PageSource yields the current document of a tab.
type PageSource interface {
	Snapshot(ctx context.Context) (domain.DOMSnapshot, error)
}

// Sanitizer strips unsafe markup from extracted HTML.
type Sanitizer interface {
	Sanitize(html string) string
}
