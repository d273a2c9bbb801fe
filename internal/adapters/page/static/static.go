// Package static serves a fixed document, e.g. a saved HTML file.
package static

import (
	"context"
	"fmt"
	"os"

	"learnsnap/internal/domain"
)

type Page struct {
	HTML string
	URL  string
}

func New(html, url string) *Page { return &Page{HTML: html, URL: url} }

// FromFile reads the document at path. url is reported as its address.
func FromFile(path, url string) (*Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}
	return New(string(b), url), nil
}

func (p *Page) Snapshot(context.Context) (domain.DOMSnapshot, error) {
	return domain.DOMSnapshot{HTML: p.HTML, URL: p.URL}, nil
}
