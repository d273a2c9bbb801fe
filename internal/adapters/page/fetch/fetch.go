// Package fetch loads a page over plain HTTP, without running scripts.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"learnsnap/internal/domain"
)

type Page struct {
	URL  string
	http *resty.Client
}

func New(url string, timeout time.Duration) *Page {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; learnsnap/1.0)").
		SetHeader("Accept", "text/html,application/xhtml+xml")
	return &Page{URL: url, http: c}
}

// Snapshot downloads the page. The reported URL is the final one after redirects.
func (p *Page) Snapshot(ctx context.Context) (domain.DOMSnapshot, error) {
	rr, err := p.http.R().SetContext(ctx).Get(p.URL)
	if err != nil {
		return domain.DOMSnapshot{}, fmt.Errorf("load %s: %w", p.URL, err)
	}
	if !rr.IsSuccess() {
		return domain.DOMSnapshot{}, fmt.Errorf("load %s: %s", p.URL, rr.Status())
	}
	final := p.URL
	if rr.RawResponse != nil && rr.RawResponse.Request != nil {
		final = rr.RawResponse.Request.URL.String()
	}
	return domain.DOMSnapshot{HTML: rr.String(), URL: final}, nil
}
