// Package headless renders a page in headless Chrome so script-built content is captured.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"learnsnap/internal/domain"
)

type Page struct {
	URL     string
	Timeout time.Duration
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string
}

func New(url string, timeout time.Duration) *Page {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Page{URL: url, Timeout: timeout}
}

func (p *Page) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}
	return opts
}

func (p *Page) Snapshot(ctx context.Context) (domain.DOMSnapshot, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, p.allocatorOptions()...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()
	taskCtx, cancel := context.WithTimeout(taskCtx, p.Timeout)
	defer cancel()

	var html, location string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(p.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		return domain.DOMSnapshot{}, fmt.Errorf("render %s: %w", p.URL, err)
	}
	if location == "" {
		location = p.URL
	}
	return domain.DOMSnapshot{HTML: html, URL: location}, nil
}
