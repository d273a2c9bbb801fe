// Package resource downloads page resources such as images for inlining.
package resource

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type Fetcher struct {
	http *resty.Client
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{http: resty.New().SetTimeout(timeout).SetHeader("User-Agent", "learnsnap/1.0")}
}

// Fetch returns the body and MIME type of rawURL. Non-2xx answers and empty bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	rr, err := f.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if !rr.IsSuccess() {
		return nil, "", fmt.Errorf("fetch %s: %s", rawURL, rr.Status())
	}
	body := rr.Body()
	if len(body) == 0 {
		return nil, "", fmt.Errorf("fetch %s: empty body", rawURL)
	}
	ct := rr.Header().Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "" {
		ct = mt
	} else {
		ct = http.DetectContentType(body)
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			ct = mt
		}
	}
	return body, ct, nil
}
