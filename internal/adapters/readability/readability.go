// Package readability detects the main article of a page with go-readability.
package readability

import (
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"learnsnap/internal/ports"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

// Parse returns nil, nil when the document holds no article content.
func (p *Parser) Parse(ctx context.Context, html string, pageURL *url.URL) (*ports.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, nil
	}
	return &ports.Article{
		Title:       article.Title,
		ContentHTML: article.Content,
		TextContent: article.TextContent,
		Byline:      article.Byline,
		Excerpt:     article.Excerpt,
		Lang:        article.Language,
	}, nil
}
