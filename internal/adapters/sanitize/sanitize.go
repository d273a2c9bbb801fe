// Package sanitize strips scripts, handlers and other unsafe markup from extracted article HTML.
package sanitize

import "github.com/microcosm-cc/bluemonday"

type Policy struct{ p *bluemonday.Policy }

// New returns the user-generated-content policy with inline data images allowed.
func New() *Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	return &Policy{p: p}
}

func (s *Policy) Sanitize(html string) string { return s.p.Sanitize(html) }
