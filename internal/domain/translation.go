package domain

import "time"

// TranslateParams is the payload of a TRANSLATE_TEXT request.
type TranslateParams struct {
	Text     string `json:"text"`
	Provider string `json:"provider,omitempty"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// BatchTranslateParams translates either explicit paragraphs or a text that is split on blank lines.
type BatchTranslateParams struct {
	Paragraphs []string `json:"paragraphs,omitempty"`
	Text       string   `json:"text,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	From       string   `json:"from"`
	To         string   `json:"to"`
}

type TranslationResult struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	From       string `json:"from"`
	To         string `json:"to"`
	Provider   string `json:"provider"`
	Timestamp  int64  `json:"timestamp"` // unix millis
}

// CacheKey addresses a cached translation by content. The provider is deliberately absent.
type CacheKey struct {
	Text string
	From string
	To   string
}

type CacheEntry struct {
	Text       string `json:"text"`
	From       string `json:"from"`
	To         string `json:"to"`
	Translated string `json:"translated"`
	Timestamp  int64  `json:"timestamp"`
}

func (e *CacheEntry) Key() CacheKey { return CacheKey{Text: e.Text, From: e.From, To: e.To} }

// Millis converts t to the unix-millisecond timestamps used by translation records.
func Millis(t time.Time) int64 { return t.UnixMilli() }
