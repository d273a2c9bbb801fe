package domain

import (
	"strings"
	"time"
)

// DefaultCategory is assigned to every freshly extracted draft.
const DefaultCategory = "Uncategorized"

type Content struct {
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

type Metadata struct {
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Description string `json:"description,omitempty"`
	CapturedAt  string `json:"capturedAt"` // RFC 3339
	WordCount   int    `json:"wordCount"`
	Language    string `json:"language"`
}

// SnapshotDraft is an extracted page that has not been given an identity yet.
type SnapshotDraft struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Content     Content      `json:"content"`
	Metadata    Metadata     `json:"metadata"`
	Annotations []Annotation `json:"annotations"`
	Categories  []string     `json:"categories"`
	Tags        []string     `json:"tags,omitempty"`
	Rating      int          `json:"rating,omitempty"`
}

type Snapshot struct {
	ID string `json:"id"`
	SnapshotDraft
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CapturedDate returns the YYYY-MM-DD part of the capture timestamp.
func (s *Snapshot) CapturedDate() string {
	if t, err := time.Parse(time.RFC3339, s.Metadata.CapturedAt); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	if len(s.Metadata.CapturedAt) >= 10 {
		return s.Metadata.CapturedAt[:10]
	}
	return s.CreatedAt.UTC().Format("2006-01-02")
}

// SnapshotUpdate carries the user-editable fields of a snapshot. Nil fields are left unchanged.
type SnapshotUpdate struct {
	ID         string    `json:"id"`
	Title      *string   `json:"title,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Rating     *int      `json:"rating,omitempty"`
}

type SnapshotQuery struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
}

type Range struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	XPath string `json:"xpath,omitempty"`
}

type Annotation struct {
	ID         string    `json:"id"`
	SnapshotID string    `json:"snapshotId"`
	Type       string    `json:"type"` // highlight | note
	Range      Range     `json:"range"`
	Content    string    `json:"content"`
	Color      string    `json:"color,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DOMSnapshot is the serialized document a tab hands to the extractor.
type DOMSnapshot struct {
	HTML string
	URL  string
}

// Matches reports whether query occurs in the title, text or description, ignoring case.
func (s *Snapshot) Matches(query string) bool {
	needle := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Title), needle) ||
		strings.Contains(strings.ToLower(s.Content.Text), needle) ||
		strings.Contains(strings.ToLower(s.Metadata.Description), needle)
}
