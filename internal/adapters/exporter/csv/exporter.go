// Package csv exports the annotations of a snapshot as a spreadsheet.
package csv

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"learnsnap/internal/domain"
)

type Exporter struct {
	// Comma is the field separator, ',' when zero.
	Comma rune
}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string    { return "csv" }
func (e *Exporter) Extension() string { return "csv" }

func (e *Exporter) Export(s *domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	_ = w.Write([]string{"id", "type", "start", "end", "xpath", "content", "color", "created_at"})
	for _, a := range s.Annotations {
		_ = w.Write([]string{
			a.ID,
			a.Type,
			strconv.Itoa(a.Range.Start),
			strconv.Itoa(a.Range.End),
			a.Range.XPath,
			a.Content,
			a.Color,
			a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
