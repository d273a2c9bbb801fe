// Package jsonexp exports the full snapshot record as indented JSON.
package jsonexp

import (
	"encoding/json"

	"learnsnap/internal/domain"
)

type Exporter struct{}

func New() *Exporter { return &Exporter{} }

func (e *Exporter) Format() string    { return "json" }
func (e *Exporter) Extension() string { return "json" }

func (e *Exporter) Export(s *domain.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
