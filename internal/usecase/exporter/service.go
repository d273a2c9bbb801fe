package exporter

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	exreg "learnsnap/internal/adapters/exporter/registry"
	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

type Service struct {
	Snapshots ports.SnapshotRepository
	Reg       *exreg.Registry
	// Dir receives files written by WriteFile.
	Dir string
}

func New(snapshots ports.SnapshotRepository, reg *exreg.Registry, dir string) *Service {
	return &Service{Snapshots: snapshots, Reg: reg, Dir: dir}
}

type ExportResult struct {
	Filename string
	Content  []byte
}

// Export renders s in the given format and names the artifact "<date>_<slug>.<ext>".
func (s *Service) Export(_ context.Context, snap *domain.Snapshot, format string) (ExportResult, error) {
	if snap == nil {
		return ExportResult{}, fmt.Errorf("export: %w", domain.ErrInvalidPayload)
	}
	exp, ok := s.Reg.Get(format)
	if !ok {
		return ExportResult{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	content, err := exp.Export(snap)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export %s as %s: %w", snap.ID, format, err)
	}
	return ExportResult{Filename: Filename(snap, exp.Extension()), Content: content}, nil
}

// WriteFile exports snap into the export directory and returns the written path.
func (s *Service) WriteFile(ctx context.Context, snap *domain.Snapshot, format string) (string, error) {
	res, err := s.Export(ctx, snap, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("make export dir: %w", err)
	}
	path := filepath.Join(s.Dir, res.Filename)
	if err := os.WriteFile(path, res.Content, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// ExportByID loads the snapshot and returns the artifact base64-encoded for transport.
func (s *Service) ExportByID(ctx context.Context, id, format string) (*domain.ExportFile, error) {
	snap, err := s.Snapshots.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("export %s: %w", id, domain.ErrSnapshotNotFound)
	}
	res, err := s.Export(ctx, snap, format)
	if err != nil {
		return nil, err
	}
	return &domain.ExportFile{Filename: res.Filename, ContentBase64: base64.StdEncoding.EncodeToString(res.Content)}, nil
}

var (
	unsafeChars = regexp.MustCompile(`[/\\?%*:|"<>]`)
	spaces      = regexp.MustCompile(`\s+`)
)

const maxSlug = 50

// Filename builds "<YYYY-MM-DD>_<slug>.<ext>" from the capture date and title.
func Filename(s *domain.Snapshot, ext string) string {
	return s.CapturedDate() + "_" + Slug(s.Title) + "." + ext
}

// Slug lowercases title, drops characters that are unsafe in file names, turns whitespace
// runs into dashes and truncates to 50 characters.
func Slug(title string) string {
	slug := strings.ToLower(title)
	slug = unsafeChars.ReplaceAllString(slug, "")
	slug = spaces.ReplaceAllString(slug, "-")
	if r := []rune(slug); len(r) > maxSlug {
		slug = string(r[:maxSlug])
	}
	return slug
}
