package app

import (
	"context"
	"encoding/base64"
	"fmt"

	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

type ExportAPI struct{ bg *transport.Client }

func NewExportAPI(bg *transport.Client) *ExportAPI { return &ExportAPI{bg: bg} }

type ExportFileRequest struct {
	ID     string `json:"id"`
	Format string `json:"format"`
}

type ExportFileResponse struct {
	Filename   string `json:"filename"`
	ContentB64 string `json:"content_b64"`
}

func (a *ExportAPI) ExportFileBase64(ctx context.Context, req ExportFileRequest) (ExportFileResponse, error) {
	var f domain.ExportFile
	if err := a.bg.Call(ctx, domain.KindExportSnapshot, domain.ExportRequest{ID: req.ID, Format: req.Format}, &f); err != nil {
		return ExportFileResponse{}, err
	}
	return ExportFileResponse{Filename: f.Filename, ContentB64: f.ContentBase64}, nil
}

// ExportFile returns the decoded artifact.
func (a *ExportAPI) ExportFile(ctx context.Context, req ExportFileRequest) (string, []byte, error) {
	res, err := a.ExportFileBase64(ctx, req)
	if err != nil {
		return "", nil, err
	}
	b, err := base64.StdEncoding.DecodeString(res.ContentB64)
	if err != nil {
		return "", nil, fmt.Errorf("decode export content: %w", err)
	}
	return res.Filename, b, nil
}

// ToObsidian loads the snapshot and writes it into the vault export directory.
func (a *ExportAPI) ToObsidian(ctx context.Context, id string) (domain.ExportResult, error) {
	var snap *domain.Snapshot
	if err := a.bg.Call(ctx, domain.KindGetSnapshot, id, &snap); err != nil {
		return domain.ExportResult{}, err
	}
	if snap == nil {
		return domain.ExportResult{}, fmt.Errorf("export %s: %w", id, domain.ErrSnapshotNotFound)
	}
	var res domain.ExportResult
	if err := a.bg.Call(ctx, domain.KindExportObsidian, snap, &res); err != nil {
		return domain.ExportResult{}, err
	}
	return res, nil
}
