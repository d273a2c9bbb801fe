package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"learnsnap/internal/adapters/tabs"
	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
	"learnsnap/internal/transport"
	"learnsnap/internal/usecase/exporter"
	"learnsnap/internal/usecase/snapshot"
	"learnsnap/internal/usecase/translator"
)

// HealthChecker reports the reachability of every registered provider.
type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]bool
}

type Deps struct {
	Snapshots  *snapshot.Service
	Translator *translator.Service
	Exporter   *exporter.Service
	Tabs       *tabs.Registry
	Bus        *transport.Bus
	Providers  HealthChecker
	Settings   ports.SettingsRepository
	// DefaultProvider is filled into translation requests that name no provider.
	DefaultProvider string
	Logger          *slog.Logger
}

// New builds a router with a handler for every routed message kind.
func New(d Deps) *Router {
	r := newRouter(d.Logger)
	h := &handlers{d: d}

	r.Handle(domain.KindListSnapshots, bare(h.listSnapshots))
	r.Handle(domain.KindGetSnapshot, typed(h.getSnapshot))
	r.Handle(domain.KindDeleteSnapshot, typed(h.deleteSnapshot))
	r.Handle(domain.KindCaptureSnapshot, bare(h.capture))
	r.Handle(domain.KindSaveSnapshot, typed(h.saveSnapshot))
	r.Handle(domain.KindTranslateText, typed(h.translate))
	r.Handle(domain.KindExportObsidian, typed(h.exportObsidian))

	r.Handle(domain.KindSearchSnapshots, typed(h.searchSnapshots))
	r.Handle(domain.KindUpdateSnapshot, typed(h.updateSnapshot))
	r.Handle(domain.KindAddAnnotation, typed(h.addAnnotation))
	r.Handle(domain.KindListCategories, bare(h.listCategories))
	r.Handle(domain.KindCreateCategory, typed(h.createCategory))
	r.Handle(domain.KindTranslateBatch, typed(h.translateBatch))
	r.Handle(domain.KindCheckProviders, bare(h.checkProviders))
	r.Handle(domain.KindExportSnapshot, typed(h.exportSnapshot))
	r.Handle(domain.KindGetSettings, bare(h.getSettings))
	r.Handle(domain.KindUpdateSettings, typed(h.updateSettings))
	return r
}

type handlers struct{ d Deps }

func (h *handlers) listSnapshots(ctx context.Context) (any, error) {
	return h.d.Snapshots.List(ctx)
}

func (h *handlers) getSnapshot(ctx context.Context, id string) (any, error) {
	return h.d.Snapshots.Get(ctx, id)
}

func (h *handlers) deleteSnapshot(ctx context.Context, id string) (any, error) {
	return h.d.Snapshots.Delete(ctx, id)
}

// capture forwards a capture request to the active tab and acknowledges at once. The tab
// saves its result with a separate SAVE_SNAPSHOT_DATA message.
func (h *handlers) capture(ctx context.Context) (any, error) {
	tab, ok := h.d.Tabs.Active()
	if !ok {
		return nil, domain.ErrNoActiveTab
	}
	msg := domain.Message{Type: domain.KindCaptureRequest}
	if err := h.d.Bus.Post(ctx, transport.TabEndpoint(tab.ID), msg); err != nil {
		return nil, fmt.Errorf("capture tab %s: %w", tab.ID, err)
	}
	return domain.CaptureAck{Status: domain.CaptureRequestSent}, nil
}

func (h *handlers) saveSnapshot(ctx context.Context, d domain.SnapshotDraft) (any, error) {
	return h.d.Snapshots.Save(ctx, &d)
}

func (h *handlers) translate(ctx context.Context, p domain.TranslateParams) (any, error) {
	if p.Provider == "" {
		p.Provider = h.d.DefaultProvider
	}
	return h.d.Translator.Translate(ctx, p)
}

func (h *handlers) exportObsidian(ctx context.Context, s domain.Snapshot) (any, error) {
	path, err := h.d.Exporter.WriteFile(ctx, &s, "obsidian")
	if err != nil {
		return nil, err
	}
	return domain.ExportResult{Success: true, Path: path}, nil
}

func (h *handlers) searchSnapshots(ctx context.Context, q domain.SnapshotQuery) (any, error) {
	return h.d.Snapshots.Search(ctx, q)
}

func (h *handlers) updateSnapshot(ctx context.Context, u domain.SnapshotUpdate) (any, error) {
	return h.d.Snapshots.Update(ctx, &u)
}

func (h *handlers) addAnnotation(ctx context.Context, a domain.Annotation) (any, error) {
	return h.d.Snapshots.AddAnnotation(ctx, &a)
}

func (h *handlers) listCategories(ctx context.Context) (any, error) {
	return h.d.Snapshots.ListCategories(ctx)
}

func (h *handlers) createCategory(ctx context.Context, c domain.Category) (any, error) {
	return h.d.Snapshots.CreateCategory(ctx, &c)
}

func (h *handlers) translateBatch(ctx context.Context, p domain.BatchTranslateParams) (any, error) {
	if p.Provider == "" {
		p.Provider = h.d.DefaultProvider
	}
	return h.d.Translator.Batch(ctx, p)
}

func (h *handlers) checkProviders(ctx context.Context) (any, error) {
	return h.d.Providers.HealthCheck(ctx), nil
}

func (h *handlers) exportSnapshot(ctx context.Context, req domain.ExportRequest) (any, error) {
	if req.Format == "" {
		req.Format = "obsidian"
	}
	return h.d.Exporter.ExportByID(ctx, req.ID, req.Format)
}

func (h *handlers) getSettings(ctx context.Context) (any, error) {
	list, err := h.d.Settings.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(list))
	for _, s := range list {
		out[s.Key] = maskSetting(s.Key, s.Value)
	}
	return out, nil
}

// updateSettings stores every pair. A masked secret sent back unchanged keeps the stored value.
func (h *handlers) updateSettings(ctx context.Context, values map[string]string) (any, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("settings key is empty: %w", domain.ErrInvalidPayload)
		}
		v := values[k]
		if isSecret(k) && strings.HasPrefix(v, "****") {
			continue
		}
		if err := h.d.Settings.Set(ctx, k, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", k, err)
		}
	}
	return h.getSettings(ctx)
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "_api_key") || strings.HasSuffix(key, "_token")
}

func maskSetting(key, value string) string {
	if !isSecret(key) {
		return value
	}
	return mask(value)
}

// mask keeps the last four characters of a secret. Shorter secrets are hidden entirely.
func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
