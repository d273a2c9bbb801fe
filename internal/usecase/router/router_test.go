package router

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnsnap/internal/adapters/db/sqlite"
	exreg "learnsnap/internal/adapters/exporter/registry"
	"learnsnap/internal/adapters/exporter/obsidian"
	"learnsnap/internal/adapters/llm/registry"
	"learnsnap/internal/adapters/page/static"
	"learnsnap/internal/adapters/tabs"
	"learnsnap/internal/domain"
	"learnsnap/internal/metrics"
	"learnsnap/internal/transport"
	"learnsnap/internal/usecase/capture"
	"learnsnap/internal/usecase/exporter"
	"learnsnap/internal/usecase/snapshot"
	"learnsnap/internal/usecase/translator"
)

type stubProvider struct {
	name string
	err  error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Translate(_ context.Context, text, _, to string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "[" + to + "] " + text, nil
}

func (p *stubProvider) CheckConnection(context.Context) bool { return p.err == nil }

type fixture struct {
	router    *Router
	bus       *transport.Bus
	tabs      *tabs.Registry
	settings  *sqlite.SettingsRepo
	exportDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Init(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	providers := registry.New()
	providers.Register("ollama", &stubProvider{name: "ollama"})
	providers.Register("broken", &stubProvider{name: "broken", err: errors.New("could not connect to the Ollama service")})

	exports := exreg.New()
	exports.Register(obsidian.New())
	dir := filepath.Join(t.TempDir(), "exports")

	snapshots := sqlite.NewSnapshotRepo(db)
	f := &fixture{bus: transport.New(nil), tabs: tabs.New(), settings: sqlite.NewSettingsRepo(db), exportDir: dir}
	f.router = New(Deps{
		Snapshots: snapshot.New(snapshots, sqlite.NewAnnotationRepo(db), sqlite.NewCategoryRepo(db)),
		Translator: translator.New(translator.Deps{
			Cache:     sqlite.NewCacheRepo(db),
			Providers: providers,
		}),
		Exporter:        exporter.New(snapshots, exports, dir),
		Tabs:            f.tabs,
		Bus:             f.bus,
		Providers:       providers,
		Settings:        f.settings,
		DefaultProvider: "ollama",
	})
	return f
}

func (f *fixture) route(t *testing.T, kind domain.MessageKind, payload any) domain.MessageResponse {
	t.Helper()
	msg, err := domain.NewMessage(kind, payload)
	require.NoError(t, err)
	msg.RequestID = "req-" + string(kind)
	resp := f.router.Route(context.Background(), msg)
	assert.Equal(t, msg.RequestID, resp.RequestID)
	return resp
}

func TestRoute_UnknownKind(t *testing.T) {
	f := newFixture(t)
	for _, kind := range []domain.MessageKind{"NOPE", "", domain.KindCaptureRequest} {
		resp := f.router.Route(context.Background(), domain.Message{Type: kind, RequestID: "r1"})
		assert.False(t, resp.Success)
		assert.Equal(t, "No handler for message type: "+string(kind), resp.Error)
		assert.Equal(t, "r1", resp.RequestID)
		assert.Empty(t, resp.Data)
	}
}

func TestRoute_UnknownKindsShareOneSeries(t *testing.T) {
	f := newFixture(t)
	lookups := metrics.MessagesTotal.WithLabelValues(metrics.UnknownKind, metrics.OutcomeFailedLookup)
	before := testutil.ToFloat64(lookups)
	for _, kind := range []domain.MessageKind{"RANDOM_1", "RANDOM_2", "RANDOM_3"} {
		f.router.Route(context.Background(), domain.Message{Type: kind})
	}
	assert.Equal(t, before+3, testutil.ToFloat64(lookups))
	assert.Zero(t, testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues("RANDOM_1", metrics.OutcomeFailedLookup)))
}

func TestRoute_NormalizesHandlerFailures(t *testing.T) {
	f := newFixture(t)
	f.router.Handle("BOOM", func(context.Context, json.RawMessage) (any, error) { panic("boom") })
	f.router.Handle("FAIL", func(context.Context, json.RawMessage) (any, error) { return nil, errors.New("disk full") })
	f.router.Handle("UNENCODABLE", func(context.Context, json.RawMessage) (any, error) { return make(chan int), nil })

	resp := f.route(t, "BOOM", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "handler panic: boom", resp.Error)

	resp = f.route(t, "FAIL", nil)
	assert.Equal(t, "disk full", resp.Error)

	resp = f.route(t, "UNENCODABLE", nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "encode UNENCODABLE result")

	resp = f.router.Route(context.Background(), domain.Message{Type: domain.KindSaveSnapshot, Payload: json.RawMessage(`[1,2]`), RequestID: "x"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, domain.ErrInvalidPayload.Error())
	assert.Equal(t, "x", resp.RequestID)
}

func TestRoute_SnapshotLifecycle(t *testing.T) {
	f := newFixture(t)
	draft := domain.SnapshotDraft{
		Title:    "Channels",
		URL:      "https://go.dev/channels",
		Content:  domain.Content{HTML: "<p>chan</p>", Text: "chan"},
		Metadata: domain.Metadata{CapturedAt: "2024-05-06T07:08:09Z", WordCount: 1, Language: "en"},
	}
	resp := f.route(t, domain.KindSaveSnapshot, draft)
	require.True(t, resp.Success, resp.Error)
	saved, err := transport.Decode[domain.Snapshot](resp)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, []string{domain.DefaultCategory}, saved.Categories)

	list, err := transport.Decode[[]domain.Snapshot](f.route(t, domain.KindListSnapshots, nil))
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := transport.Decode[*domain.Snapshot](f.route(t, domain.KindGetSnapshot, saved.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Channels", got.Title)

	ann, err := transport.Decode[domain.Annotation](f.route(t, domain.KindAddAnnotation,
		domain.Annotation{SnapshotID: saved.ID, Type: "note", Content: "remember"}))
	require.NoError(t, err)
	assert.NotEmpty(t, ann.ID)

	rating := 4
	updated, err := transport.Decode[domain.Snapshot](f.route(t, domain.KindUpdateSnapshot,
		domain.SnapshotUpdate{ID: saved.ID, Rating: &rating, Categories: &[]string{"Go"}}))
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	found, err := transport.Decode[[]domain.Snapshot](f.route(t, domain.KindSearchSnapshots, domain.SnapshotQuery{Category: "Go"}))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	del, err := transport.Decode[domain.DeleteResult](f.route(t, domain.KindDeleteSnapshot, saved.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteResult{Success: true, ID: saved.ID}, del)

	resp = f.route(t, domain.KindGetSnapshot, saved.ID)
	require.True(t, resp.Success)
	assert.Equal(t, "null", string(resp.Data))
}

func TestRoute_Categories(t *testing.T) {
	f := newFixture(t)
	_, err := transport.Decode[domain.Category](f.route(t, domain.KindCreateCategory, domain.Category{Name: "Go"}))
	require.NoError(t, err)
	cats, err := transport.Decode[[]domain.Category](f.route(t, domain.KindListCategories, nil))
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Go", cats[0].Name)
}

func TestRoute_CaptureWithoutActiveTab(t *testing.T) {
	f := newFixture(t)
	resp := f.route(t, domain.KindCaptureSnapshot, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "No active tab found to capture.", resp.Error)
}

func TestRoute_CaptureTabGone(t *testing.T) {
	f := newFixture(t)
	f.tabs.Open(tabs.Tab{ID: "t1", URL: "https://x.test"})
	resp := f.route(t, domain.KindCaptureSnapshot, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, domain.ErrEndpointGone.Error())
}

type extractFunc func(ctx context.Context, page domain.DOMSnapshot) (*domain.SnapshotDraft, error)

func (f extractFunc) Extract(ctx context.Context, page domain.DOMSnapshot) (*domain.SnapshotDraft, error) {
	return f(ctx, page)
}

func TestRoute_CaptureRoundTrip(t *testing.T) {
	f := newFixture(t)
	stop, err := f.router.Serve(f.bus)
	require.NoError(t, err)
	defer stop()

	saved := make(chan domain.MessageResponse, 1)
	agent := &capture.Agent{
		TabID:  "t1",
		Source: static.New("<html><body><p>hello world</p></body></html>", "https://x.test/a"),
		Extractor: extractFunc(func(_ context.Context, page domain.DOMSnapshot) (*domain.SnapshotDraft, error) {
			return &domain.SnapshotDraft{
				Title:   "A",
				URL:     page.URL,
				Content: domain.Content{HTML: "<p>hello world</p>", Text: "hello world"},
			}, nil
		}),
		Bus:        f.bus,
		Background: transport.NewClient(f.bus, transport.Background, time.Second),
		OnSaved:    func(resp domain.MessageResponse) { saved <- resp },
	}
	require.NoError(t, agent.Start())
	defer agent.Stop()
	f.tabs.Open(tabs.Tab{ID: "t1", URL: "https://x.test/a"})

	popup := transport.NewClient(f.bus, transport.Background, time.Second)
	var ack domain.CaptureAck
	require.NoError(t, popup.Call(context.Background(), domain.KindCaptureSnapshot, nil, &ack))
	assert.Equal(t, domain.CaptureRequestSent, ack.Status)

	select {
	case resp := <-saved:
		require.True(t, resp.Success, resp.Error)
		snap, err := transport.Decode[domain.Snapshot](resp)
		require.NoError(t, err)
		assert.Equal(t, "https://x.test/a", snap.URL)
		assert.NotEmpty(t, snap.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was never saved")
	}

	var list []domain.Snapshot
	require.NoError(t, popup.Call(context.Background(), domain.KindListSnapshots, nil, &list))
	assert.Len(t, list, 1)
}

func TestRoute_TranslateDefaultsProvider(t *testing.T) {
	f := newFixture(t)
	res, err := transport.Decode[domain.TranslationResult](f.route(t, domain.KindTranslateText,
		domain.TranslateParams{Text: "hello", From: "en", To: "fr"}))
	require.NoError(t, err)
	assert.Equal(t, "ollama", res.Provider)
	assert.Equal(t, "[fr] hello", res.Translated)

	// The cached text answers a request for another provider, under that provider's name.
	res, err = transport.Decode[domain.TranslationResult](f.route(t, domain.KindTranslateText,
		domain.TranslateParams{Text: "hello", From: "en", To: "fr", Provider: "broken"}))
	require.NoError(t, err)
	assert.Equal(t, "broken", res.Provider)
	assert.Equal(t, "[fr] hello", res.Translated)

	resp := f.route(t, domain.KindTranslateText, domain.TranslateParams{Text: "bye", From: "en", To: "fr", Provider: "deepl"})
	assert.False(t, resp.Success)
	assert.Equal(t, `translation provider "deepl" is not registered`, resp.Error)

	resp = f.route(t, domain.KindTranslateText, domain.TranslateParams{Text: "bye", From: "en", To: "fr", Provider: "broken"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "could not connect")
}

func TestRoute_TranslateBatchKeepsOrder(t *testing.T) {
	f := newFixture(t)
	res, err := transport.Decode[[]domain.TranslationResult](f.route(t, domain.KindTranslateBatch,
		domain.BatchTranslateParams{Text: "A\n\nB\nC", From: "en", To: "de"}))
	require.NoError(t, err)
	require.Len(t, res, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, res[i].Original)
		assert.Equal(t, "[de] "+want, res[i].Translated)
	}
}

func TestRoute_CheckProviders(t *testing.T) {
	f := newFixture(t)
	got, err := transport.Decode[map[string]bool](f.route(t, domain.KindCheckProviders, nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"ollama": true, "broken": false}, got)
}

func TestRoute_ExportToObsidian(t *testing.T) {
	f := newFixture(t)
	snap := domain.Snapshot{ID: "s1", SnapshotDraft: domain.SnapshotDraft{
		Title:    "Go Channels: A Tour",
		URL:      "https://go.dev/tour",
		Content:  domain.Content{HTML: "<p>Hello <strong>chan</strong></p>"},
		Metadata: domain.Metadata{CapturedAt: "2024-05-06T07:08:09Z"},
	}}
	res, err := transport.Decode[domain.ExportResult](f.route(t, domain.KindExportObsidian, snap))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, filepath.Join(f.exportDir, "2024-05-06_go-channels-a-tour.md"), res.Path)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "---\n"))
	assert.Contains(t, string(b), "**chan**")

	resp := f.route(t, domain.KindExportSnapshot, domain.ExportRequest{ID: "missing", Format: "obsidian"})
	assert.False(t, resp.Success)
}

func TestRoute_SettingsMaskSecrets(t *testing.T) {
	f := newFixture(t)
	got, err := transport.Decode[map[string]string](f.route(t, domain.KindUpdateSettings,
		map[string]string{domain.SettingOpenAIKey: "sk-abcdef1234", "theme": "dark"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{domain.SettingOpenAIKey: "****1234", "theme": "dark"}, got)

	// Sending the masked value back leaves the stored key alone.
	_, err = transport.Decode[map[string]string](f.route(t, domain.KindUpdateSettings,
		map[string]string{domain.SettingOpenAIKey: "****1234"}))
	require.NoError(t, err)
	key, err := f.settings.Get(context.Background(), domain.SettingOpenAIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdef1234", key)

	resp := f.route(t, domain.KindUpdateSettings, map[string]string{" ": "x"})
	assert.False(t, resp.Success)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "****", mask("abcd"))
	assert.Equal(t, "****bcde", mask("abcde"))
	assert.Equal(t, "****6789", mask("123456789"))
	assert.Equal(t, "plain", maskSetting("theme", "plain"))
}
