package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"learnsnap/internal/adapters/cache/memory"
	rediscache "learnsnap/internal/adapters/cache/redis"
	dbsqlite "learnsnap/internal/adapters/db/sqlite"
	expcsv "learnsnap/internal/adapters/exporter/csv"
	expjson "learnsnap/internal/adapters/exporter/jsonexp"
	expobsidian "learnsnap/internal/adapters/exporter/obsidian"
	exportreg "learnsnap/internal/adapters/exporter/registry"
	"learnsnap/internal/adapters/llm/factory"
	"learnsnap/internal/adapters/llm/httpclient"
	llmreg "learnsnap/internal/adapters/llm/registry"
	"learnsnap/internal/adapters/page/fetch"
	"learnsnap/internal/adapters/page/headless"
	"learnsnap/internal/adapters/page/static"
	promptRenderer "learnsnap/internal/adapters/prompt"
	"learnsnap/internal/adapters/readability"
	"learnsnap/internal/adapters/resource"
	"learnsnap/internal/adapters/sanitize"
	"learnsnap/internal/adapters/tabs"
	apiapp "learnsnap/internal/api/app"
	"learnsnap/internal/config"
	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
	"learnsnap/internal/transport"
	"learnsnap/internal/usecase/capture"
	exporterusecase "learnsnap/internal/usecase/exporter"
	"learnsnap/internal/usecase/extractor"
	"learnsnap/internal/usecase/router"
	"learnsnap/internal/usecase/snapshot"
	translatorusecase "learnsnap/internal/usecase/translator"
)

// App owns every long-lived component: the background router on the bus, the open tabs with
// their capture agents, and the stores behind them.
type App struct {
	cfg *config.Config
	log *slog.Logger

	db        *sql.DB
	bus       *transport.Bus
	tabs      *tabs.Registry
	router    *router.Router
	extractor *extractor.Extractor
	closers   []func() error

	stopRouter func()

	mu     sync.Mutex
	agents map[string]*capture.Agent
	// onSaved observes the SAVE_SNAPSHOT_DATA response of every capture agent.
	onSaved func(tabID string, resp domain.MessageResponse)
}

// NewApp wires the application from cfg. Close releases everything it opened.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, agents: map[string]*capture.Agent{}}
	if err := a.init(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	db, err := dbsqlite.Init(a.cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	snapshotRepo := dbsqlite.NewSnapshotRepo(db)
	settingsRepo := dbsqlite.NewSettingsRepo(db)

	cache, err := a.translationCache(ctx, dbsqlite.NewCacheRepo(db))
	if err != nil {
		return err
	}

	// Prompt renderer and providers
	pr := promptRenderer.New(settingsRepo)
	providers := llmreg.New()
	err = factory.RegisterAll(providers, a.cfg.Providers(), factory.Deps{
		HTTP:     httpclient.New(a.cfg.Translation.Timeout),
		Settings: settingsRepo,
		Prompts:  pr,
	})
	if err != nil {
		return fmt.Errorf("register providers: %w", err)
	}
	transSvc := translatorusecase.New(translatorusecase.Deps{
		Cache:           cache,
		Providers:       providers,
		DefaultProvider: a.cfg.Translation.DefaultProvider,
		Logger:          a.log,
	})

	// Exporters and service
	expReg := exportreg.New()
	expReg.Register(expobsidian.New())
	expReg.Register(expjson.New())
	expReg.Register(expcsv.New())
	expSvc := exporterusecase.New(snapshotRepo, expReg, a.cfg.Export.Dir)

	a.extractor = extractor.New(extractor.Deps{
		Readability: readability.New(),
		Sanitizer:   sanitize.New(),
		Resources:   resource.New(a.cfg.Capture.ImageTimeout),
		Logger:      a.log,
	})

	a.bus = transport.New(a.log)
	a.tabs = tabs.New()
	a.router = router.New(router.Deps{
		Snapshots:       snapshot.New(snapshotRepo, dbsqlite.NewAnnotationRepo(db), dbsqlite.NewCategoryRepo(db)),
		Translator:      transSvc,
		Exporter:        expSvc,
		Tabs:            a.tabs,
		Bus:             a.bus,
		Providers:       providers,
		Settings:        settingsRepo,
		DefaultProvider: a.cfg.Translation.DefaultProvider,
		Logger:          a.log,
	})
	return nil
}

// translationCache puts the LRU, when enabled, in front of the sqlite or redis store.
func (a *App) translationCache(ctx context.Context, sqliteCache ports.TranslationCache) (ports.TranslationCache, error) {
	durable := sqliteCache
	if a.cfg.Cache.Backend == "redis" {
		rc, err := rediscache.Dial(ctx, a.cfg.Cache.RedisAddr, a.cfg.Cache.RedisTTL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		durable = rc
	}
	if a.cfg.Cache.LRUSize == 0 {
		return durable, nil
	}
	mem, err := memory.New(a.cfg.Cache.LRUSize, durable)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	return mem, nil
}

// Start puts the router on the bus.
func (a *App) Start() error {
	stop, err := a.router.Serve(a.bus)
	if err != nil {
		return err
	}
	a.stopRouter = stop
	a.log.Info("background started", "default_provider", a.cfg.Translation.DefaultProvider)
	return nil
}

// Client returns a client for the background endpoint, as used by UI surfaces.
func (a *App) Client() *transport.Client {
	return transport.NewClient(a.bus, transport.Background, a.cfg.Transport.RequestTimeout)
}

func (a *App) Server() *apiapp.Server {
	return apiapp.NewServer(apiapp.Deps{
		Bus:             a.bus,
		Tabs:            a.tabs,
		Opener:          a,
		DefaultProvider: a.cfg.Translation.DefaultProvider,
		RequestTimeout:  a.cfg.Transport.RequestTimeout,
		Logger:          a.log,
	})
}

// OnSaved installs an observer for capture agents started after the call.
func (a *App) OnSaved(fn func(tabID string, resp domain.MessageResponse)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSaved = fn
}

// OpenTab starts a capture agent for the page and makes its tab the active one.
func (a *App) OpenTab(_ context.Context, req apiapp.OpenTabRequest) (tabs.Tab, error) {
	if req.Mode == "" {
		req.Mode = a.cfg.Capture.Mode
	}
	src, err := a.pageSource(req)
	if err != nil {
		return tabs.Tab{}, err
	}
	id := uuid.NewString()

	a.mu.Lock()
	onSaved := a.onSaved
	a.mu.Unlock()
	agent := &capture.Agent{
		TabID:      id,
		Source:     src,
		Extractor:  a.extractor,
		Bus:        a.bus,
		Background: a.Client(),
		Logger:     a.log.With("tab", id),
	}
	if onSaved != nil {
		agent.OnSaved = func(resp domain.MessageResponse) { onSaved(id, resp) }
	}
	if err := agent.Start(); err != nil {
		return tabs.Tab{}, err
	}

	a.mu.Lock()
	a.agents[id] = agent
	a.mu.Unlock()
	a.tabs.Open(tabs.Tab{ID: id, URL: req.URL, Mode: req.Mode})
	t, _ := a.tabs.Get(id)
	a.log.Info("tab opened", "tab", id, "url", req.URL, "mode", req.Mode)
	return t, nil
}

func (a *App) pageSource(req apiapp.OpenTabRequest) (ports.PageSource, error) {
	switch req.Mode {
	case "static":
		if req.HTML == "" {
			return nil, fmt.Errorf("static tab needs html: %w", domain.ErrInvalidPayload)
		}
		return static.New(req.HTML, req.URL), nil
	case "fetch":
		if req.URL == "" {
			return nil, fmt.Errorf("tab url is required: %w", domain.ErrInvalidPayload)
		}
		return fetch.New(req.URL, a.cfg.Capture.PageTimeout), nil
	case "headless":
		if req.URL == "" {
			return nil, fmt.Errorf("tab url is required: %w", domain.ErrInvalidPayload)
		}
		p := headless.New(req.URL, a.cfg.Capture.PageTimeout)
		p.ExecPath = a.cfg.Capture.ChromePath
		return p, nil
	}
	return nil, fmt.Errorf("unknown capture mode %q: %w", req.Mode, domain.ErrInvalidPayload)
}

// CloseTab stops the tab's agent. Messages sent to it afterwards fail as gone.
func (a *App) CloseTab(id string) bool {
	a.mu.Lock()
	agent, ok := a.agents[id]
	delete(a.agents, id)
	a.mu.Unlock()
	if ok {
		agent.Stop()
	}
	return a.tabs.Close(id) || ok
}

// Close drains in-flight messages, then releases stores in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.bus != nil {
		if err := a.bus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain bus: %w", err))
		}
	}
	if a.stopRouter != nil {
		a.stopRouter()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
