// Package app is the HTTP surface. It is a UI context: every request is turned into a message to
// the background and the response envelope is rendered as JSON.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"learnsnap/internal/adapters/tabs"
	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

type Deps struct {
	Bus             *transport.Bus
	Tabs            *tabs.Registry
	Opener          TabOpener
	DefaultProvider string
	// RequestTimeout bounds each message sent to the background.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	bus          *transport.Bus
	timeout      time.Duration
	log          *slog.Logger
	snapshots    *SnapshotAPI
	translations *TranslationsAPI
	exports      *ExportAPI
	providers    *ProviderAPI
	settings     *SettingsAPI
	tabs         *TabsAPI
	router       http.Handler
	httpServer   *http.Server
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	bg := transport.NewClient(d.Bus, transport.Background, d.RequestTimeout)
	s := &Server{
		bus:          d.Bus,
		timeout:      d.RequestTimeout,
		log:          d.Logger,
		snapshots:    NewSnapshotAPI(bg),
		translations: NewTranslationsAPI(bg),
		exports:      NewExportAPI(bg),
		providers:    NewProviderAPI(bg, d.DefaultProvider),
		settings:     NewSettingsAPI(bg),
		tabs:         NewTabsAPI(d.Tabs, d.Opener),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Post("/capture", s.handleCapture)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Get("/{id}", s.handleGetSnapshot)
			r.Patch("/{id}", s.handleUpdateSnapshot)
			r.Delete("/{id}", s.handleDeleteSnapshot)
			r.Post("/{id}/annotations", s.handleAnnotate)
			r.Get("/{id}/export", s.handleExport)
			r.Post("/{id}/obsidian", s.handleObsidian)
		})
		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)

		r.Post("/translate", s.handleTranslate)
		r.Post("/translate/batch", s.handleTranslateBatch)

		r.Get("/providers", s.handleListProviders)
		r.Post("/providers/{name}/test", s.handleTestProvider)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/tabs", s.handleListTabs)
		r.Post("/tabs", s.handleOpenTab)
		r.Post("/tabs/{id}/activate", s.handleActivateTab)
		r.Delete("/tabs/{id}", s.handleCloseTab)
	})
	return r
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleMessage forwards a raw envelope to the background and returns its response envelope
// unchanged, with status 200 for routed failures too.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid message: "+err.Error())
		return
	}
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := s.bus.Send(ctx, transport.Background, msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	ack, err := s.snapshots.Capture(r.Context())
	s.reply(w, r, http.StatusAccepted, ack, err)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	q := domain.SnapshotQuery{Query: r.URL.Query().Get("q"), Category: r.URL.Query().Get("category")}
	list, err := s.snapshots.List(r.Context(), q)
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && snap == nil {
		err = domain.ErrSnapshotNotFound
	}
	s.reply(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleUpdateSnapshot(w http.ResponseWriter, r *http.Request) {
	var u domain.SnapshotUpdate
	if !decode(w, r, &u) {
		return
	}
	u.ID = chi.URLParam(r, "id")
	snap, err := s.snapshots.Update(r.Context(), u)
	s.reply(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var a domain.Annotation
	if !decode(w, r, &a) {
		return
	}
	a.SnapshotID = chi.URLParam(r, "id")
	out, err := s.snapshots.Annotate(r.Context(), a)
	s.reply(w, r, http.StatusCreated, out, err)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "obsidian"
	}
	name, content, err := s.exports.ExportFile(r.Context(), ExportFileRequest{ID: chi.URLParam(r, "id"), Format: format})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", http.DetectContentType(content))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleObsidian(w http.ResponseWriter, r *http.Request) {
	res, err := s.exports.ToObsidian(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.snapshots.Categories(r.Context())
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if !decode(w, r, &c) {
		return
	}
	out, err := s.snapshots.CreateCategory(r.Context(), c)
	s.reply(w, r, http.StatusCreated, out, err)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var p domain.TranslateParams
	if !decode(w, r, &p) {
		return
	}
	res, err := s.translations.Translate(r.Context(), p)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) handleTranslateBatch(w http.ResponseWriter, r *http.Request) {
	var p domain.BatchTranslateParams
	if !decode(w, r, &p) {
		return
	}
	res, err := s.translations.Batch(r.Context(), p)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	list, err := s.providers.List(r.Context())
	s.reply(w, r, http.StatusOK, list, err)
}

func (s *Server) handleTestProvider(w http.ResponseWriter, r *http.Request) {
	res, err := s.providers.Test(r.Context(), chi.URLParam(r, "name"))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	v, err := s.settings.Get(r.Context())
	s.reply(w, r, http.StatusOK, v, err)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	values := map[string]string{}
	if !decode(w, r, &values) {
		return
	}
	v, err := s.settings.Update(r.Context(), values)
	s.reply(w, r, http.StatusOK, v, err)
}

func (s *Server) handleListTabs(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.tabs.List())
}

func (s *Server) handleOpenTab(w http.ResponseWriter, r *http.Request) {
	var req OpenTabRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := s.tabs.Open(r.Context(), req)
	s.reply(w, r, http.StatusCreated, t, err)
}

func (s *Server) handleActivateTab(w http.ResponseWriter, r *http.Request) {
	t, err := s.tabs.Activate(chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, t, err)
}

func (s *Server) handleCloseTab(w http.ResponseWriter, r *http.Request) {
	err := s.tabs.Close(chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusNoContent, nil, err)
}

// --- Helper Functions ---

func (s *Server) reply(w http.ResponseWriter, r *http.Request, code int, v any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}
	respondJSON(w, code, v)
}

// fail maps transport and local errors to a status. Errors reported by the background are
// rendered verbatim.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var remote *transport.RemoteError
	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &remote):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSnapshotNotFound), errors.Is(err, ErrTabNotFound), errors.Is(err, domain.ErrProviderNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPayload):
		code = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrEndpointGone), errors.Is(err, transport.ErrClosed):
		code = http.StatusServiceUnavailable
	}
	if code >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	respondError(w, code, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		response = []byte(`{"error":"encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.InfoContext(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"took", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
