// Package router is the single dispatch point of the background context. It maps a message
// kind to a handler, runs it, and turns the outcome into a response envelope.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"learnsnap/internal/domain"
	"learnsnap/internal/metrics"
	"learnsnap/internal/transport"
)

// Handler does the work of one message kind. The returned value becomes the response data.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

type Router struct {
	handlers map[domain.MessageKind]Handler
	log      *slog.Logger
	now      func() time.Time
}

func newRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{handlers: map[domain.MessageKind]Handler{}, log: log, now: time.Now}
}

// Handle registers h for kind, replacing any previous handler.
func (r *Router) Handle(kind domain.MessageKind, h Handler) {
	r.handlers[kind] = h
}

// Has reports whether a handler is registered for kind.
func (r *Router) Has(kind domain.MessageKind) bool {
	_, ok := r.handlers[kind]
	return ok
}

// Route dispatches msg to its handler and always returns exactly one response carrying
// msg's requestId.
func (r *Router) Route(ctx context.Context, msg domain.Message) domain.MessageResponse {
	start := r.now()
	outcome := metrics.OutcomeSuccess
	h, ok := r.handlers[msg.Type]
	label := string(msg.Type)
	if !ok {
		// Kinds come from callers; only registered ones get their own series.
		label = metrics.UnknownKind
	}
	defer func() {
		metrics.RecordMessage(label, outcome, r.now().Sub(start).Seconds())
	}()

	if !ok {
		outcome = metrics.OutcomeFailedLookup
		r.log.WarnContext(ctx, "no handler", "type", msg.Type, "request_id", msg.RequestID)
		return domain.Failure(msg, fmt.Sprintf("No handler for message type: %s", msg.Type))
	}

	data, err := r.invoke(ctx, h, msg)
	if err != nil {
		outcome = metrics.OutcomeFailedHandler
		r.log.ErrorContext(ctx, "handler failed", "type", msg.Type, "request_id", msg.RequestID, "err", err)
		return domain.Failure(msg, err.Error())
	}
	r.log.DebugContext(ctx, "handled", "type", msg.Type, "request_id", msg.RequestID, "took", r.now().Sub(start))
	return domain.MessageResponse{Success: true, Data: data, RequestID: msg.RequestID}
}

func (r *Router) invoke(ctx context.Context, h Handler, msg domain.Message) (data json.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.ErrorContext(ctx, "handler panicked", "type", msg.Type, "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	v, err := h(ctx, msg.Payload)
	if err != nil {
		return nil, err
	}
	data, err = json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", msg.Type, err)
	}
	return data, nil
}

// Serve listens on the background endpoint of b. The returned func stops listening.
func (r *Router) Serve(b *transport.Bus) (func(), error) {
	return b.Listen(transport.Background, r.Route)
}

// typed adapts a handler taking a decoded payload. An absent payload decodes to the zero value.
func typed[T any](fn func(ctx context.Context, p T) (any, error)) Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p T
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, fmt.Errorf("decode payload: %w: %v", domain.ErrInvalidPayload, err)
			}
		}
		return fn(ctx, p)
	}
}

// bare adapts a handler that ignores its payload.
func bare(fn func(ctx context.Context) (any, error)) Handler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) { return fn(ctx) }
}
