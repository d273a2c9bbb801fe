// Package transport is the in-process message bus that connects execution contexts.
//
// Every endpoint is a named listener. A message delivered to an endpoint is copied through
// JSON, handled in its own goroutine, and answered at most once. Contexts therefore share no
// memory and never call each other directly.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"learnsnap/internal/domain"
)

// Background is the endpoint of the long-lived orchestrator.
const Background = "background"

// TabEndpoint names the endpoint of the content context of a tab.
func TabEndpoint(tabID string) string { return "tab:" + tabID }

var ErrClosed = errors.New("bus is closed")

// Handler answers one message. The returned response is delivered to the sender, if any.
type Handler func(ctx context.Context, msg domain.Message) domain.MessageResponse

type Bus struct {
	mu        sync.RWMutex
	endpoints map[string]Handler
	closed    bool
	active    int
	idle      chan struct{} // closed when active drops to zero
	log       *slog.Logger
}

func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{endpoints: map[string]Handler{}, log: log}
}

// Listen registers h under name, replacing any previous listener. The returned func removes it.
func (b *Bus) Listen(name string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.endpoints[name] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.endpoints, name)
	}, nil
}

// Has reports whether an endpoint is listening under name.
func (b *Bus) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.endpoints[name]
	return ok
}

// Send delivers msg to the endpoint and waits for its response or for ctx to end.
// The handler keeps running when ctx ends first; its late response is dropped.
func (b *Bus) Send(ctx context.Context, to string, msg domain.Message) (domain.MessageResponse, error) {
	out := make(chan []byte, 1)
	if err := b.deliver(ctx, to, msg, out); err != nil {
		return domain.MessageResponse{}, err
	}
	select {
	case raw := <-out:
		var resp domain.MessageResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return domain.MessageResponse{}, fmt.Errorf("decode response from %s: %w", to, err)
		}
		return resp, nil
	case <-ctx.Done():
		return domain.MessageResponse{}, ctx.Err()
	}
}

// Post delivers msg without waiting. Delivery fails only when the endpoint does not exist.
// The handler runs detached from ctx's cancellation.
func (b *Bus) Post(ctx context.Context, to string, msg domain.Message) error {
	return b.deliver(context.WithoutCancel(ctx), to, msg, nil)
}

func (b *Bus) deliver(ctx context.Context, to string, msg domain.Message, out chan<- []byte) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.Type, err)
	}
	var copied domain.Message
	if err := json.Unmarshal(raw, &copied); err != nil {
		return fmt.Errorf("copy message %s: %w", msg.Type, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	h, ok := b.endpoints[to]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("send %s to %q: %w", msg.Type, to, domain.ErrEndpointGone)
	}
	if b.active == 0 {
		b.idle = make(chan struct{})
	}
	b.active++
	b.mu.Unlock()

	go func() {
		defer b.done()
		var once sync.Once
		reply := func(resp domain.MessageResponse) {
			once.Do(func() {
				if out == nil {
					if !resp.Success {
						b.log.WarnContext(ctx, "posted message failed", "type", copied.Type, "to", to, "error", resp.Error)
					}
					return
				}
				data, err := json.Marshal(resp)
				if err != nil {
					data, _ = json.Marshal(domain.Failure(copied, "encode response: "+err.Error()))
				}
				out <- data
			})
		}
		defer func() {
			if r := recover(); r != nil {
				b.log.ErrorContext(ctx, "listener panicked", "type", copied.Type, "to", to, "panic", r, "stack", string(debug.Stack()))
				reply(domain.Failure(copied, fmt.Sprintf("listener panic: %v", r)))
			}
		}()
		reply(h(ctx, copied))
	}()
	return nil
}

func (b *Bus) done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active--
	if b.active == 0 {
		close(b.idle)
	}
}

// Close waits for in-flight handlers to finish and then stops accepting messages.
// Messages sent by in-flight handlers are still delivered while it waits.
func (b *Bus) Close(ctx context.Context) error {
	for {
		b.mu.Lock()
		if b.active == 0 {
			b.closed = true
			b.mu.Unlock()
			return nil
		}
		idle := b.idle
		b.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			b.mu.Lock()
			b.closed = true
			b.mu.Unlock()
			return ctx.Err()
		}
	}
}
