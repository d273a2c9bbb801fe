package registry

import (
	"context"
	"sort"
	"sync"

	"learnsnap/internal/ports"
)

// Registry holds named Provider implementations.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ports.Provider
}

func New() *Registry {
	return &Registry{providers: make(map[string]ports.Provider)}
}

func (r *Registry) Register(name string, p ports.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

func (r *Registry) Get(name string) (ports.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok && p != nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HealthCheck asks every provider that can report reachability. Providers without a check count as reachable.
func (r *Registry) HealthCheck(ctx context.Context) map[string]bool {
	r.mu.RLock()
	snapshot := make(map[string]ports.Provider, len(r.providers))
	for name, p := range r.providers {
		snapshot[name] = p
	}
	r.mu.RUnlock()

	out := make(map[string]bool, len(snapshot))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, p := range snapshot {
		if p == nil {
			out[name] = false
			continue
		}
		checker, ok := p.(ports.ConnectionChecker)
		if !ok {
			out[name] = true
			continue
		}
		wg.Add(1)
		go func(name string, c ports.ConnectionChecker) {
			defer wg.Done()
			ok := c.CheckConnection(ctx)
			mu.Lock()
			out[name] = ok
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()
	return out
}
