// Package tabs tracks the open tabs and which of them is active.
package tabs

import (
	"sort"
	"sync"
	"time"
)

type Tab struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Mode     string    `json:"mode"` // static | fetch | headless
	OpenedAt time.Time `json:"openedAt"`
	Active   bool      `json:"active"`
}

type Registry struct {
	mu     sync.RWMutex
	tabs   map[string]Tab
	active string
}

func New() *Registry { return &Registry{tabs: map[string]Tab{}} }

// Open adds the tab and makes it active.
func (r *Registry) Open(t Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.OpenedAt.IsZero() {
		t.OpenedAt = time.Now().UTC()
	}
	r.tabs[t.ID] = t
	r.active = t.ID
}

// Activate reports false when no tab has the id.
func (r *Registry) Activate(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tabs[id]; !ok {
		return false
	}
	r.active = id
	return true
}

// Close removes the tab. Closing the active tab leaves no tab active.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tabs[id]; !ok {
		return false
	}
	delete(r.tabs, id)
	if r.active == id {
		r.active = ""
	}
	return true
}

func (r *Registry) Active() (Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tabs[r.active]
	if ok {
		t.Active = true
	}
	return t, ok
}

func (r *Registry) Get(id string) (Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tabs[id]
	t.Active = ok && id == r.active
	return t, ok
}

// List returns the tabs in the order they were opened.
func (r *Registry) List() []Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tab, 0, len(r.tabs))
	for id, t := range r.tabs {
		t.Active = id == r.active
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}
