package app

import (
	"context"
	"errors"

	"learnsnap/internal/adapters/tabs"
)

type OpenTabRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode,omitempty"` // static | fetch | headless
	// HTML is the document of a static tab.
	HTML string `json:"html,omitempty"`
}

// TabOpener starts and stops the content side of tabs.
type TabOpener interface {
	OpenTab(ctx context.Context, req OpenTabRequest) (tabs.Tab, error)
	CloseTab(id string) bool
}

var ErrTabNotFound = errors.New("tab not found")

type TabsAPI struct {
	tabs   *tabs.Registry
	opener TabOpener
}

func NewTabsAPI(reg *tabs.Registry, opener TabOpener) *TabsAPI {
	return &TabsAPI{tabs: reg, opener: opener}
}

func (a *TabsAPI) List() []tabs.Tab { return a.tabs.List() }

func (a *TabsAPI) Open(ctx context.Context, req OpenTabRequest) (tabs.Tab, error) {
	return a.opener.OpenTab(ctx, req)
}

func (a *TabsAPI) Activate(id string) (tabs.Tab, error) {
	if !a.tabs.Activate(id) {
		return tabs.Tab{}, ErrTabNotFound
	}
	t, _ := a.tabs.Get(id)
	return t, nil
}

func (a *TabsAPI) Close(id string) error {
	if !a.opener.CloseTab(id) {
		return ErrTabNotFound
	}
	return nil
}
