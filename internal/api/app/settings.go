package app

import (
	"context"

	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

// SettingsAPI reads settings with secrets masked. Writing back a masked secret keeps the stored one.
type SettingsAPI struct{ bg *transport.Client }

func NewSettingsAPI(bg *transport.Client) *SettingsAPI { return &SettingsAPI{bg: bg} }

func (a *SettingsAPI) Get(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	err := a.bg.Call(ctx, domain.KindGetSettings, nil, &out)
	return out, err
}

func (a *SettingsAPI) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	out := map[string]string{}
	err := a.bg.Call(ctx, domain.KindUpdateSettings, values, &out)
	return out, err
}
