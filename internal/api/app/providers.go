package app

import (
	"context"
	"sort"

	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

type ProviderAPI struct {
	bg          *transport.Client
	defaultName string
}

func NewProviderAPI(bg *transport.Client, defaultName string) *ProviderAPI {
	return &ProviderAPI{bg: bg, defaultName: defaultName}
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
	Default   bool   `json:"default"`
}

// List reports every registered provider with its reachability, sorted by name.
func (a *ProviderAPI) List(ctx context.Context) ([]ProviderStatus, error) {
	var health map[string]bool
	if err := a.bg.Call(ctx, domain.KindCheckProviders, nil, &health); err != nil {
		return nil, err
	}
	out := make([]ProviderStatus, 0, len(health))
	for name, ok := range health {
		out = append(out, ProviderStatus{Name: name, Reachable: ok, Default: name == a.defaultName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ProviderTestResult contains details of a connectivity/translate test.
type ProviderTestResult struct {
	Ok          bool   `json:"ok"`
	Reachable   bool   `json:"reachable"`
	Translation string `json:"translation,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Test checks the provider's connection and translates "hello" from English to Russian with it.
// A failed translation is reported in the result, not as an error.
func (a *ProviderAPI) Test(ctx context.Context, name string) (ProviderTestResult, error) {
	list, err := a.List(ctx)
	if err != nil {
		return ProviderTestResult{}, err
	}
	idx := sort.Search(len(list), func(i int) bool { return list[i].Name >= name })
	if idx == len(list) || list[idx].Name != name {
		return ProviderTestResult{}, &domain.ProviderNotFoundError{Name: name}
	}
	var res domain.TranslationResult
	err = a.bg.Call(ctx, domain.KindTranslateText, domain.TranslateParams{
		Text:     "hello",
		Provider: name,
		From:     "en",
		To:       "ru",
	}, &res)
	if err != nil {
		return ProviderTestResult{Reachable: list[idx].Reachable, Error: err.Error()}, nil
	}
	return ProviderTestResult{Ok: true, Reachable: list[idx].Reachable, Translation: res.Translated}, nil
}
