package ports

import (
	"context"
)

// Provider represents a single translation backend.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// ConnectionChecker is implemented by providers that can report reachability.
// It is used for diagnostics only and never on the translate path.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) bool
}

// ProviderLookup resolves providers by registry name.
type ProviderLookup interface {
	Get(name string) (Provider, bool)
}
