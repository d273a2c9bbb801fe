package domain

import "errors"

var (
	ErrNoActiveTab        = errors.New("No active tab found to capture.")
	ErrEndpointGone       = errors.New("receiving end does not exist")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrProviderNotFound   = errors.New("provider is not registered")
	ErrAPIKeyMissing      = errors.New("api key is not set")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrCorrelationMissing = errors.New("response requestId does not match request")
)

// ProviderNotFoundError reports a provider name missing from the registry. It matches ErrProviderNotFound.
type ProviderNotFoundError struct{ Name string }

func (e *ProviderNotFoundError) Error() string {
	return `translation provider "` + e.Name + `" is not registered`
}

func (e *ProviderNotFoundError) Is(target error) bool { return target == ErrProviderNotFound }
