package domain

// Provider describes a configured translation backend.
type Provider struct {
	Type        string  `json:"type"` // ollama, openai, openrouter
	Name        string  `json:"name"` // registry name, defaults to Type
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	// APIKeySetting names the settings key holding the bearer token, if any.
	APIKeySetting string `json:"api_key_setting"`
}

// RegistryName is the name the provider is registered under.
func (p *Provider) RegistryName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Type
}
