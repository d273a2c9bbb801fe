package factory

import (
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"learnsnap/internal/adapters/llm/ollama"
	"learnsnap/internal/adapters/llm/openai"
	"learnsnap/internal/adapters/llm/openrouter"
	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

// Deps are the collaborators shared by every provider.
type Deps struct {
	HTTP     *resty.Client
	Settings ports.SettingsReader
	Prompts  ports.PromptRenderer
}

// FromProvider builds the provider described by p.
func FromProvider(p *domain.Provider, d Deps) (ports.Provider, error) {
	name := p.RegistryName()
	switch strings.ToLower(p.Type) {
	case "ollama":
		c := ollama.New(d.HTTP, name, p.BaseURL, p.Model, d.Prompts)
		if p.Temperature > 0 {
			c.Temperature = p.Temperature
		}
		return c, nil
	case "openai":
		c := openai.New(d.HTTP, name, p.BaseURL, p.Model, d.Settings, d.Prompts)
		if p.Temperature > 0 {
			c.Temperature = p.Temperature
		}
		if p.APIKeySetting != "" {
			c.KeySetting = p.APIKeySetting
		}
		return c, nil
	case "openrouter":
		c := openrouter.New(d.HTTP, name, p.BaseURL, p.Model, d.Settings, d.Prompts)
		if p.Temperature > 0 {
			c.Temperature = p.Temperature
		}
		if p.APIKeySetting != "" {
			c.KeySetting = p.APIKeySetting
		}
		return c, nil
	}
	return nil, fmt.Errorf("unsupported provider type: %q", p.Type)
}

// Registrar is satisfied by the provider registry.
type Registrar interface {
	Register(name string, p ports.Provider)
}

// RegisterAll builds and registers every provider in ps.
func RegisterAll(r Registrar, ps []domain.Provider, d Deps) error {
	for i := range ps {
		p, err := FromProvider(&ps[i], d)
		if err != nil {
			return err
		}
		r.Register(ps[i].RegistryName(), p)
	}
	return nil
}
