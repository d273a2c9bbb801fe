package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnsnap/internal/adapters/llm/httpclient"
	"learnsnap/internal/adapters/llm/ollama"
	"learnsnap/internal/adapters/llm/openai"
	"learnsnap/internal/adapters/llm/registry"
	"learnsnap/internal/domain"
)

func TestFromProvider(t *testing.T) {
	d := Deps{HTTP: httpclient.New(0)}

	p, err := FromProvider(&domain.Provider{Type: "ollama", Temperature: 0.5}, d)
	require.NoError(t, err)
	o, ok := p.(*ollama.Client)
	require.True(t, ok)
	assert.Equal(t, 0.5, o.Temperature)
	assert.Equal(t, ollama.DefaultBaseURL, o.BaseURL)

	p, err = FromProvider(&domain.Provider{Type: "OpenAI", Name: "gpt", APIKeySetting: "my_key"}, d)
	require.NoError(t, err)
	oa := p.(*openai.Client)
	assert.Equal(t, "gpt", oa.Name())
	assert.Equal(t, "my_key", oa.KeySetting)

	_, err = FromProvider(&domain.Provider{Type: "deepl"}, d)
	assert.Error(t, err)
}

func TestRegisterAll(t *testing.T) {
	r := registry.New()
	err := RegisterAll(r, []domain.Provider{{Type: "ollama"}, {Type: "openai"}, {Type: "openrouter", Name: "or"}}, Deps{HTTP: httpclient.New(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"ollama", "openai", "or"}, r.Names())
}
