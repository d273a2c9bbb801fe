// Package openai translates through the OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"learnsnap/internal/adapters/llm/httpclient"
	"learnsnap/internal/adapters/prompt"
	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
)

type Client struct {
	name        string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	// KeySetting names the settings entry that holds the API key.
	KeySetting string
	Settings   ports.SettingsReader
	Prompts    ports.PromptRenderer
	http       *resty.Client
}

func New(http *resty.Client, name, baseURL, model string, settings ports.SettingsReader, prompts ports.PromptRenderer) *Client {
	if name == "" {
		name = "openai"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		name:        name,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		KeySetting:  domain.SettingOpenAIKey,
		Settings:    settings,
		Prompts:     prompts,
		http:        http,
	}
}

func (c *Client) Name() string { return c.name }

// Translate reads the API key on every call so that settings changes apply immediately.
func (c *Client) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	key, err := c.Settings.Get(ctx, c.KeySetting)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", c.KeySetting, err)
	}
	if key == "" {
		return "", fmt.Errorf("OpenAI API key is not set, configure %q: %w", c.KeySetting, domain.ErrAPIKeyMissing)
	}
	system, err := c.Prompts.Render(ctx, prompt.ChatSystem, ports.PromptData{SrcLang: from, TgtLang: to, Text: text})
	if err != nil {
		return "", err
	}
	return httpclient.Chat(ctx, c.http, "OpenAI", c.BaseURL+"/chat/completions", key, nil, httpclient.ChatRequest{
		Model: c.Model,
		Messages: []httpclient.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
}

// CheckConnection lists models with the configured key. A missing key reports false.
func (c *Client) CheckConnection(ctx context.Context) bool {
	key, err := c.Settings.Get(ctx, c.KeySetting)
	if err != nil || key == "" {
		return false
	}
	return httpclient.Reachable(ctx, c.http, c.BaseURL+"/models", key)
}
