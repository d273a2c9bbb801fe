package openrouter

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
	DefaultBaseURL     = "https://openrouter.ai"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultTemperature = 0.3
)

type Client struct {
	name        string
	BaseURL     string
	Model       string
	Temperature float64
	KeySetting  string
	Settings    ports.SettingsReader
	Prompts     ports.PromptRenderer
	http        *resty.Client
}

func New(http *resty.Client, name, baseURL, model string, settings ports.SettingsReader, prompts ports.PromptRenderer) *Client {
	if name == "" {
		name = "openrouter"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		name:        name,
		BaseURL:     baseURL,
		Model:       model,
		Temperature: DefaultTemperature,
		KeySetting:  domain.SettingOpenRouterKey,
		Settings:    settings,
		Prompts:     prompts,
		http:        http,
	}
}

func (c *Client) Name() string { return c.name }

func (c *Client) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	key, err := c.Settings.Get(ctx, c.KeySetting)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", c.KeySetting, err)
	}
	if key == "" {
		return "", fmt.Errorf("OpenRouter API key is not set, configure %q: %w", c.KeySetting, domain.ErrAPIKeyMissing)
	}
	system, err := c.Prompts.Render(ctx, prompt.ChatSystem, ports.PromptData{SrcLang: from, TgtLang: to, Text: text})
	if err != nil {
		return "", err
	}
	headers := map[string]string{
		"HTTP-Referer": "https://github.com/learnsnap",
		"X-Title":      "learnsnap",
	}
	return httpclient.Chat(ctx, c.http, "OpenRouter", openRouterURL(c.BaseURL, "/chat/completions"), key, headers, httpclient.ChatRequest{
		Model: c.Model,
		Messages: []httpclient.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: c.Temperature,
	})
}

func (c *Client) CheckConnection(ctx context.Context) bool {
	key, err := c.Settings.Get(ctx, c.KeySetting)
	if err != nil || key == "" {
		return false
	}
	return httpclient.Reachable(ctx, c.http, openRouterURL(c.BaseURL, "/models"), key)
}

// openRouterURL builds a URL for OpenRouter whether base contains /api/v1 or not.
func openRouterURL(base, tail string) string {
	b := strings.TrimRight(base, "/")
	if idx := strings.Index(b, "/api/v1"); idx >= 0 {
		return b[:idx+len("/api/v1")] + tail
	}
	return b + "/api/v1" + tail
}
