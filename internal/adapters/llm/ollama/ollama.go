// Package ollama translates through a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"learnsnap/internal/adapters/llm/httpclient"
	"learnsnap/internal/adapters/prompt"
	"learnsnap/internal/ports"
)

const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultModel       = "llama3"
	DefaultTemperature = 0.2
)

type Client struct {
	name        string
	BaseURL     string
	Model       string
	Temperature float64
	Prompts     ports.PromptRenderer
	http        *resty.Client
}

// New returns a client registered as name. Empty baseURL and model fall back to the defaults.
func New(http *resty.Client, name, baseURL, model string, prompts ports.PromptRenderer) *Client {
	if name == "" {
		name = "ollama"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{name: name, BaseURL: strings.TrimRight(baseURL, "/"), Model: model, Temperature: DefaultTemperature, Prompts: prompts, http: http}
}

func (c *Client) Name() string { return c.name }

func (c *Client) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	p, err := c.Prompts.Render(ctx, prompt.OllamaTranslate, ports.PromptData{SrcLang: from, TgtLang: to, Text: text})
	if err != nil {
		return "", err
	}
	body := map[string]any{
		"model":   c.Model,
		"prompt":  p,
		"stream":  false,
		"options": map[string]any{"temperature": c.Temperature},
	}
	var resp struct {
		Response string `json:"response"`
	}
	rr, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&resp).Post(c.BaseURL + "/api/generate")
	if err != nil {
		return "", fmt.Errorf("could not connect to the Ollama service at %s: %w", c.BaseURL, err)
	}
	if rr.IsError() {
		return "", fmt.Errorf("ollama API request failed with status %d: %s", rr.StatusCode(), httpclient.Abbreviate(rr.String(), 500))
	}
	return strings.TrimSpace(resp.Response), nil
}

func (c *Client) CheckConnection(ctx context.Context) bool {
	return httpclient.Reachable(ctx, c.http, c.BaseURL+"/api/tags", "")
}
