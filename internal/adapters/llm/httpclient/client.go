// Package httpclient holds the HTTP plumbing shared by the LLM providers.
package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 60 * time.Second

// New returns a resty client configured for provider calls.
func New(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of an OpenAI-compatible chat completion call.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat posts body to url and returns the trimmed content of the first choice.
// label prefixes error messages, e.g. "openai".
func Chat(ctx context.Context, c *resty.Client, label, url, apiKey string, headers map[string]string, body ChatRequest) (string, error) {
	var resp chatResponse
	var apiErr apiError
	rr, err := c.R().SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeaders(headers).
		SetBody(body).
		SetResult(&resp).
		SetError(&apiErr).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", label, err)
	}
	if rr.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = Abbreviate(rr.String(), 500)
		}
		if msg == "" {
			msg = "Unknown error"
		}
		return "", fmt.Errorf("%s API error (%d): %s", label, rr.StatusCode(), msg)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", label)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: failed to get a valid translation", label)
	}
	return content, nil
}

// Reachable reports whether a GET on url answers with a 2xx status.
func Reachable(ctx context.Context, c *resty.Client, url, apiKey string) bool {
	r := c.R().SetContext(ctx)
	if apiKey != "" {
		r = r.SetAuthToken(apiKey)
	}
	rr, err := r.Get(url)
	return err == nil && rr.IsSuccess()
}

func Abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
