package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnsnap/internal/adapters/llm/httpclient"
	"learnsnap/internal/adapters/prompt"
	"learnsnap/internal/domain"
)

type keys map[string]string

func (k keys) Get(_ context.Context, key string) (string, error) { return k[key], nil }

func TestClient_Translate(t *testing.T) {
	var body httpclient.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" 你好 "}}]}`))
	}))
	defer srv.Close()

	c := New(httpclient.New(0), "", srv.URL, "", keys{domain.SettingOpenAIKey: "sk-test"}, prompt.New(nil))
	out, err := c.Translate(context.Background(), "Hello", "English", "Chinese")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
	assert.Equal(t, "gpt-4o", body.Model)
	assert.Equal(t, 0.3, body.Temperature)
	assert.Equal(t, 2000, body.MaxTokens)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Contains(t, body.Messages[0].Content, "from English to Chinese")
	assert.Equal(t, "Hello", body.Messages[1].Content)
}

func TestClient_MissingKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c := New(httpclient.New(0), "", srv.URL, "", keys{}, prompt.New(nil))
	_, err := c.Translate(context.Background(), "Hello", "en", "zh")
	assert.ErrorIs(t, err, domain.ErrAPIKeyMissing)
	assert.False(t, c.CheckConnection(context.Background()))
	assert.Zero(t, calls)
}

func TestClient_APIErrorAndEmptyContent(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	c := New(httpclient.New(0), "", srv.URL, "", keys{domain.SettingOpenAIKey: "bad"}, prompt.New(nil))
	_, err := c.Translate(context.Background(), "Hello", "en", "zh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")

	status = http.StatusOK
	_, err = c.Translate(context.Background(), "Hello", "en", "zh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get a valid translation")
}

func TestClient_CheckConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" && r.Header.Get("Authorization") == "Bearer sk-ok" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	assert.True(t, New(httpclient.New(0), "", srv.URL, "", keys{domain.SettingOpenAIKey: "sk-ok"}, prompt.New(nil)).CheckConnection(context.Background()))
	assert.False(t, New(httpclient.New(0), "", srv.URL, "", keys{domain.SettingOpenAIKey: "sk-no"}, prompt.New(nil)).CheckConnection(context.Background()))
}
