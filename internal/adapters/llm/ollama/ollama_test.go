package ollama

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
)

func TestClient_Translate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"  Hallo Welt \n"}`))
	}))
	defer srv.Close()

	c := New(httpclient.New(0), "", srv.URL, "", prompt.New(nil))
	out, err := c.Translate(context.Background(), "Hello world", "English", "German")
	require.NoError(t, err)
	assert.Equal(t, "Hallo Welt", out)
	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, false, got["stream"])
	assert.Contains(t, got["prompt"], "Hello world")
	assert.Equal(t, 0.2, got["options"].(map[string]any)["temperature"])
	assert.Equal(t, "ollama", c.Name())
}

func TestClient_BlankSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	out, err := New(httpclient.New(0), "", srv.URL, "", prompt.New(nil)).Translate(context.Background(), "  \n ", "en", "de")
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Zero(t, calls)
}

func TestClient_ErrorsNameCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()
	_, err := New(httpclient.New(0), "", srv.URL, "", prompt.New(nil)).Translate(context.Background(), "hi", "en", "de")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")

	srv.Close()
	_, err = New(httpclient.New(0), "", srv.URL, "", prompt.New(nil)).Translate(context.Background(), "hi", "en", "de")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not connect to the Ollama service")
}

func TestClient_CheckConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	c := New(httpclient.New(0), "", srv.URL, "", prompt.New(nil))
	assert.True(t, c.CheckConnection(context.Background()))
	srv.Close()
	assert.False(t, c.CheckConnection(context.Background()))
}
