package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Snapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusFound)
		case "/new":
			_, _ = w.Write([]byte("<html><body>hi</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	snap, err := New(srv.URL+"/old", 0).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", snap.URL)
	assert.Contains(t, snap.HTML, "hi")

	_, err = New(srv.URL+"/gone", 0).Snapshot(context.Background())
	assert.ErrorContains(t, err, "404")
}
