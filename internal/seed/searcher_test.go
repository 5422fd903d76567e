package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSearcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`<html><body>
<a href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.vitra.com%2F&rut=abc">Vitra | Official</a>
<a href="https://www.vitra.com/about">Vitra about</a>
<a href="/settings">Settings</a>
<a href="https://www.vitra.com/about">duplicate</a>
</body></html>`))
	}))
	defer srv.Close()

	s := NewHTTPSearcher(srv.URL)
	results, err := s.Search(context.Background(), "vitra official site")
	require.NoError(t, err)

	assert.Equal(t, "vitra official site", gotQuery)
	require.Len(t, results, 2)
	assert.Equal(t, "https://www.vitra.com/", results[0].URL)
	assert.Equal(t, "Vitra | Official", results[0].Title)
	assert.Equal(t, "https://www.vitra.com/about", results[1].URL)
}

func TestHTTPSearcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPSearcher(srv.URL).Search(context.Background(), "vitra")
	assert.Error(t, err)
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t, "https://www.vitra.com/",
		unwrapRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.vitra.com%2F"))
	assert.Equal(t, "https://plain.example/x", unwrapRedirect("https://plain.example/x"))
}
