package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/wikipipe/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, pages map[string]string) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range pages {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	cfg := config.Default()
	cfg.Title = "Preview"
	srv := httptest.NewServer(NewServer(cfg, root, t.TempDir(), nil, quiet))
	t.Cleanup(srv.Close)
	return srv, root
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServer_WikiReflectsEdits(t *testing.T) {
	srv, root := newTestServer(t, map[string]string{
		"Home.md": "first version",
	})

	get := func() *goquery.Document {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		require.NoError(t, err)
		return doc
	}

	assert.Contains(t, get().Find("body").Text(), "first version")
	require.NoError(t, os.WriteFile(filepath.Join(root, "Home.md"), []byte("second version"), 0644))
	doc := get()
	assert.Contains(t, doc.Find("body").Text(), "second version")
	assert.Equal(t, "Preview", doc.Find("title").Text())
}

func TestServer_LocalImages(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"Home.md":            "![diagram](images/diagram.png)",
		"images/diagram.png": "png-bytes",
	})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	src, _ := doc.Find("img").Attr("src")
	assert.Equal(t, "images/diagram.png", src)

	resp, err = http.Get(srv.URL + "/" + src)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png-bytes", string(body))
}

func TestServer_MissingRoot(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"Other.md": "x"})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RemoteImagesFetchedOnce(t *testing.T) {
	var hits, broken int32
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.png" {
			atomic.AddInt32(&broken, 1)
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	t.Cleanup(images.Close)

	srv, _ := newTestServer(t, map[string]string{
		"Home.md": fmt.Sprintf("![logo](%s/logo.png)\n![x](%s/broken.png)", images.URL, images.URL),
	})
	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.EqualValues(t, 2, atomic.LoadInt32(&broken))

	resp, err := http.Get(srv.URL + "/img/logo.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png", string(body))
}
