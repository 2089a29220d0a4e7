package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls map[string]int
	fail  bool
}

func (f *countingFetcher) Fetch(_ context.Context, url string) (*core.FetchResult, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[url]++
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return &core.FetchResult{URL: url, StatusCode: 200, Body: []byte("data:" + url)}, nil
}

func newCache(t *testing.T, f core.Fetcher) (*Cache, string) {
	t.Helper()
	out := t.TempDir()
	w, err := output.New(out)
	require.NoError(t, err)
	return New(f, w, "wiki", out, nil), out
}

func TestResolve_FetchesOnce(t *testing.T) {
	f := &countingFetcher{}
	c, out := newCache(t, f)
	ctx := context.Background()

	a, err := c.Resolve(ctx, "http://x/y.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "img", "y.png"), a.Path)
	assert.Equal(t, "img/y.png", a.Src)

	again, err := c.Resolve(ctx, "http://x/y.png")
	require.NoError(t, err)
	assert.Equal(t, a, again)
	assert.Equal(t, 1, f.calls["http://x/y.png"])
	assert.Equal(t, 1, c.Fetches())

	b, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "data:http://x/y.png", string(b))
}

func TestResolve_FailureIsRemembered(t *testing.T) {
	f := &countingFetcher{fail: true}
	c, _ := newCache(t, f)

	_, err := c.Resolve(context.Background(), "https://x/broken.png")
	require.Error(t, err)
	_, err = c.Resolve(context.Background(), "https://x/broken.png")
	require.Error(t, err)
	assert.Equal(t, 1, f.calls["https://x/broken.png"])
}

func TestResolve_RelativeBypassesFetcher(t *testing.T) {
	f := &countingFetcher{}
	c, _ := newCache(t, f)

	a, err := c.Resolve(context.Background(), "images/diagram.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("wiki", "images", "diagram.png"), a.Path)
	assert.Empty(t, f.calls)
}

func TestAssetName(t *testing.T) {
	assert.Equal(t, "y.png", AssetName("http://x/a/y.png?raw=true"))
	assert.Equal(t, "image", AssetName("http://x/"))
	assert.Equal(t, "logo.svg", AssetName("https://example.com/logo.svg"))
}
