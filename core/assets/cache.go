// Package assets resolves image and resource references to local files.
// Remote references are downloaded once per run into the output's img/
// directory; relative references point into the wiki content root.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/output"
)

// Store persists downloaded resources.
type Store interface {
	WriteAsset(name string, data []byte) (string, error)
}

type entry struct {
	asset core.Asset
	err   error
}

// Cache maps remote URLs to materialized local files.
// A URL is fetched at most once per Cache, including failed fetches.
// Cache is owned by a single conversion run and is not safe for concurrent use.
type Cache struct {
	fetcher     core.Fetcher
	store       Store
	contentRoot string
	outputDir   string
	log         *slog.Logger

	entries map[string]entry
	fetches int
}

// New creates a Cache. contentRoot anchors relative references and
// outputDir is where the rendered document will be written.
func New(fetcher core.Fetcher, store Store, contentRoot, outputDir string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		fetcher:     fetcher,
		store:       store,
		contentRoot: contentRoot,
		outputDir:   outputDir,
		log:         log,
		entries:     make(map[string]entry),
	}
}

// IsRemote reports whether ref must be fetched over the network.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Resolve returns the local asset for ref, fetching it on first sight.
func (c *Cache) Resolve(ctx context.Context, ref string) (core.Asset, error) {
	if !IsRemote(ref) {
		return c.local(ref), nil
	}
	if e, ok := c.entries[ref]; ok {
		return e.asset, e.err
	}

	e := c.download(ctx, ref)
	c.entries[ref] = e
	if e.err != nil {
		c.log.Warn("image unavailable", "url", ref, "error", e.err)
	}
	return e.asset, e.err
}

// Fetches returns how many remote fetches the cache has issued.
func (c *Cache) Fetches() int {
	return c.fetches
}

func (c *Cache) download(ctx context.Context, ref string) entry {
	name := AssetName(ref)
	c.fetches++
	res, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return entry{err: fmt.Errorf("fetch: %w", err)}
	}
	p, err := c.store.WriteAsset(name, res.Body)
	if err != nil {
		return entry{err: fmt.Errorf("store: %w", err)}
	}
	return entry{asset: core.Asset{Path: p, Src: output.AssetDir + "/" + name}}
}

// local resolves a reference relative to the content root.
func (c *Cache) local(ref string) core.Asset {
	p := filepath.Join(c.contentRoot, filepath.FromSlash(ref))
	src := filepath.ToSlash(p)
	if rel, err := filepath.Rel(c.outputDir, p); err == nil {
		src = filepath.ToSlash(rel)
	}
	return core.Asset{Path: p, Src: src}
}

// AssetName derives the local file name of a remote reference from the last
// segment of its URL path.
func AssetName(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
