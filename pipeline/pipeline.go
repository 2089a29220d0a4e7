// Package pipeline wires a whole conversion run:
// source → crawl → block/inline → sink, with images resolved through the
// resource cache, then renders the finished document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gaurav-prasanna/wikipipe/config"
	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/assets"
	"github.com/gaurav-prasanna/wikipipe/core/fetch"
	"github.com/gaurav-prasanna/wikipipe/core/link"
	"github.com/gaurav-prasanna/wikipipe/core/normalize"
	"github.com/gaurav-prasanna/wikipipe/core/output"
	"github.com/gaurav-prasanna/wikipipe/core/render"
	"github.com/gaurav-prasanna/wikipipe/core/source"
	"github.com/gaurav-prasanna/wikipipe/crawl"
)

// Job describes one conversion run.
type Job struct {
	Config      *config.Config
	ContentRoot string
	// AssetDir receives downloaded images (under img/).
	AssetDir string
	// DocumentDir is where the document is viewed from; local image
	// references are made relative to it. Defaults to AssetDir.
	DocumentDir string
	// Fetcher overrides the HTTP fetcher.
	Fetcher core.Fetcher
}

// Result is the outcome of a run.
type Result struct {
	Document []byte
	Pages    []string
	Fetches  int
}

// NewRenderer returns the sink for an output format.
func NewRenderer(format string) (core.Renderer, error) {
	switch format {
	case config.FormatHTML:
		return render.NewHTMLRenderer(), nil
	case config.FormatPDF:
		return render.NewPDFRenderer(), nil
	case config.FormatJSON:
		return render.NewJSONRenderer(), nil
	case config.FormatMarkdown:
		return render.NewMarkdownRenderer(), nil
	default:
		return nil, fmt.Errorf("no renderer for format %q", format)
	}
}

// Run converts the wiki under job.ContentRoot into renderer.
func Run(ctx context.Context, job Job, renderer core.Renderer, log *slog.Logger) (*Result, error) {
	cfg := job.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}

	store, err := output.New(job.AssetDir)
	if err != nil {
		return nil, fmt.Errorf("initializing asset store: %w", err)
	}
	docDir := job.DocumentDir
	if docDir == "" {
		docDir = store.OutputDir
	}
	fetcher := job.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(cfg.FetchTimeout)
	}
	cache := assets.New(fetcher, store, job.ContentRoot, docDir, log)

	opts := crawl.Options{
		Policy: link.Policy{Lowercase: cfg.LowercaseLinks, StrictExternal: cfg.StrictExternal},
	}
	if cfg.NormalizeHTML {
		opts.Normalizer = normalize.New()
	}

	src := source.NewFS(job.ContentRoot)
	src.StripFrontMatter = cfg.FrontMatter
	crawler := crawl.New(src, renderer, cache, opts, log)
	if err := crawler.Run(ctx, cfg.RootPage); err != nil {
		return nil, err
	}

	data, err := renderer.Render(Meta(cfg, job.ContentRoot))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	log.Info("conversion finished", "pages", len(crawler.Converted()), "fetches", cache.Fetches())
	return &Result{Document: data, Pages: crawler.Converted(), Fetches: cache.Fetches()}, nil
}

// Meta builds document metadata, titling an untitled wiki after its
// content directory.
func Meta(cfg *config.Config, contentRoot string) core.DocumentMeta {
	title := cfg.Title
	if title == "" {
		if abs, err := filepath.Abs(contentRoot); err == nil {
			title = link.TitleFromFilename(filepath.Base(abs))
		}
	}
	return core.DocumentMeta{
		Title:   title,
		Author:  cfg.Author,
		Subject: "Wiki converted from " + cfg.RootPage,
	}
}
