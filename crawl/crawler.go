// Package crawl provides the breadth-first wiki page crawl.
// Starting from a root page it converts every page reachable through
// intra-wiki links exactly once, feeding all of them into one sink.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/block"
	"github.com/gaurav-prasanna/wikipipe/core/link"
)

// Options tune a crawl.
type Options struct {
	Policy link.Policy
	// Normalizer, when set, converts raw HTML lines to Markdown.
	Normalizer core.Normalizer
}

// Crawler converts a wiki page graph into a sink. A Crawler is good for a
// single Run; it is not safe for concurrent use.
type Crawler struct {
	source   core.PageSource
	sink     core.Sink
	resolver block.Resolver
	opts     Options
	log      *slog.Logger

	queue     *Queue
	converted []string

	ids     map[string]string // page id -> canonical id
	missing map[string]string // folded id -> first spelling seen
}

// New creates a Crawler.
func New(source core.PageSource, sink core.Sink, resolver block.Resolver, opts Options, log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}
	return &Crawler{
		source:   source,
		sink:     sink,
		resolver: resolver,
		opts:     opts,
		log:      log,
		queue:    NewQueue(),
		ids:      make(map[string]string),
		missing:  make(map[string]string),
	}
}

// Run converts root and then drains the pending queue in FIFO order.
// A missing root is an error; missing linked pages are only logged.
func (c *Crawler) Run(ctx context.Context, root string) error {
	id := c.opts.Policy.PageID(root)
	if !Convertible(id, c.opts.Policy) {
		return fmt.Errorf("root page %q is not a local wiki page", root)
	}
	canon, err := c.source.Locate(id)
	if err != nil {
		return fmt.Errorf("reading root page: %w", err)
	}
	c.ids[id] = canon
	lines, err := c.source.ReadLines(canon)
	if err != nil {
		return fmt.Errorf("reading root page: %w", err)
	}
	c.convert(ctx, canon, lines)

	for c.queue.HasNext() {
		c.visit(ctx, c.queue.Next())
	}
	return nil
}

// Converted returns the converted pages in conversion order.
func (c *Crawler) Converted() []string {
	return c.converted
}

// canonical maps a linked page id to the identity of the page it names, so
// spellings that differ by case or by "./" segments share one entry in the
// converted set and one anchor. Missing pages get one identity per
// case-folded spelling.
func (c *Crawler) canonical(id string) string {
	if canon, ok := c.ids[id]; ok {
		return canon
	}
	canon := id
	if Convertible(id, c.opts.Policy) {
		if found, err := c.source.Locate(id); err == nil {
			canon = found
		} else {
			canon = path.Clean(id)
			fold := strings.ToLower(canon)
			if first, ok := c.missing[fold]; ok {
				canon = first
			} else {
				c.missing[fold] = canon
			}
		}
	}
	c.ids[id] = canon
	return canon
}

func (c *Crawler) visit(ctx context.Context, id string) {
	if !Convertible(id, c.opts.Policy) {
		c.queue.MarkDone(id)
		c.log.Debug("skipping reference", "page", id)
		return
	}
	lines, err := c.source.ReadLines(id)
	if err != nil {
		c.queue.MarkDone(id)
		if errors.Is(err, core.ErrPageNotFound) {
			c.log.Warn("invalid page reference", "page", id)
		} else {
			c.log.Warn("unreadable page", "page", id, "error", err)
		}
		return
	}
	c.convert(ctx, id, lines)
}

// convert emits one page. The page joins the converted set before any of
// its links are queued.
func (c *Crawler) convert(ctx context.Context, id string, lines []string) {
	c.queue.MarkDone(id)
	c.log.Info("converting page", "page", id)

	c.sink.StartHeader(1, link.PageAnchor(id))
	c.sink.AddText(link.TitleFromFilename(id))

	seg := block.New(block.Config{
		Sink:       c.sink,
		Resolver:   c.resolver,
		Policy:     c.opts.Policy,
		Normalizer: c.opts.Normalizer,
		Canonical:  c.canonical,
		OnLink:     c.queue.Add,
		Log:        c.log,
	})
	for _, line := range lines {
		seg.Line(ctx, line)
	}
	seg.Finish()

	c.converted = append(c.converted, id)
}
