package block

import (
	"context"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/inline"
	"github.com/gaurav-prasanna/wikipipe/core/link"
)

// emitInline tokenizes text and emits each span into the current block.
func (s *Segmenter) emitInline(ctx context.Context, text string) {
	sink := s.cfg.Sink
	for _, sp := range inline.Tokenize(text) {
		switch sp.Kind {
		case inline.Text:
			sink.AddText(sp.Text)
		case inline.Bold:
			sink.AddBold(sp.Text)
		case inline.Italic:
			sink.AddItalic(sp.Text)
		case inline.Code:
			sink.AddInlineCode(sp.Text)
		case inline.Link:
			target, external := s.linkTarget(sp.Target)
			sink.AddLink(sp.Text, target, external)
		case inline.Image:
			s.emitImage(ctx, sp, "", false, true)
		case inline.LinkedImage:
			target, external := s.linkTarget(sp.Target)
			s.emitImage(ctx, sp, target, external, true)
		}
	}
}

// linkTarget returns what the sink should link to and reports intra-wiki
// pages to OnLink. External targets pass through untouched.
func (s *Segmenter) linkTarget(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if s.cfg.Policy.IsExternal(raw) {
		return raw, true
	}
	page, _, fragment := strings.Cut(raw, "#")
	if strings.TrimSpace(page) == "" {
		return s.cfg.Policy.Anchor(raw), false
	}
	id := s.cfg.Policy.PageID(page)
	if s.cfg.Canonical != nil {
		id = s.cfg.Canonical(id)
	}
	if s.cfg.OnLink != nil {
		if fragment {
			// rejected by the crawl rules, so never converted
			s.cfg.OnLink(s.cfg.Policy.PageID(raw))
		} else {
			s.cfg.OnLink(id)
		}
	}
	return link.PageAnchor(id), false
}

// emitImage resolves an image span and emits it. An unavailable image
// degrades to a "[alt]" text placeholder.
func (s *Segmenter) emitImage(ctx context.Context, sp inline.Span, target string, external, inlined bool) {
	src := strings.TrimSpace(sp.Source)
	asset := core.Asset{Path: src, Src: src}
	if s.cfg.Resolver != nil {
		var err error
		asset, err = s.cfg.Resolver.Resolve(ctx, src)
		if err != nil {
			if !inlined {
				s.cfg.Sink.StartParagraph(0)
			}
			s.cfg.Sink.AddText(placeholder(sp.Text))
			return
		}
	}
	s.cfg.Sink.AddImage(core.Image{
		Alt:          sp.Text,
		Path:         asset.Path,
		Src:          asset.Src,
		Link:         target,
		LinkExternal: external,
	}, inlined)
}

func placeholder(alt string) string {
	if alt == "" {
		alt = "image"
	}
	return "[" + alt + "]"
}
