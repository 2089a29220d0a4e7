// Package render — JSON renderer.
// Builds a structured outline of the converted wiki: one entry per page
// with its headings, links, images and structural counts. No page text
// is kept beyond titles and headings.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gaurav-prasanna/wikipipe/core"
)

// JSONRenderer produces the JSON outline of a conversion run.
type JSONRenderer struct {
	pages []core.PageOutline

	header    *core.Heading // header block being collected, if any
	headerBuf strings.Builder
	tableOpen bool
	codeOpen  bool

	now func() time.Time
}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{now: time.Now}
}

var _ core.Renderer = (*JSONRenderer)(nil)

// page returns the outline receiving content, creating an untitled one when
// content arrives before any page header.
func (r *JSONRenderer) page() *core.PageOutline {
	if len(r.pages) == 0 {
		r.pages = append(r.pages, newOutline(""))
	}
	return &r.pages[len(r.pages)-1]
}

func newOutline(anchor string) core.PageOutline {
	return core.PageOutline{
		Anchor:   anchor,
		Headings: []core.Heading{},
		Links:    []core.Link{},
		Images:   []core.ImageRef{},
	}
}

// flushHeader stores the header collected so far.
func (r *JSONRenderer) flushHeader() {
	if r.header == nil {
		return
	}
	h := *r.header
	h.Text = strings.TrimSpace(r.headerBuf.String())
	r.header = nil
	r.headerBuf.Reset()

	p := r.page()
	if h.Level == 1 {
		p.Title = h.Text
		return
	}
	p.Headings = append(p.Headings, h)
}

func (r *JSONRenderer) startBlock() {
	r.flushHeader()
	r.tableOpen = false
}

func (r *JSONRenderer) StartHeader(level int, anchor string) {
	r.startBlock()
	if level == 1 {
		r.pages = append(r.pages, newOutline(anchor))
	}
	r.header = &core.Heading{Level: level, Anchor: anchor}
}

func (r *JSONRenderer) StartParagraph(indent int) { r.startBlock() }

func (r *JSONRenderer) StartNote(indent int) {
	r.startBlock()
	r.page().Structure.Notes++
}

func (r *JSONRenderer) AddListItem(indent int) {
	r.startBlock()
	r.page().Structure.ListItems++
}

func (r *JSONRenderer) ToggleCodeBlock(indent int) {
	if r.codeOpen {
		r.codeOpen = false
		return
	}
	r.startBlock()
	r.codeOpen = true
	r.page().Structure.CodeBlocks++
}

func (r *JSONRenderer) addSpan(text string) {
	if r.header != nil {
		r.headerBuf.WriteString(text)
	}
}

func (r *JSONRenderer) AddText(text string)       { r.addSpan(text) }
func (r *JSONRenderer) AddBold(text string)       { r.addSpan(text) }
func (r *JSONRenderer) AddItalic(text string)     { r.addSpan(text) }
func (r *JSONRenderer) AddInlineCode(text string) { r.addSpan(text) }

func (r *JSONRenderer) AddLink(text, target string, external bool) {
	r.addSpan(text)
	p := r.page()
	p.Links = append(p.Links, core.Link{Text: text, Href: href(target, external), External: external})
}

func (r *JSONRenderer) AddImage(img core.Image, inline bool) {
	if !inline {
		r.startBlock()
	}
	ref := core.ImageRef{Alt: img.Alt, Src: img.Src}
	if img.Link != "" {
		ref.Link = href(img.Link, img.LinkExternal)
	}
	p := r.page()
	p.Images = append(p.Images, ref)
}

func (r *JSONRenderer) AddTableCell(text string, rowLeading bool, columns int, header bool) {
	if !r.tableOpen {
		r.flushHeader()
		r.tableOpen = true
		r.page().Structure.Tables++
	}
}

func (r *JSONRenderer) CloseTable()           { r.tableOpen = false }
func (r *JSONRenderer) IsTableOpen() bool     { return r.tableOpen }
func (r *JSONRenderer) IsCodeBlockOpen() bool { return r.codeOpen }

// Render marshals the outline of every page converted so far.
func (r *JSONRenderer) Render(meta core.DocumentMeta) ([]byte, error) {
	r.flushHeader()
	pages := r.pages
	if pages == nil {
		pages = []core.PageOutline{}
	}
	out := core.WikiJSON{
		Title:       meta.Title,
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
		Pages:       pages,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
