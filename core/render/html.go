// Package render — HTML renderer.
// Builds one HTML document for the whole wiki as an x/net/html node tree.
// Every page starts with an <h1 id="anchor">, so intra-wiki links become
// in-document "#anchor" links. A table of contents is generated from the
// page headers when the document is rendered.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/wikipipe/core"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const stylesheet = `
body { font-family: Helvetica, Arial, sans-serif; max-width: 50em; margin: 2em auto; line-height: 1.5; }
h1 { border-bottom: 1px solid #ddd; margin-top: 2em; }
pre { background: #f5f5f5; padding: 0.8em; overflow-x: auto; }
code { font-family: Courier, monospace; }
blockquote { border-left: 4px solid #ddd; margin-left: 0; padding-left: 1em; color: #555; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; }
th { background: #f0f0f0; }
img { max-width: 100%; }
`

// listLevel is one open <ul> and the indentation that opened it.
type listLevel struct {
	indent int
	ul     *html.Node
}

// HTMLRenderer renders the wiki as a single HTML document.
type HTMLRenderer struct {
	body    *html.Node
	current *html.Node // block receiving inline content
	code    *html.Node // open <code> inside <pre>, if any
	table   *html.Node
	row     *html.Node
	lists   []listLevel
}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{body: element("body")}
}

var _ core.Renderer = (*HTMLRenderer)(nil)

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// startBlock closes open lists and tables and appends a new block to the body.
func (r *HTMLRenderer) startBlock(n *html.Node) {
	r.lists = nil
	r.CloseTable()
	r.body.AppendChild(n)
	r.current = n
}

func indentAttrs(indent int) []string {
	if indent <= 0 {
		return nil
	}
	return []string{"style", fmt.Sprintf("margin-left: %.1fem", float64(indent)/2)}
}

// StartHeader starts an <hN> header; level 1 marks a page.
func (r *HTMLRenderer) StartHeader(level int, anchor string) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	var attrs []string
	if anchor != "" {
		attrs = []string{"id", anchor}
	}
	r.startBlock(element("h"+strconv.Itoa(level), attrs...))
}

func (r *HTMLRenderer) StartParagraph(indent int) {
	r.startBlock(element("p", indentAttrs(indent)...))
}

func (r *HTMLRenderer) StartNote(indent int) {
	r.startBlock(element("blockquote", indentAttrs(indent)...))
}

// AddListItem appends an <li>, nesting a new <ul> when indentation grows.
func (r *HTMLRenderer) AddListItem(indent int) {
	r.CloseTable()
	for len(r.lists) > 1 && r.lists[len(r.lists)-1].indent > indent {
		r.lists = r.lists[:len(r.lists)-1]
	}
	if len(r.lists) == 0 || indent > r.lists[len(r.lists)-1].indent {
		ul := element("ul")
		if len(r.lists) == 0 {
			r.body.AppendChild(ul)
		} else {
			parent := r.lists[len(r.lists)-1].ul
			if last := parent.LastChild; last != nil {
				parent = last
			}
			parent.AppendChild(ul)
		}
		r.lists = append(r.lists, listLevel{indent: indent, ul: ul})
	}
	li := element("li")
	r.lists[len(r.lists)-1].ul.AppendChild(li)
	r.current = li
}

func (r *HTMLRenderer) ToggleCodeBlock(indent int) {
	if r.code != nil {
		r.code = nil
		r.current = nil
		return
	}
	pre := element("pre", indentAttrs(indent)...)
	r.startBlock(pre)
	r.code = element("code")
	pre.AppendChild(r.code)
}

// target returns the node receiving inline content, opening a paragraph if needed.
func (r *HTMLRenderer) target() *html.Node {
	if r.current == nil {
		r.StartParagraph(0)
	}
	return r.current
}

func (r *HTMLRenderer) AddText(text string) {
	if r.code != nil {
		r.code.AppendChild(textNode(text + "\n"))
		return
	}
	r.target().AppendChild(textNode(text))
}

func (r *HTMLRenderer) addWrapped(tag, text string) {
	n := element(tag)
	n.AppendChild(textNode(text))
	r.target().AppendChild(n)
}

func (r *HTMLRenderer) AddBold(text string)       { r.addWrapped("b", text) }
func (r *HTMLRenderer) AddItalic(text string)     { r.addWrapped("em", text) }
func (r *HTMLRenderer) AddInlineCode(text string) { r.addWrapped("code", text) }

func href(target string, external bool) string {
	if external {
		return target
	}
	return "#" + target
}

func (r *HTMLRenderer) AddLink(text, target string, external bool) {
	a := element("a", "href", href(target, external))
	a.AppendChild(textNode(text))
	r.target().AppendChild(a)
}

func (r *HTMLRenderer) AddImage(img core.Image, inline bool) {
	n := element("img", "src", img.Src, "alt", img.Alt)
	if img.Link != "" {
		a := element("a", "href", href(img.Link, img.LinkExternal))
		a.AppendChild(n)
		n = a
	}
	if inline {
		r.target().AppendChild(n)
		return
	}
	p := element("p", "class", "image")
	r.startBlock(p)
	p.AppendChild(n)
}

// AddTableCell appends a cell, opening the table or a new row as needed.
func (r *HTMLRenderer) AddTableCell(text string, rowLeading bool, columns int, header bool) {
	if r.table == nil {
		t := element("table")
		r.startBlock(t)
		r.table = t
		r.current = nil
	}
	if rowLeading || r.row == nil {
		r.row = element("tr")
		r.table.AppendChild(r.row)
	}
	tag := "td"
	if header {
		tag = "th"
	}
	cell := element(tag)
	cell.AppendChild(textNode(text))
	r.row.AppendChild(cell)
}

func (r *HTMLRenderer) CloseTable() {
	if r.table == nil {
		return
	}
	r.table = nil
	r.row = nil
	r.current = nil
}

func (r *HTMLRenderer) IsTableOpen() bool     { return r.table != nil }
func (r *HTMLRenderer) IsCodeBlockOpen() bool { return r.code != nil }

// Render assembles the document, adds the table of contents and serializes it.
func (r *HTMLRenderer) Render(meta core.DocumentMeta) ([]byte, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element("html")
	doc.AppendChild(root)

	head := element("head")
	head.AppendChild(element("meta", "charset", "utf-8"))
	title := element("title")
	title.AppendChild(textNode(meta.Title))
	head.AppendChild(title)
	if meta.Author != "" {
		head.AppendChild(element("meta", "name", "author", "content", meta.Author))
	}
	style := element("style")
	style.AppendChild(textNode(stylesheet))
	head.AppendChild(style)
	root.AppendChild(head)

	if r.body.Parent != nil {
		r.body.Parent.RemoveChild(r.body)
	}
	root.AppendChild(r.body)

	d := goquery.NewDocumentFromNode(doc)
	d.Find("body > nav#toc").Remove()
	if toc := tableOfContents(d); toc != nil {
		d.Find("body").PrependNodes(toc)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// tableOfContents lists every page header of the document.
func tableOfContents(d *goquery.Document) *html.Node {
	pages := d.Find("body > h1[id]")
	if pages.Length() == 0 {
		return nil
	}
	nav := element("nav", "id", "toc")
	ul := element("ul")
	nav.AppendChild(ul)
	pages.Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		a := element("a", "href", "#"+id)
		a.AppendChild(textNode(strings.TrimSpace(s.Text())))
		li := element("li")
		li.AppendChild(a)
		ul.AppendChild(li)
	})
	return nav
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
