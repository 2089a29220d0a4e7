// Package render — Markdown renderer.
// Writes the whole wiki back out as one normalized Markdown file: page
// links become "#anchor" links, every page header gets an explicit
// <a id> anchor, and document metadata goes into YAML front matter.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core"
	"gopkg.in/yaml.v2"
)

type mdKind int

const (
	mdNone mdKind = iota
	mdHeader
	mdParagraph
	mdNote
	mdItem
	mdCode
	mdTable
)

type frontMatter struct {
	Title   string `yaml:"title,omitempty"`
	Author  string `yaml:"author,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MarkdownRenderer renders the wiki as a single Markdown document.
type MarkdownRenderer struct {
	out    strings.Builder
	line   strings.Builder
	prefix string
	open   bool // a block line is being collected
	last   mdKind

	code bool

	table     bool
	row       []string
	rowHeader bool
	rows      int
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

var _ core.Renderer = (*MarkdownRenderer)(nil)

func (r *MarkdownRenderer) flushLine() {
	if !r.open {
		return
	}
	r.out.WriteString(r.prefix + r.line.String() + "\n")
	r.line.Reset()
	r.open = false
}

// begin closes the current block and separates the next one. Consecutive
// list items stay together.
func (r *MarkdownRenderer) begin(kind mdKind) {
	r.flushLine()
	r.CloseTable()
	if r.out.Len() > 0 && !(kind == mdItem && r.last == mdItem) {
		r.out.WriteString("\n")
	}
	r.last = kind
}

func (r *MarkdownRenderer) startLine(kind mdKind, prefix string) {
	r.begin(kind)
	r.prefix = prefix
	r.open = true
}

func (r *MarkdownRenderer) StartHeader(level int, anchor string) {
	r.begin(mdHeader)
	if anchor != "" {
		fmt.Fprintf(&r.out, "<a id=\"%s\"></a>\n", anchor)
	}
	r.prefix = strings.Repeat("#", level) + " "
	r.open = true
}

func (r *MarkdownRenderer) StartParagraph(indent int) { r.startLine(mdParagraph, "") }
func (r *MarkdownRenderer) StartNote(indent int)      { r.startLine(mdNote, "> ") }

// AddListItem nests one level per two spaces of source indentation.
func (r *MarkdownRenderer) AddListItem(indent int) {
	r.startLine(mdItem, strings.Repeat("  ", indent/2)+"* ")
}

func (r *MarkdownRenderer) ToggleCodeBlock(indent int) {
	if r.code {
		r.out.WriteString("```\n")
		r.code = false
		return
	}
	r.begin(mdCode)
	r.out.WriteString("```\n")
	r.code = true
}

func (r *MarkdownRenderer) inline(s string) {
	if !r.open {
		r.startLine(mdParagraph, "")
	}
	r.line.WriteString(s)
}

func (r *MarkdownRenderer) AddText(text string) {
	if r.code {
		r.out.WriteString(text + "\n")
		return
	}
	r.inline(text)
}

func (r *MarkdownRenderer) AddBold(text string)       { r.inline("**" + text + "**") }
func (r *MarkdownRenderer) AddItalic(text string)     { r.inline("_" + text + "_") }
func (r *MarkdownRenderer) AddInlineCode(text string) { r.inline("`" + text + "`") }

func (r *MarkdownRenderer) AddLink(text, target string, external bool) {
	r.inline("[" + text + "](" + href(target, external) + ")")
}

func (r *MarkdownRenderer) AddImage(img core.Image, inline bool) {
	md := "![" + img.Alt + "](" + img.Src + ")"
	if img.Link != "" {
		md = "[" + md + "](" + href(img.Link, img.LinkExternal) + ")"
	}
	if !inline {
		r.startLine(mdParagraph, "")
		r.line.WriteString(md)
		r.flushLine()
		return
	}
	r.inline(md)
}

func (r *MarkdownRenderer) AddTableCell(text string, rowLeading bool, columns int, header bool) {
	if !r.table {
		r.begin(mdTable)
		r.table = true
		r.rows = 0
	}
	if rowLeading && len(r.row) > 0 {
		r.flushRow()
	}
	r.row = append(r.row, strings.ReplaceAll(text, "|", `\|`))
	r.rowHeader = header
}

func (r *MarkdownRenderer) flushRow() {
	r.out.WriteString("| " + strings.Join(r.row, " | ") + " |\n")
	if r.rows == 0 && r.rowHeader {
		r.out.WriteString("|" + strings.Repeat(" --- |", len(r.row)) + "\n")
	}
	r.rows++
	r.row = r.row[:0]
}

func (r *MarkdownRenderer) CloseTable() {
	if !r.table {
		return
	}
	if len(r.row) > 0 {
		r.flushRow()
	}
	r.table = false
}

func (r *MarkdownRenderer) IsTableOpen() bool     { return r.table }
func (r *MarkdownRenderer) IsCodeBlockOpen() bool { return r.code }

// Render returns the document with its front matter.
func (r *MarkdownRenderer) Render(meta core.DocumentMeta) ([]byte, error) {
	r.flushLine()
	r.CloseTable()
	body := r.out.String()
	if r.code {
		body += "```\n"
	}

	fm, err := yaml.Marshal(frontMatter{Title: meta.Title, Author: meta.Author, Subject: meta.Subject})
	if err != nil {
		return nil, fmt.Errorf("marshaling front matter: %w", err)
	}
	var b strings.Builder
	if s := string(fm); s != "{}\n" {
		b.WriteString("---\n" + s + "---\n\n")
	}
	b.WriteString(body)
	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
