// Package core defines the conversion interfaces for WikiPipe.
// Each collaborator of the Markdown conversion engine is a small,
// testable interface so that sources, fetchers and sinks can be swapped.
package core

import (
	"context"
	"errors"
)

// ErrPageNotFound is returned by a PageSource when a page does not exist.
var ErrPageNotFound = errors.New("page not found")

// FetchResult holds the raw bytes and response metadata from a fetch.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Asset is a resource materialized on the local filesystem.
type Asset struct {
	// Path is where the resource lives on disk.
	Path string
	// Src is how the rendered document refers to it (relative to the output).
	Src string
}

// Image is an image emission: a resolved asset plus optional link.
type Image struct {
	Alt  string
	Path string
	Src  string
	// Link is an in-document anchor or an external URL ("" when unlinked).
	Link         string
	LinkExternal bool
}

// Heading represents a single heading found in the content.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor,omitempty"`
}

// Link represents a hyperlink found in the content.
type Link struct {
	Text     string `json:"text"`
	Href     string `json:"href"`
	External bool   `json:"external"`
}

// ImageRef represents an image found in the content.
type ImageRef struct {
	Alt  string `json:"alt"`
	Src  string `json:"src"`
	Link string `json:"link,omitempty"`
}

// PageStructure holds structural counts for one page.
type PageStructure struct {
	CodeBlocks int `json:"code_blocks"`
	Tables     int `json:"tables"`
	ListItems  int `json:"list_items"`
	Notes      int `json:"notes"`
}

// PageOutline is the JSON outline of one converted wiki page.
type PageOutline struct {
	Title     string        `json:"title"`
	Anchor    string        `json:"anchor"`
	Headings  []Heading     `json:"headings"`
	Links     []Link        `json:"links"`
	Images    []ImageRef    `json:"images"`
	Structure PageStructure `json:"structure"`
}

// WikiJSON is the complete JSON output for a conversion run.
type WikiJSON struct {
	Title       string        `json:"title"`
	GeneratedAt string        `json:"generated_at"` // ISO8601
	Pages       []PageOutline `json:"pages"`
}

// DocumentMeta describes the rendered artifact as a whole.
type DocumentMeta struct {
	Title   string
	Author  string
	Subject string
}

// Fetcher retrieves a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// PageSource returns the raw lines of a named wiki page.
// Missing pages are reported with an error wrapping ErrPageNotFound.
type PageSource interface {
	// Locate returns the canonical identifier of the page pageID names.
	// Identifiers that reach the same page locate to the same value.
	Locate(pageID string) (string, error)
	ReadLines(pageID string) ([]string, error)
}

// Normalizer converts an HTML fragment into Markdown.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Sink is the structured document builder the conversion engine emits into.
// Block-level calls start a new current block; inline calls append to it.
type Sink interface {
	// StartHeader starts a header block. Level 1 is reserved for page titles.
	// anchor names the header as a link target ("" for none).
	StartHeader(level int, anchor string)
	StartParagraph(indent int)
	StartNote(indent int)
	AddListItem(indent int)
	ToggleCodeBlock(indent int)

	AddText(text string)
	AddBold(text string)
	AddItalic(text string)
	AddInlineCode(text string)
	// AddLink adds a link span. target is an in-document anchor unless external.
	AddLink(text, target string, external bool)
	AddImage(img Image, inline bool)

	AddTableCell(text string, rowLeading bool, columns int, header bool)
	CloseTable()

	IsTableOpen() bool
	IsCodeBlockOpen() bool
}

// Renderer is a Sink that produces a final artifact.
type Renderer interface {
	Sink
	Render(meta DocumentMeta) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".html", ".pdf").
	Extension() string
}
