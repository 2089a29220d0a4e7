// Package render — PDF renderer.
// Lays the converted wiki out as one PDF using gofpdf. Each wiki page
// starts on a new PDF page with an outline bookmark; intra-wiki links are
// internal PDF links to the page or header anchor. Tables are drawn as
// bordered grids and images are embedded, with a text placeholder when an
// image cannot be decoded.
package render

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/jung-kurt/gofpdf"
)

const (
	bodyFont     = "Helvetica"
	codeFont     = "Courier"
	bodySize     = 10.0
	bodyLine     = 5.0
	codeSize     = 9.0
	codeLine     = 4.5
	indentStep   = 2.5 // mm per space of source indentation
	tableRowLine = 6.0
)

var headingSizes = map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11}

type flowKind int

const (
	flowNone flowKind = iota
	flowParagraph
	flowNote
	flowItem
)

type pdfHeader struct {
	level  int
	anchor string
	text   strings.Builder
}

type pdfRow struct {
	header bool
	cells  []string
}

// PDFRenderer renders the wiki as a PDF document.
type PDFRenderer struct {
	pdf        *gofpdf.Fpdf
	tr         func(string) string
	leftMargin float64

	pages  int
	header *pdfHeader
	flow   flowKind
	indent int

	code       []string
	codeOpen   bool
	codeIndent int

	rows      []pdfRow
	tableOpen bool

	links    map[string]int // anchor -> internal link id
	resolved map[string]bool
}

// NewPDFRenderer creates a PDFRenderer on A4 paper.
func NewPDFRenderer() *PDFRenderer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	left, _, _, _ := pdf.GetMargins()
	return &PDFRenderer{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		leftMargin: left,
		links:      make(map[string]int),
		resolved:   make(map[string]bool),
	}
}

var _ core.Renderer = (*PDFRenderer)(nil)

// linkID returns the internal link for an anchor, allocating it on first use.
func (r *PDFRenderer) linkID(anchor string) int {
	id, ok := r.links[anchor]
	if !ok {
		id = r.pdf.AddLink()
		r.links[anchor] = id
	}
	return id
}

// availableWidth is the printable width at the current left margin.
func (r *PDFRenderer) availableWidth() float64 {
	w, _ := r.pdf.GetPageSize()
	left, _, right, _ := r.pdf.GetMargins()
	return w - left - right
}

func (r *PDFRenderer) setIndent(indent int) {
	r.indent = indent
	r.pdf.SetLeftMargin(r.leftMargin + float64(indent)*indentStep)
	r.pdf.SetX(r.leftMargin + float64(indent)*indentStep)
}

// finishBlock completes whatever block is current.
func (r *PDFRenderer) finishBlock() {
	r.flushHeader()
	if r.flow != flowNone {
		r.pdf.Ln(bodyLine)
		r.pdf.Ln(1.5)
		r.flow = flowNone
	}
	if r.tableOpen {
		r.CloseTable()
	}
}

func (r *PDFRenderer) flushHeader() {
	h := r.header
	if h == nil {
		return
	}
	r.header = nil
	text := strings.TrimSpace(h.text.String())

	if h.level == 1 {
		if r.pages > 0 {
			r.pdf.AddPage()
		}
		r.pages++
	}
	r.setIndent(0)
	r.pdf.Ln(2)
	if h.anchor != "" {
		r.pdf.SetLink(r.linkID(h.anchor), -1, r.pdf.PageNo())
		r.resolved[h.anchor] = true
	}
	if h.level <= 2 && text != "" {
		r.pdf.Bookmark(r.tr(text), h.level-1, -1)
	}
	size, ok := headingSizes[h.level]
	if !ok {
		size = bodySize
	}
	r.pdf.SetFont(bodyFont, "B", size)
	r.pdf.MultiCell(0, size*0.5, r.tr(text), "", "L", false)
	r.pdf.Ln(2)
}

func (r *PDFRenderer) startFlow(kind flowKind, indent int) {
	r.finishBlock()
	r.flow = kind
	r.setIndent(indent)
}

// ensureFlow opens a paragraph when inline content arrives outside a block.
func (r *PDFRenderer) ensureFlow() {
	if r.flow == flowNone {
		r.startFlow(flowParagraph, 0)
	}
}

func (r *PDFRenderer) baseStyle() string {
	if r.flow == flowNote {
		return "I"
	}
	return ""
}

func (r *PDFRenderer) StartHeader(level int, anchor string) {
	r.finishBlock()
	r.header = &pdfHeader{level: level, anchor: anchor}
}

func (r *PDFRenderer) StartParagraph(indent int) { r.startFlow(flowParagraph, indent) }

func (r *PDFRenderer) StartNote(indent int) {
	r.startFlow(flowNote, indent+2)
}

func (r *PDFRenderer) AddListItem(indent int) {
	r.startFlow(flowItem, indent)
	r.pdf.SetFont(bodyFont, "", bodySize)
	r.pdf.Write(bodyLine, r.tr("• "))
}

func (r *PDFRenderer) ToggleCodeBlock(indent int) {
	if r.codeOpen {
		r.flushCode()
		return
	}
	r.finishBlock()
	r.codeOpen = true
	r.codeIndent = indent
	r.code = r.code[:0]
}

func (r *PDFRenderer) flushCode() {
	r.codeOpen = false
	r.setIndent(r.codeIndent)
	r.pdf.SetFont(codeFont, "", codeSize)
	r.pdf.SetFillColor(245, 245, 245)
	r.pdf.MultiCell(0, codeLine, r.tr(strings.Join(r.code, "\n")), "", "L", true)
	r.pdf.Ln(2)
	r.code = r.code[:0]
}

// write emits one inline run in the given font style.
func (r *PDFRenderer) write(family, style, text string) {
	if r.header != nil {
		r.header.text.WriteString(text)
		return
	}
	r.ensureFlow()
	if r.flow == flowNote {
		r.pdf.SetTextColor(90, 90, 90)
		defer r.pdf.SetTextColor(0, 0, 0)
	}
	r.pdf.SetFont(family, style, bodySize)
	r.pdf.Write(bodyLine, r.tr(text))
}

func (r *PDFRenderer) AddText(text string) {
	if r.codeOpen {
		r.code = append(r.code, text)
		return
	}
	r.write(bodyFont, r.baseStyle(), text)
}

func (r *PDFRenderer) AddBold(text string) {
	r.write(bodyFont, "B"+r.baseStyle(), text)
}

func (r *PDFRenderer) AddItalic(text string) {
	r.write(bodyFont, "I", text)
}

func (r *PDFRenderer) AddInlineCode(text string) {
	r.write(codeFont, "", text)
}

func (r *PDFRenderer) AddLink(text, target string, external bool) {
	if r.header != nil {
		r.header.text.WriteString(text)
		return
	}
	r.ensureFlow()
	r.pdf.SetFont(bodyFont, "U"+r.baseStyle(), bodySize)
	r.pdf.SetTextColor(0, 0, 200)
	if external {
		r.pdf.WriteLinkString(bodyLine, r.tr(text), target)
	} else {
		r.pdf.WriteLinkID(bodyLine, r.tr(text), r.linkID(target))
	}
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *PDFRenderer) AddImage(img core.Image, inline bool) {
	if !inline {
		r.finishBlock()
		r.setIndent(0)
	} else {
		r.ensureFlow()
	}
	info, opts, ok := r.register(img.Path)
	if !ok {
		r.imagePlaceholder(img, inline)
		return
	}

	link, linkStr := 0, ""
	if img.Link != "" {
		if img.LinkExternal {
			linkStr = img.Link
		} else {
			link = r.linkID(img.Link)
		}
	}

	if inline {
		h := bodyLine
		w := info.Width() * h / info.Height()
		x, y := r.pdf.GetXY()
		r.pdf.ImageOptions(img.Path, x, y, w, h, false, opts, link, linkStr)
		r.pdf.SetX(x + w)
		return
	}

	w := info.Width()
	if avail := r.availableWidth(); w > avail {
		w = avail
	}
	left, _, _, _ := r.pdf.GetMargins()
	r.pdf.ImageOptions(img.Path, left, -1, w, 0, true, opts, link, linkStr)
	r.pdf.Ln(2)
}

// register loads an image into the document. Decoding failures are cleared
// so the rest of the document still renders.
func (r *PDFRenderer) register(path string) (*gofpdf.ImageInfoType, gofpdf.ImageOptions, bool) {
	opts := gofpdf.ImageOptions{ImageType: imageType(path), ReadDpi: true}
	if opts.ImageType == "" || path == "" {
		return nil, opts, false
	}
	info := r.pdf.RegisterImageOptions(path, opts)
	if r.pdf.Err() || info == nil || info.Width() == 0 || info.Height() == 0 {
		r.pdf.ClearError()
		return nil, opts, false
	}
	return info, opts, true
}

func (r *PDFRenderer) imagePlaceholder(img core.Image, inline bool) {
	alt := img.Alt
	if alt == "" {
		alt = "image"
	}
	if !inline {
		r.startFlow(flowParagraph, r.indent)
	}
	r.write(bodyFont, "I", "["+alt+"]")
}

// imageType returns the gofpdf image type of a file, sniffing the content
// when the name carries no usable extension.
func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := f.Read(head)
	switch http.DetectContentType(head[:n]) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

// AddTableCell buffers a cell; the table is drawn when it is closed.
func (r *PDFRenderer) AddTableCell(text string, rowLeading bool, columns int, header bool) {
	if !r.tableOpen {
		r.finishBlock()
		r.tableOpen = true
		r.rows = r.rows[:0]
	}
	if rowLeading || len(r.rows) == 0 {
		r.rows = append(r.rows, pdfRow{header: header})
	}
	row := &r.rows[len(r.rows)-1]
	row.cells = append(row.cells, text)
}

// CloseTable draws the buffered table as a bordered grid.
func (r *PDFRenderer) CloseTable() {
	if !r.tableOpen {
		return
	}
	r.tableOpen = false
	cols := 0
	for _, row := range r.rows {
		if len(row.cells) > cols {
			cols = len(row.cells)
		}
	}
	if cols == 0 {
		return
	}
	r.setIndent(r.indent)
	width := r.availableWidth() / float64(cols)
	r.pdf.SetFillColor(235, 235, 235)
	for _, row := range r.rows {
		style := ""
		if row.header {
			style = "B"
		}
		r.pdf.SetFont(bodyFont, style, bodySize)
		for i := 0; i < cols; i++ {
			text := ""
			if i < len(row.cells) {
				text = row.cells[i]
			}
			r.pdf.CellFormat(width, tableRowLine, r.tr(text), "1", 0, "L", row.header, 0, "")
		}
		r.pdf.Ln(tableRowLine)
	}
	r.pdf.Ln(2)
	r.rows = r.rows[:0]
}

func (r *PDFRenderer) IsTableOpen() bool     { return r.tableOpen }
func (r *PDFRenderer) IsCodeBlockOpen() bool { return r.codeOpen }

// Render finishes the layout and returns the PDF bytes. Links to anchors
// that never appeared point at the first page.
func (r *PDFRenderer) Render(meta core.DocumentMeta) ([]byte, error) {
	if r.codeOpen {
		r.flushCode()
	}
	r.finishBlock()
	for anchor, id := range r.links {
		if !r.resolved[anchor] {
			r.pdf.SetLink(id, 0, 1)
			r.resolved[anchor] = true
		}
	}

	r.pdf.SetTitle(meta.Title, true)
	r.pdf.SetAuthor(meta.Author, true)
	if meta.Subject != "" {
		r.pdf.SetSubject(meta.Subject, true)
	}
	r.pdf.SetCreator("WikiPipe", true)

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}
