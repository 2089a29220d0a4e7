// Package sinktest provides a recording core.Sink for tests.
package sinktest

import (
	"fmt"

	"github.com/gaurav-prasanna/wikipipe/core"
)

// Recorder records every sink call as a compact string, in order.
type Recorder struct {
	Events []string

	tableOpen bool
	codeOpen  bool
}

var _ core.Sink = (*Recorder)(nil)

func (r *Recorder) add(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

func (r *Recorder) StartHeader(level int, anchor string) { r.add("header(%d,%s)", level, anchor) }
func (r *Recorder) StartParagraph(indent int)            { r.add("paragraph(%d)", indent) }
func (r *Recorder) StartNote(indent int)                 { r.add("note(%d)", indent) }
func (r *Recorder) AddListItem(indent int)               { r.add("item(%d)", indent) }

func (r *Recorder) ToggleCodeBlock(indent int) {
	r.codeOpen = !r.codeOpen
	r.add("code(%d,%v)", indent, r.codeOpen)
}

func (r *Recorder) AddText(text string)       { r.add("text(%s)", text) }
func (r *Recorder) AddBold(text string)       { r.add("bold(%s)", text) }
func (r *Recorder) AddItalic(text string)     { r.add("italic(%s)", text) }
func (r *Recorder) AddInlineCode(text string) { r.add("icode(%s)", text) }

func (r *Recorder) AddLink(text, target string, external bool) {
	r.add("link(%s,%s,%v)", text, target, external)
}

func (r *Recorder) AddImage(img core.Image, inline bool) {
	kind := "block"
	if inline {
		kind = "inline"
	}
	if img.Link != "" {
		r.add("image(%s,%s,%s,%s)", kind, img.Alt, img.Src, img.Link)
		return
	}
	r.add("image(%s,%s,%s)", kind, img.Alt, img.Src)
}

func (r *Recorder) AddTableCell(text string, rowLeading bool, columns int, header bool) {
	r.tableOpen = true
	r.add("cell(%s,%v,%d,%v)", text, rowLeading, columns, header)
}

func (r *Recorder) CloseTable() {
	r.tableOpen = false
	r.add("close-table")
}

func (r *Recorder) IsTableOpen() bool     { return r.tableOpen }
func (r *Recorder) IsCodeBlockOpen() bool { return r.codeOpen }

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}
