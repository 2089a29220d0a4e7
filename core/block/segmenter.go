// Package block drives a wiki page through the line-level block state
// machine: each physical line is typed (header, code fence, note, list
// item, image, table row, rule or paragraph), the matching sink calls are
// made, and whatever inline text remains is tokenized and emitted.
package block

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/inline"
	"github.com/gaurav-prasanna/wikipipe/core/link"
	anchorname "github.com/shurcooL/sanitized_anchor_name"
)

const fence = "```"

var (
	separatorRow = regexp.MustCompile(`^\|\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?$`)
	ruleLine     = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	htmlLine     = regexp.MustCompile(`^(<!--|</?[a-zA-Z][a-zA-Z0-9-]*(\s|/?>|$))`)
)

// Resolver resolves image references to local assets.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (core.Asset, error)
}

// State is the running block state of one page.
type State struct {
	CodeBlockOpen    bool
	TableOpen        bool
	TableInHeaderRow bool
	OpenListDepth    int
}

// Result is the outcome of typing one line: either the line was consumed
// by its block rule, or a remainder is left for inline tokenization.
type Result struct {
	Consumed  bool
	Remainder string
}

// Consumed means nothing is left to tokenize.
func Consumed() Result { return Result{Consumed: true} }

// Remainder carries text left for the inline tokenizer.
func Remainder(text string) Result { return Result{Remainder: text} }

// Config wires a Segmenter to its collaborators.
type Config struct {
	Sink     core.Sink
	Resolver Resolver
	Policy   link.Policy
	// Normalizer, when set, turns raw HTML lines into Markdown first.
	Normalizer core.Normalizer
	// Canonical maps a page identifier to the identity of the page it
	// names. Nil leaves identifiers as they are.
	Canonical func(pageID string) string
	// OnLink receives the page identifier of every intra-wiki link.
	OnLink func(pageID string)
	Log    *slog.Logger
}

// Segmenter holds the block state of one page. Use a new Segmenter per page.
type Segmenter struct {
	cfg   Config
	log   *slog.Logger
	state State
}

// New creates a Segmenter with fresh block state.
func New(cfg Config) *Segmenter {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{
		cfg:   cfg,
		log:   log,
		state: State{TableInHeaderRow: true},
	}
}

// State returns a snapshot of the block state.
func (s *Segmenter) State() State {
	return s.state
}

// Line feeds one physical line of the page.
func (s *Segmenter) Line(ctx context.Context, raw string) {
	s.feed(ctx, raw, s.cfg.Normalizer != nil)
}

// Finish closes blocks still open at the end of the page.
func (s *Segmenter) Finish() {
	if s.state.TableOpen || s.cfg.Sink.IsTableOpen() {
		s.closeTable()
	}
	if s.state.CodeBlockOpen || s.cfg.Sink.IsCodeBlockOpen() {
		s.toggleCode(0)
	}
	s.state.OpenListDepth = 0
}

func (s *Segmenter) feed(ctx context.Context, raw string, allowHTML bool) {
	raw = strings.TrimRight(raw, "\r")
	indent := countIndent(raw)
	line := strings.Trim(raw, " \t")
	if line == "" {
		return
	}

	if s.state.CodeBlockOpen {
		if strings.HasPrefix(line, fence) {
			s.toggleCode(indent)
			return
		}
		s.cfg.Sink.AddText(strings.TrimRight(raw, " \t"))
		return
	}

	if s.state.TableOpen && !isTableLine(line) {
		s.closeTable()
	}

	if allowHTML && htmlLine.MatchString(line) {
		s.html(ctx, line)
		return
	}

	if res := s.classify(ctx, line, indent); !res.Consumed {
		s.emitInline(ctx, res.Remainder)
	}
}

// classify applies the block rules in order; the first match wins.
func (s *Segmenter) classify(ctx context.Context, line string, indent int) Result {
	sink := s.cfg.Sink

	if level, rest, ok := header(line); ok {
		s.endList()
		sink.StartHeader(level, anchorname.Create(rest))
		return Remainder(rest)
	}

	if strings.HasPrefix(line, fence) {
		s.endList()
		s.toggleCode(indent)
		return Consumed()
	}

	if rest, ok := strings.CutPrefix(line, "> "); ok {
		s.endList()
		sink.StartNote(indent)
		return Remainder(rest)
	}

	if rest, ok := cutBullet(line); ok {
		s.state.OpenListDepth = indent/2 + 1
		sink.AddListItem(indent)
		return Remainder(rest)
	}

	if strings.HasPrefix(line, "![") {
		if img, ok := inline.MatchImage(line); ok {
			s.endList()
			s.emitImage(ctx, img, "", false, false)
			return Consumed()
		}
	}

	if isTableLine(line) {
		s.endList()
		s.tableLine(line)
		return Consumed()
	}

	if ruleLine.MatchString(line) {
		return Consumed()
	}

	s.endList()
	sink.StartParagraph(indent)
	return Remainder(line)
}

// header matches "#" to "####" followed by a space. Level 1 is reserved
// for page titles, so "#" yields level 2.
func header(line string) (int, string, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 4 || n >= len(line) || line[n] != ' ' {
		return 0, "", false
	}
	return n + 1, strings.TrimSpace(line[n+1:]), true
}

func cutBullet(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "* "); ok {
		return rest, true
	}
	return strings.CutPrefix(line, "- ")
}

// isTableLine accepts "| "-prefixed rows and separator rows in either the
// spaced or the compact ("|---|---|") form.
func isTableLine(line string) bool {
	return strings.HasPrefix(line, "| ") || separatorRow.MatchString(line)
}

func (s *Segmenter) tableLine(line string) {
	s.state.TableOpen = true
	if separatorRow.MatchString(line) {
		s.state.TableInHeaderRow = false
		return
	}
	cells := splitCells(line)
	for i, c := range cells {
		s.cfg.Sink.AddTableCell(c, i == 0, len(cells), s.state.TableInHeaderRow)
	}
}

// splitCells splits a table row on "|" dropping empty fields.
func splitCells(line string) []string {
	var cells []string
	for _, f := range strings.Split(line, "|") {
		if f == "" {
			continue
		}
		cells = append(cells, strings.TrimSpace(f))
	}
	return cells
}

func (s *Segmenter) closeTable() {
	s.cfg.Sink.CloseTable()
	s.state.TableOpen = false
	s.state.TableInHeaderRow = true
}

func (s *Segmenter) toggleCode(indent int) {
	s.state.CodeBlockOpen = !s.state.CodeBlockOpen
	s.cfg.Sink.ToggleCodeBlock(indent)
}

func (s *Segmenter) endList() {
	s.state.OpenListDepth = 0
}

// html converts a raw HTML line to Markdown and feeds the result back.
func (s *Segmenter) html(ctx context.Context, line string) {
	md, err := s.cfg.Normalizer.Normalize(line)
	if err != nil {
		s.log.Debug("keeping html line as text", "error", err)
		if res := s.classify(ctx, line, 0); !res.Consumed {
			s.emitInline(ctx, res.Remainder)
		}
		return
	}
	for _, l := range strings.Split(md, "\n") {
		s.feed(ctx, l, false)
	}
}

func countIndent(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}
