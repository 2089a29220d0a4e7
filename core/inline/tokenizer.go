// Package inline splits one line of block-typed wiki text into typed spans:
// plain text, emphasis, inline code, links and images.
//
// The tokenizer makes a single left-to-right pass. At every position the
// patterns are tried in a fixed priority order and the first one that
// matches wins, so linked images beat images, images beat links and bold
// beats italic. Unmatched delimiters stay plain text.
package inline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind tags the variant of a Span.
type Kind int

const (
	Text Kind = iota
	Bold
	Italic
	Code
	Link
	Image
	LinkedImage
)

var kindNames = [...]string{"Text", "Bold", "Italic", "Code", "Link", "Image", "LinkedImage"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Span is one typed fragment of a line.
type Span struct {
	Kind Kind
	// Text is the plain/emphasis/code content, the link display text or the image alt text.
	Text string
	// Target is the link target of Link and LinkedImage spans.
	Target string
	// Source is the image source of Image and LinkedImage spans.
	Source string
	// Raw is the exact slice of the line the span was cut from.
	Raw string
}

type matcher func(sc *scanner, i int) (Span, int, bool)

// matchers in priority order.
var matchers = []matcher{
	matchLinkedImage,
	matchImage,
	matchStrong,
	matchStar,
	matchCode,
	matchItalic,
	matchPipedWikiLink,
	matchLink,
	matchWikiLink,
}

// Tokenize returns the ordered, non-overlapping spans covering line.
func Tokenize(line string) []Span {
	var spans []Span
	sc := &scanner{s: line}
	last := 0
	for i := 0; i < len(line); {
		sp, end, ok := matchAt(sc, i)
		if !ok {
			i++
			continue
		}
		if i > last {
			spans = append(spans, textSpan(line[last:i]))
		}
		sp.Raw = line[i:end]
		spans = append(spans, sp)
		i, last = end, end
	}
	if last < len(line) {
		spans = append(spans, textSpan(line[last:]))
	}
	return spans
}

// MatchImage reports whether line starts with a well-formed image and returns it.
func MatchImage(line string) (Span, bool) {
	sp, end, ok := matchImage(&scanner{s: line}, 0)
	if ok {
		sp.Raw = line[:end]
	}
	return sp, ok
}

func matchAt(sc *scanner, i int) (Span, int, bool) {
	for _, m := range matchers {
		if sp, end, ok := m(sc, i); ok {
			return sp, end, true
		}
	}
	return Span{}, 0, false
}

func textSpan(s string) Span {
	return Span{Kind: Text, Text: s, Raw: s}
}

// scanner is one line being tokenized. It remembers the last closer lookup
// per delimiter, so a delimiter that is never closed costs one scan of the
// line rather than one per position.
type scanner struct {
	s      string
	seen   [256]lookup
	italic lookup
}

// lookup records that the first match at or after from is at (-1: none).
type lookup struct {
	from, at int
	valid    bool
}

func (l lookup) answers(i int) bool {
	return l.valid && l.from <= i && (l.at < 0 || l.at >= i)
}

// until returns the index of the first c at or after i, or -1.
func (sc *scanner) until(i int, c byte) int {
	if i > len(sc.s) {
		return -1
	}
	l := &sc.seen[c]
	if l.answers(i) {
		return l.at
	}
	at := strings.IndexByte(sc.s[i:], c)
	if at >= 0 {
		at += i
	}
	*l = lookup{from: i, at: at, valid: true}
	return at
}

// italicCloser returns the index of the first underscore at or after i that
// is not followed by a word character, or -1.
func (sc *scanner) italicCloser(i int) int {
	if sc.italic.answers(i) {
		return sc.italic.at
	}
	at := -1
	for j := i; j < len(sc.s); j++ {
		if sc.s[j] != '_' {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(sc.s[j+1:]); j+1 < len(sc.s) && isWord(r) {
			continue
		}
		at = j
		break
	}
	sc.italic = lookup{from: i, at: at, valid: true}
	return at
}

func hasAt(s string, i int, prefix string) bool {
	return i >= 0 && i <= len(s) && strings.HasPrefix(s[i:], prefix)
}

// enclosed matches open, at least one byte other than closeByte, then closeByte.
// It returns the content and the index just past the closing byte.
func (sc *scanner) enclosed(i int, open string, closeByte byte, allowEmpty bool) (string, int, bool) {
	if !hasAt(sc.s, i, open) {
		return "", 0, false
	}
	start := i + len(open)
	j := sc.until(start, closeByte)
	if j < 0 || (j == start && !allowEmpty) {
		return "", 0, false
	}
	return sc.s[start:j], j + 1, true
}

// matchImage matches ![alt](source).
func matchImage(sc *scanner, i int) (Span, int, bool) {
	alt, j, ok := sc.enclosed(i, "![", ']', true)
	if !ok {
		return Span{}, 0, false
	}
	src, end, ok := sc.enclosed(j, "(", ')', false)
	if !ok {
		return Span{}, 0, false
	}
	return Span{Kind: Image, Text: alt, Source: src}, end, true
}

// matchLinkedImage matches [![alt](source)](target).
func matchLinkedImage(sc *scanner, i int) (Span, int, bool) {
	if !hasAt(sc.s, i, "[") {
		return Span{}, 0, false
	}
	img, j, ok := matchImage(sc, i+1)
	if !ok || !hasAt(sc.s, j, "]") {
		return Span{}, 0, false
	}
	target, end, ok := sc.enclosed(j+1, "(", ')', false)
	if !ok {
		return Span{}, 0, false
	}
	return Span{Kind: LinkedImage, Text: img.Text, Source: img.Source, Target: target}, end, true
}

// matchStrong matches **text**.
func matchStrong(sc *scanner, i int) (Span, int, bool) {
	text, j, ok := sc.enclosed(i, "**", '*', false)
	if !ok || !hasAt(sc.s, j, "*") {
		return Span{}, 0, false
	}
	return Span{Kind: Bold, Text: text}, j + 1, true
}

// matchStar matches *text*, which wiki pages use for bold.
func matchStar(sc *scanner, i int) (Span, int, bool) {
	text, end, ok := sc.enclosed(i, "*", '*', false)
	if !ok {
		return Span{}, 0, false
	}
	return Span{Kind: Bold, Text: text}, end, true
}

// matchCode matches `text`.
func matchCode(sc *scanner, i int) (Span, int, bool) {
	text, end, ok := sc.enclosed(i, "`", '`', false)
	if !ok {
		return Span{}, 0, false
	}
	return Span{Kind: Code, Text: text}, end, true
}

// matchItalic matches _text_ when neither underscore touches a word
// character on its outer side, so snake_case identifiers are left alone.
func matchItalic(sc *scanner, i int) (Span, int, bool) {
	if !hasAt(sc.s, i, "_") {
		return Span{}, 0, false
	}
	if r, _ := utf8.DecodeLastRuneInString(sc.s[:i]); i > 0 && isWord(r) {
		return Span{}, 0, false
	}
	j := sc.italicCloser(i + 2)
	if j < 0 {
		return Span{}, 0, false
	}
	return Span{Kind: Italic, Text: sc.s[i+1 : j]}, j + 1, true
}

// matchPipedWikiLink matches [[text|target]].
func matchPipedWikiLink(sc *scanner, i int) (Span, int, bool) {
	body, j, ok := sc.enclosed(i, "[[", ']', false)
	if !ok || !hasAt(sc.s, j, "]") {
		return Span{}, 0, false
	}
	text, target, found := strings.Cut(body, "|")
	if !found || text == "" || target == "" {
		return Span{}, 0, false
	}
	return Span{Kind: Link, Text: text, Target: target}, j + 1, true
}

// matchLink matches [text](target).
func matchLink(sc *scanner, i int) (Span, int, bool) {
	text, j, ok := sc.enclosed(i, "[", ']', false)
	if !ok {
		return Span{}, 0, false
	}
	target, end, ok := sc.enclosed(j, "(", ')', false)
	if !ok {
		return Span{}, 0, false
	}
	return Span{Kind: Link, Text: text, Target: target}, end, true
}

// matchWikiLink matches [[target]].
func matchWikiLink(sc *scanner, i int) (Span, int, bool) {
	target, j, ok := sc.enclosed(i, "[[", ']', false)
	if !ok || !hasAt(sc.s, j, "]") || strings.Contains(target, "|") {
		return Span{}, 0, false
	}
	return Span{Kind: Link, Text: target, Target: target}, j + 1, true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
