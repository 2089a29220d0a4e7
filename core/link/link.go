// Package link normalizes wiki link targets into page identifiers,
// anchors and display titles.
package link

import (
	"path/filepath"
	"regexp"
	"strings"
)

// PageExt is the extension of wiki page files.
const PageExt = ".md"

// externalPrefixes are reference prefixes that never name a local page.
var externalPrefixes = []string{"http://", "https://", "mailto:", "ftp://"}

// Policy holds the link normalization choices applied uniformly to a run.
type Policy struct {
	// Lowercase folds link targets to lower case.
	Lowercase bool
	// StrictExternal treats any target starting with "http" as external.
	StrictExternal bool
}

// Wikify normalizes raw link text: surrounding space is trimmed, inner spaces
// become hyphens and, when lower is set, the result is lower-cased.
func Wikify(raw string, lower bool) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "-")
	if lower {
		s = strings.ToLower(s)
	}
	return s
}

// Wikify applies the policy's normalization.
func (p Policy) Wikify(raw string) string {
	return Wikify(raw, p.Lowercase)
}

// IsExternal reports whether target points outside the wiki.
func (p Policy) IsExternal(target string) bool {
	if p.StrictExternal && strings.HasPrefix(target, "http") {
		return true
	}
	for _, prefix := range externalPrefixes {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}

// PageID returns the canonical page identifier (file name) for a wiki target.
func (p Policy) PageID(target string) string {
	id := p.Wikify(target)
	if !strings.EqualFold(filepath.Ext(id), PageExt) {
		id += PageExt
	}
	return id
}

// Anchor returns the in-document anchor a wiki target resolves to.
// A fragment-only target ("#section") resolves to its fragment.
func (p Policy) Anchor(target string) string {
	page, fragment, _ := strings.Cut(target, "#")
	if strings.TrimSpace(page) == "" {
		return fragment
	}
	return PageAnchor(p.Wikify(page))
}

// PageAnchor returns the anchor of a page identifier.
func PageAnchor(pageID string) string {
	name := AnchorFromPath(pageID)
	if strings.EqualFold(filepath.Ext(name), PageExt) {
		name = name[:len(name)-len(PageExt)]
	}
	return name
}

// AnchorFromPath returns the final segment of a slash- or backslash-separated path.
func AnchorFromPath(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

var (
	wordStart = regexp.MustCompile(`\b\w`)
	minorWord = regexp.MustCompile(`(?i)(\s(of|in|by|and|the)|'[st])\b`)
)

// TitleFromFilename derives a display title from a page file name:
// "the-art-of-war.md" becomes "The Art of War". Names without any
// word separator are returned as they are.
func TitleFromFilename(filename string) string {
	name := AnchorFromPath(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "-", " ")
	if !strings.Contains(name, " ") {
		return name
	}
	name = wordStart.ReplaceAllStringFunc(name, strings.ToUpper)
	return minorWord.ReplaceAllStringFunc(name, strings.ToLower)
}
