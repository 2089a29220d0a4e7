// Package normalize implements the Normalizer interface.
// GitHub wikis mix raw HTML lines (centered images, <br>, comments) into
// Markdown pages; those lines are converted to Markdown so the block and
// inline rules can handle them like any other line.
package normalize

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gaurav-prasanna/wikipipe/core/extract"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct {
	extractor *extract.HTMLExtractor
}

// New creates a MarkdownNormalizer.
func New() *MarkdownNormalizer {
	return &MarkdownNormalizer{extractor: extract.New()}
}

// Normalize converts an HTML fragment into Markdown. Noise elements and
// comments are dropped first; a fragment of pure noise yields "".
func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	cleaned, err := n.extractor.Extract(html)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return "", nil
	}
	markdown, err := htmltomarkdown.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
