// Package extract cleans raw HTML found inside wiki pages.
// GitHub wikis embed HTML lines for centered images, badges or layout
// tweaks; embedded players, scripts and comments carry no document content
// and are stripped before the fragment is converted to Markdown.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelectors are HTML elements removed before conversion.
// Images are kept: they are part of the wiki content.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"iframe", "video", "audio", "object", "embed",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
}

// HTMLExtractor strips noise from an HTML fragment.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns the fragment without noise elements and comments.
// A fragment that was nothing but noise comes back empty.
func (e *HTMLExtractor) Extract(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	for _, n := range doc.Nodes {
		removeComments(n)
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", nil
	}
	result, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return strings.TrimSpace(result), nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}
