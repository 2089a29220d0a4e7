// Package crawl — page filtering rules.
// Decides which link targets name locally resolvable wiki pages.
package crawl

import (
	"path"
	"strings"

	"github.com/gaurav-prasanna/wikipipe/core/link"
)

// staticExtensions are linked files that are never wiki pages.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// IsStaticAsset checks if a page identifier really points at a non-page file
// (e.g. "manual.pdf.md" produced from a link to "manual.pdf").
func IsStaticAsset(pageID string) bool {
	name := strings.TrimSuffix(pageID, link.PageExt)
	return staticExtensions[strings.ToLower(path.Ext(name))]
}

// Convertible reports whether pageID can name a local wiki page: external
// references, anchor fragments and static files are never crawled.
func Convertible(pageID string, policy link.Policy) bool {
	if policy.IsExternal(pageID) {
		return false
	}
	if strings.Contains(pageID, "#") {
		return false
	}
	return !IsStaticAsset(pageID)
}
