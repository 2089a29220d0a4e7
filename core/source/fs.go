// Package source reads wiki pages from a content root on disk and can
// fetch a GitHub wiki's git repository into one.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/gaurav-prasanna/wikipipe/core"
)

const bom = "\ufeff"

// FS reads pages from a directory tree.
type FS struct {
	Root string

	// StripFrontMatter drops a leading YAML, TOML or JSON front matter
	// block before the page is split into lines.
	StripFrontMatter bool
}

// NewFS creates an FS rooted at root.
func NewFS(root string) *FS {
	return &FS{Root: root}
}

// ReadLines returns the lines of pageID. When no file has the exact name,
// a file in the same directory differing only by case is used instead.
func (s *FS) ReadLines(pageID string) ([]string, error) {
	path, err := s.locate(pageID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", pageID, core.ErrPageNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte(bom))
	if s.StripFrontMatter {
		var meta map[string]any
		rest, err := frontmatter.Parse(bytes.NewReader(data), &meta)
		if err != nil {
			return nil, fmt.Errorf("parsing front matter of %s: %w", pageID, err)
		}
		data = rest
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

// Locate returns the slash-separated path of pageID's file relative to Root,
// spelled as it is on disk.
func (s *FS) Locate(pageID string) (string, error) {
	path, err := s.locate(pageID)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", pageID, core.ErrPageNotFound)
	}
	return filepath.ToSlash(rel), nil
}

func (s *FS) locate(pageID string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(pageID))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", pageID, core.ErrPageNotFound)
	}

	// The directory listing gives the on-disk spelling even where the
	// file system ignores case.
	path := filepath.Join(s.Root, rel)
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", pageID, core.ErrPageNotFound)
	}
	base := filepath.Base(path)
	folded := ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == base {
			return path, nil
		}
		if folded == "" && strings.EqualFold(e.Name(), base) {
			folded = e.Name()
		}
	}
	if folded != "" {
		return filepath.Join(dir, folded), nil
	}
	return "", fmt.Errorf("%s: %w", pageID, core.ErrPageNotFound)
}
