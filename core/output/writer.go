// Package output handles file naming and writing for WikiPipe outputs.
// The rendered document lands in the output directory under a sanitized
// name; downloaded resources land under <output>/img/.
// All writes are atomic so an interrupted run never leaves a torn file.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
)

// AssetDir is the output subdirectory holding downloaded resources.
const AssetDir = "img"

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// WriteDocument writes the rendered document as <name><ext>.
// Example: "My Wiki", ".pdf" → ./My_Wiki.pdf
func (w *Writer) WriteDocument(name string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, sanitize(name)+ext)
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// WriteAsset stores a downloaded resource as img/<name> and returns its path.
// The img directory is created on first use.
func (w *Writer) WriteAsset(name string, data []byte) (string, error) {
	dir := filepath.Join(w.OutputDir, AssetDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// sanitize replaces characters that are unsafe in file names with underscores.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "wiki"
	}
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '.' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
