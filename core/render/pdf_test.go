package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/wikipipe/core"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPDF(t *testing.T, b []byte) *pdflib.Reader {
	t.Helper()
	require.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
	rd, err := pdflib.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return rd
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestPDFRenderer_OnePDFPagePerWikiPage(t *testing.T) {
	r := NewPDFRenderer()
	r.StartHeader(1, "Home")
	r.AddText("Home")
	r.StartParagraph(0)
	r.AddText("Café – naïve text with a ")
	r.AddLink("link", "Setup", false)
	r.AddLink(" and a dangling one", "Nowhere", false)
	r.StartHeader(1, "Setup")
	r.AddText("Setup")
	r.StartHeader(2, "steps")
	r.AddText("Steps")
	r.AddListItem(1)
	r.AddBold("first")
	r.StartNote(0)
	r.AddItalic("careful")

	out, err := r.Render(core.DocumentMeta{Title: "Wiki", Author: "Ann", Subject: "docs"})
	require.NoError(t, err)
	assert.Equal(t, 2, readPDF(t, out).NumPage())
	assert.Equal(t, ".pdf", r.Extension())
}

func TestPDFRenderer_CodeAndTable(t *testing.T) {
	r := NewPDFRenderer()
	r.StartHeader(1, "Home")
	r.AddText("Home")
	r.ToggleCodeBlock(0)
	assert.True(t, r.IsCodeBlockOpen())
	r.AddText("  indented code")
	r.ToggleCodeBlock(0)
	assert.False(t, r.IsCodeBlockOpen())

	r.AddTableCell("Name", true, 2, true)
	r.AddTableCell("Value", false, 2, true)
	r.AddTableCell("a", true, 2, false)
	assert.True(t, r.IsTableOpen())
	r.CloseTable()
	assert.False(t, r.IsTableOpen())

	out, err := r.Render(core.DocumentMeta{Title: "Wiki"})
	require.NoError(t, err)
	assert.Equal(t, 1, readPDF(t, out).NumPage())
}

func TestPDFRenderer_Images(t *testing.T) {
	dir := t.TempDir()
	logo := writePNG(t, dir, "logo.png")
	sniffed := writePNG(t, dir, "badge")
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0644))

	r := NewPDFRenderer()
	r.StartHeader(1, "Home")
	r.AddText("Home")
	r.AddImage(core.Image{Alt: "logo", Path: logo, Link: "Home"}, false)
	r.StartParagraph(0)
	r.AddText("badge ")
	r.AddImage(core.Image{Alt: "badge", Path: sniffed, Link: "https://ci", LinkExternal: true}, true)
	r.AddImage(core.Image{Alt: "broken", Path: broken}, false)
	r.AddImage(core.Image{Path: filepath.Join(dir, "diagram.svg")}, true)

	out, err := r.Render(core.DocumentMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, readPDF(t, out).NumPage())
}

func TestImageType(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "PNG", imageType(writePNG(t, dir, "noext")))
	assert.Equal(t, "JPG", imageType("photo.JPEG"))
	assert.Equal(t, "", imageType(filepath.Join(dir, "missing.svg")))
}
