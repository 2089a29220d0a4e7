package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRenderer_Outline(t *testing.T) {
	r := NewJSONRenderer()
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	r.StartHeader(1, "Home")
	r.AddText("Home")
	r.StartHeader(2, "getting-started")
	r.AddText("Getting ")
	r.AddBold("Started")
	r.StartParagraph(0)
	r.AddText("See ")
	r.AddLink("Setup", "Setup", false)
	r.AddLink("Go", "https://go.dev", true)
	r.AddListItem(1)
	r.AddListItem(2)
	r.StartNote(0)
	r.ToggleCodeBlock(0)
	r.AddText("code")
	r.ToggleCodeBlock(0)
	r.AddTableCell("A", true, 1, true)
	r.AddTableCell("1", true, 1, false)
	r.CloseTable()
	r.AddImage(core.Image{Alt: "logo", Src: "img/logo.png", Link: "Home"}, false)

	r.StartHeader(1, "Setup")
	r.AddText("Setup")

	out, err := r.Render(core.DocumentMeta{Title: "Wiki"})
	require.NoError(t, err)

	var got core.WikiJSON
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "Wiki", got.Title)
	assert.Equal(t, "2024-03-01T12:00:00Z", got.GeneratedAt)
	require.Len(t, got.Pages, 2)

	home := got.Pages[0]
	assert.Equal(t, "Home", home.Title)
	assert.Equal(t, "Home", home.Anchor)
	assert.Equal(t, []core.Heading{{Level: 2, Text: "Getting Started", Anchor: "getting-started"}}, home.Headings)
	assert.Equal(t, []core.Link{
		{Text: "Setup", Href: "#Setup"},
		{Text: "Go", Href: "https://go.dev", External: true},
	}, home.Links)
	assert.Equal(t, []core.ImageRef{{Alt: "logo", Src: "img/logo.png", Link: "#Home"}}, home.Images)
	assert.Equal(t, core.PageStructure{CodeBlocks: 1, Tables: 1, ListItems: 2, Notes: 1}, home.Structure)

	setup := got.Pages[1]
	assert.Equal(t, "Setup", setup.Title)
	assert.Empty(t, setup.Links)
}

func TestJSONRenderer_EmptyRunHasEmptyArrays(t *testing.T) {
	r := NewJSONRenderer()
	out, err := r.Render(core.DocumentMeta{Title: "Empty"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"pages": []`)

	r = NewJSONRenderer()
	r.StartHeader(1, "Home")
	r.AddText("Home")
	out, err = r.Render(core.DocumentMeta{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"links": []`)
	assert.Equal(t, ".json", r.Extension())
}

func TestJSONRenderer_TableState(t *testing.T) {
	r := NewJSONRenderer()
	assert.False(t, r.IsTableOpen())
	r.AddTableCell("a", true, 1, true)
	assert.True(t, r.IsTableOpen())
	r.StartParagraph(0)
	assert.False(t, r.IsTableOpen())
	r.AddTableCell("b", true, 1, true)
	assert.Equal(t, 2, r.page().Structure.Tables)
}
