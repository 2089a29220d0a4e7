package render

import (
	"strings"
	"testing"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer_Document(t *testing.T) {
	r := NewMarkdownRenderer()
	r.StartHeader(1, "Home")
	r.AddText("Home")
	r.StartParagraph(0)
	r.AddText("See ")
	r.AddLink("Setup", "Setup", false)
	r.AddText(" and ")
	r.AddBold("this")
	r.AddListItem(1)
	r.AddText("one")
	r.AddListItem(2)
	r.AddText("two")
	r.StartNote(0)
	r.AddItalic("careful")
	r.ToggleCodeBlock(0)
	r.AddText("x := 1")
	r.ToggleCodeBlock(0)
	r.AddTableCell("A", true, 2, true)
	r.AddTableCell("B|C", false, 2, true)
	r.AddTableCell("1", true, 2, false)
	r.AddTableCell("2", false, 2, false)
	r.CloseTable()
	r.AddImage(core.Image{Alt: "logo", Src: "img/logo.png", Link: "https://x", LinkExternal: true}, false)

	out, err := r.Render(core.DocumentMeta{Title: "Wiki"})
	require.NoError(t, err)

	want := strings.Join([]string{
		"---",
		"title: Wiki",
		"---",
		"",
		`<a id="Home"></a>`,
		"# Home",
		"",
		"See [Setup](#Setup) and **this**",
		"",
		"* one",
		"  * two",
		"",
		"> _careful_",
		"",
		"```",
		"x := 1",
		"```",
		"",
		`| A | B\|C |`,
		"| --- | --- |",
		"| 1 | 2 |",
		"",
		"[![logo](img/logo.png)](https://x)",
		"",
	}, "\n")
	assert.Equal(t, want, string(out))
	assert.Equal(t, ".md", r.Extension())
}

func TestMarkdownRenderer_NoMetadataNoFrontMatter(t *testing.T) {
	r := NewMarkdownRenderer()
	r.AddText("loose text")
	r.AddInlineCode("code")

	out, err := r.Render(core.DocumentMeta{})
	require.NoError(t, err)
	assert.Equal(t, "loose text`code`\n", string(out))
}

func TestMarkdownRenderer_OpenStateAtEnd(t *testing.T) {
	r := NewMarkdownRenderer()
	r.ToggleCodeBlock(0)
	r.AddText("unterminated")
	assert.True(t, r.IsCodeBlockOpen())

	out, err := r.Render(core.DocumentMeta{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(out), "```\n"))
}
