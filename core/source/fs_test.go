package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestReadLines(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "Home.md", "\ufeff# Welcome\r\n\r\nbody\n")

	lines, err := NewFS(root).ReadLines("Home.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"# Welcome", "", "body"}, lines)
}

func TestReadLines_FrontMatter(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "Home.md", "---\ntitle: Home\ntags: [a, b]\n---\n# Welcome\nbody\n")

	lines, err := (&FS{Root: root, StripFrontMatter: true}).ReadLines("Home.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"# Welcome", "body"}, lines)

	lines, err = NewFS(root).ReadLines("Home.md")
	require.NoError(t, err)
	assert.Equal(t, "---", lines[0])
}

func TestReadLines_FrontMatterAbsent(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "Home.md", "plain\npage")

	lines, err := (&FS{Root: root, StripFrontMatter: true}).ReadLines("Home.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "page"}, lines)
}

func TestReadLines_CaseInsensitiveFallback(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "Getting-Started.md", "hello")

	lines, err := NewFS(root).ReadLines("getting-started.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, lines)
}

func TestReadLines_Subdirectory(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "docs/Setup.md", "steps")

	lines, err := NewFS(root).ReadLines("docs/Setup.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"steps"}, lines)
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "Getting-Started.md", "hello")
	writePage(t, root, "docs/Setup.md", "steps")
	src := NewFS(root)

	for _, id := range []string{"Getting-Started.md", "getting-started.md", "./Getting-Started.md", "docs/../GETTING-STARTED.md"} {
		got, err := src.Locate(id)
		require.NoError(t, err, id)
		assert.Equal(t, "Getting-Started.md", got, id)
	}

	got, err := src.Locate("docs/setup.md")
	require.NoError(t, err)
	assert.Equal(t, "docs/Setup.md", got)

	_, err = src.Locate("Nope.md")
	assert.ErrorIs(t, err, core.ErrPageNotFound)
}

func TestReadLines_Missing(t *testing.T) {
	root := t.TempDir()
	writePage(t, filepath.Dir(root), "outside.md", "secret")

	for _, id := range []string{"Nope.md", "../outside.md", "missing/dir/Page.md"} {
		_, err := NewFS(root).ReadLines(id)
		assert.ErrorIs(t, err, core.ErrPageNotFound, id)
	}
}

func TestWikiRepoURL(t *testing.T) {
	url, err := WikiRepoURL("simionsoft/SimionZoo")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/simionsoft/SimionZoo.wiki.git", url)

	for _, bad := range []string{"", "user", "user/", "a/b/c"} {
		_, err := WikiRepoURL(bad)
		assert.Error(t, err, bad)
	}
}
