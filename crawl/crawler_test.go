package crawl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/wikipipe/core"
	"github.com/gaurav-prasanna/wikipipe/core/link"
	"github.com/gaurav-prasanna/wikipipe/core/sinktest"
	"github.com/gaurav-prasanna/wikipipe/core/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func wiki(t *testing.T, pages map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range pages {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func run(t *testing.T, root string, opts Options) (*Crawler, *sinktest.Recorder, error) {
	t.Helper()
	sink := &sinktest.Recorder{}
	c := New(source.NewFS(root), sink, nil, opts, quiet)
	err := c.Run(context.Background(), "Home.md")
	return c, sink, err
}

func headers(events []string) []string {
	var out []string
	for _, e := range events {
		if strings.HasPrefix(e, "header(1,") {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_NoLinks(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md":  "Just text.",
		"Other.md": "Never linked.",
	})
	c, sink, err := run(t, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md"}, c.Converted())
	assert.Equal(t, []string{
		"header(1,Home)", "text(Home)",
		"paragraph(0)", "text(Just text.)",
	}, sink.Events)
}

func TestRun_CycleConvertsEachPageOnce(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md":   "Go to [[Page A]]",
		"Page-A.md": "Go to [[Page B]] or [[Home]]",
		"Page-B.md": "Back to [[Page A]] and [[Home]]",
	})
	c, sink, err := run(t, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md", "Page-A.md", "Page-B.md"}, c.Converted())
	assert.Equal(t, []string{"header(1,Home)", "header(1,Page-A)", "header(1,Page-B)"}, headers(sink.Events))
}

func TestRun_BreadthFirstOrder(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md": "[[A]] [[B]]",
		"A.md":    "[[C]]",
		"B.md":    "[[D]]",
		"C.md":    "leaf",
		"D.md":    "leaf",
	})
	c, _, err := run(t, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md", "A.md", "B.md", "C.md", "D.md"}, c.Converted())
}

func TestRun_MissingLinkIsSkipped(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md": "[[Missing Page]] then [[Missing Page]] and [[Real]]",
		"Real.md": "ok",
	})
	c, _, err := run(t, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md", "Real.md"}, c.Converted())
}

func TestRun_ExternalAndAnchorLinksAreNotCrawled(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md":    "[site](https://example.com) [[Install#linux]] [manual](manual.pdf)",
		"Install.md": "never reached through a fragment link",
	})
	c, _, err := run(t, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md"}, c.Converted())
}

func TestRun_LowercaseLinks(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md":            "[[Getting Started]] [[getting started]]",
		"Getting-Started.md": "ok",
	})
	c, sink, err := run(t, root, Options{Policy: link.Policy{Lowercase: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md", "Getting-Started.md"}, c.Converted())
	assert.Contains(t, sink.Events, "link(getting started,Getting-Started,false)")
}

func TestRun_SpellingVariantsConvertOnce(t *testing.T) {
	root := wiki(t, map[string]string{
		"Home.md":            "[[Getting Started]] then [[getting started]] and [x](./Getting-Started) [[home]] [[Nope]] [[nope]]",
		"Getting-Started.md": "[[HOME]] [y](docs/../Getting-Started) [[docs/setup]]",
		"docs/Setup.md":      "[[Home]]",
	})
	c, sink, err := run(t, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md", "Getting-Started.md", "docs/Setup.md"}, c.Converted())
	assert.Equal(t, []string{"header(1,Home)", "header(1,Getting-Started)", "header(1,Setup)"}, headers(sink.Events))
	for _, e := range []string{
		"link(getting started,Getting-Started,false)",
		"link(x,Getting-Started,false)",
		"link(home,Home,false)",
		"link(HOME,Home,false)",
	} {
		assert.Contains(t, sink.Events, e)
	}
}

func TestRun_MissingRootIsFatal(t *testing.T) {
	root := wiki(t, map[string]string{"Other.md": "x"})
	_, _, err := run(t, root, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPageNotFound)
}

func TestRun_ExternalRootIsRejected(t *testing.T) {
	sink := &sinktest.Recorder{}
	c := New(source.NewFS(t.TempDir()), sink, nil, Options{}, quiet)
	err := c.Run(context.Background(), "https://github.com/x/y/wiki")
	require.Error(t, err)
	assert.Empty(t, sink.Events)
}

func TestQueue(t *testing.T) {
	q := NewQueue()
	q.Add("a")
	q.Add("b")
	q.Add("a")
	q.MarkDone("a")
	q.Add("a")

	var got []string
	for q.HasNext() {
		id := q.Next()
		q.MarkDone(id)
		got = append(got, id)
	}
	assert.Equal(t, []string{"b"}, got)
	assert.True(t, q.IsDone("b"))
	assert.Zero(t, q.Pending())
}

func TestConvertible(t *testing.T) {
	p := link.Policy{}
	assert.True(t, Convertible("Home.md", p))
	assert.False(t, Convertible("https://x.md", p))
	assert.False(t, Convertible("Page#anchor.md", p))
	assert.False(t, Convertible("manual.pdf.md", p))
	assert.True(t, Convertible("httpd.md", p))
	assert.False(t, Convertible("httpd.md", link.Policy{StrictExternal: true}))
}
