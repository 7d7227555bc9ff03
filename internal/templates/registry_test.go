package templates

import (
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresfelipemendez/quire/internal/filestore"
)

const (
	postSrc  = `<html><head><title>{{.Title}}</title></head><body>{{.Content}}</body></html>`
	indexSrc = `<html><head><title>{{.Title}}</title></head><body>{{range .Archive}}{{.Anchor}}{{end}}</body></html>`
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadAndRender(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"post.html": postSrc, "index.html": indexSrc})

	reg, err := Load(dir, filestore.New())
	require.NoError(t, err)

	page, err := reg.RenderPost(PostData{Title: "a.html", Content: template.HTML("<h1>A</h1>\n")})
	require.NoError(t, err)
	assert.Equal(t, "<html><head><title>a.html</title></head><body><h1>A</h1>\n</body></html>", page)

	index, err := reg.RenderIndex(IndexData{
		Title: "Site Index",
		Archive: []ArchiveEntry{
			{Href: "posts/b.html", Label: "b"},
			{Href: "posts/a.html", Label: "a"},
			{Href: "posts/a.html", Label: "a"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head><title>Site Index</title></head><body>`+
			`<a href="posts/b.html">b</a><a href="posts/a.html">a</a><a href="posts/a.html">a</a>`+
			`</body></html>`,
		index)
}

func TestRenderIsDeterministic(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"post.tmpl": postSrc, "index.tmpl": indexSrc})
	reg, err := Load(dir, filestore.New())
	require.NoError(t, err)

	data := PostData{Title: "x.html", Content: "<p>x</p>"}
	first, err := reg.RenderPost(data)
	require.NoError(t, err)
	second, err := reg.RenderPost(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnchorEscapes(t *testing.T) {
	e := ArchiveEntry{Href: "posts/a&b.html", Label: "<a&b>"}
	assert.Equal(t, template.HTML(`<a href="posts/a&amp;b.html">&lt;a&amp;b&gt;</a>`), e.Anchor())
}

func TestTitleIsEscaped(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"post.html": postSrc, "index.html": indexSrc})
	reg, err := Load(dir, filestore.New())
	require.NoError(t, err)

	page, err := reg.RenderPost(PostData{Title: "<x>.html"})
	require.NoError(t, err)
	assert.Contains(t, page, "<title>&lt;x&gt;.html</title>")
}

func TestLoadFailures(t *testing.T) {
	cases := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"missing post", map[string]string{"index.html": indexSrc}, PostName},
		{"missing index", map[string]string{"post.html": postSrc}, IndexName},
		{"unparsable post", map[string]string{"post.html": "{{.Title", "index.html": indexSrc}, PostName},
		{"unknown binding", map[string]string{"post.html": "{{.Body}}", "index.html": indexSrc}, PostName},
		{"unknown archive field", map[string]string{"post.html": postSrc, "index.html": "{{range .Archive}}{{.URL}}{{end}}"}, IndexName},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeTemplates(t, tc.files)

			reg, err := Load(dir, filestore.New())
			assert.Nil(t, reg)

			var tmplErr *TemplateError
			require.True(t, errors.As(err, &tmplErr), "got %v", err)
			assert.Equal(t, tc.want, tmplErr.Name)
		})
	}
}

type failingSource struct{ err error }

func (f failingSource) Read(string, string) (string, error) { return "", f.err }

func TestLoadReadFailure(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"post.html": postSrc, "index.html": indexSrc})
	boom := errors.New("boom")

	_, err := Load(dir, failingSource{err: boom})
	var tmplErr *TemplateError
	require.True(t, errors.As(err, &tmplErr))
	assert.Equal(t, filepath.Join(dir, "post.html"), tmplErr.Path)
	assert.True(t, errors.Is(err, boom))
}

func TestLoadFromDirWithPatternCharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my[site]*?", "templates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range map[string]string{"post.html": postSrc, "index.html": indexSrc} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	reg, err := Load(dir, filestore.New())
	require.NoError(t, err)
	page, err := reg.RenderPost(PostData{Title: "a.html"})
	require.NoError(t, err)
	assert.Contains(t, page, "<title>a.html</title>")
}

func TestLoadPicksFirstMatchByName(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"post.tmpl":  "<p>tmpl {{.Title}}</p>",
		"post.html":  "<p>html {{.Title}}</p>",
		"index.html": indexSrc,
		"postscript": "{{.Nope}}",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "post.d"), 0o755))

	reg, err := Load(dir, filestore.New())
	require.NoError(t, err)
	page, err := reg.RenderPost(PostData{Title: "a.html"})
	require.NoError(t, err)
	assert.Equal(t, "<p>html a.html</p>", page)
}
