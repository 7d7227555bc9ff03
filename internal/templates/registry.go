// Package templates loads the post and index templates of a site and renders
// them against typed bindings.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	PostName  = "post"
	IndexName = "index"
)

// Source reads a named text file from a directory.
type Source interface {
	Read(dir, name string) (string, error)
}

// PostData is the binding of the post template.
type PostData struct {
	Title   string
	Content template.HTML
}

// ArchiveEntry links to one rendered page from the site index.
type ArchiveEntry struct {
	Href  string
	Label string
}

var anchor = template.Must(template.New("anchor").Parse(`<a href="{{.Href}}">{{.Label}}</a>`))

// Anchor renders the entry as an escaped <a> element.
func (e ArchiveEntry) Anchor() template.HTML {
	var buf bytes.Buffer
	if err := anchor.Execute(&buf, e); err != nil {
		// Both fields are plain strings; execution cannot fail.
		panic(err)
	}
	return template.HTML(buf.String())
}

// IndexData is the binding of the index template.
type IndexData struct {
	Title   string
	Archive []ArchiveEntry
}

// TemplateError reports a template that is missing, unreadable, unparsable or
// incompatible with its binding.
type TemplateError struct {
	Name string
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("template %q (%s): %v", e.Name, e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Registry holds the two compiled site templates. It is safe for concurrent
// use once loaded.
type Registry struct {
	post  *template.Template
	index *template.Template
}

// Load compiles templates/post.* and templates/index.* from dir.
func Load(dir string, src Source) (*Registry, error) {
	post, err := loadOne(dir, PostName, src, PostData{
		Title:   "probe.html",
		Content: template.HTML("<p>probe</p>"),
	})
	if err != nil {
		return nil, err
	}

	index, err := loadOne(dir, IndexName, src, IndexData{
		Title:   "Site Index",
		Archive: []ArchiveEntry{{Href: "posts/probe.html", Label: "probe"}},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{post: post, index: index}, nil
}

func loadOne(dir, name string, src Source, probe any) (*template.Template, error) {
	file, err := findTemplate(dir, name)
	if err != nil {
		return nil, &TemplateError{Name: name, Err: err}
	}
	path := filepath.Join(dir, file)

	text, err := src.Read(dir, file)
	if err != nil {
		return nil, &TemplateError{Name: name, Path: path, Err: err}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &TemplateError{Name: name, Path: path, Err: err}
	}

	// A reference to a field the binding does not have only fails at
	// execution time, so execute once here.
	if err := tmpl.Execute(io.Discard, probe); err != nil {
		return nil, &TemplateError{Name: name, Path: path, Err: err}
	}
	return tmpl, nil
}

// findTemplate returns the first file in dir named name.<ext>. os.ReadDir
// sorts by file name, so the choice is lexicographic.
func findTemplate(dir, name string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), name+".") {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("no %s.* file in %s", name, dir)
}

func (r *Registry) RenderPost(data PostData) (string, error) {
	return render(r.post, data)
}

func (r *Registry) RenderIndex(data IndexData) (string, error) {
	return render(r.index, data)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
