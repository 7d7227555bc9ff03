// Package site validates a site root and prepares its output tree.
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	PostsDir       = "posts"
	TemplatesDir   = "templates"
	OutputDir      = "html"
	OutputPostsDir = "posts"
)

// InvalidDirectoryError reports a site root missing one or more required
// input directories.
type InvalidDirectoryError struct {
	Root    string
	Missing []string
}

func (e *InvalidDirectoryError) Error() string {
	dirs := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		dirs[i] = "/" + m
	}
	return fmt.Sprintf("%s does not contain a %s directory; check the path is correct and run again from a directory containing /%s and /%s",
		e.Root, strings.Join(dirs, " or "), PostsDir, TemplatesDir)
}

// OutputDirectoryUnavailableError reports that an output directory could not
// be created.
type OutputDirectoryUnavailableError struct {
	Path string
	Err  error
}

func (e *OutputDirectoryUnavailableError) Error() string {
	return fmt.Sprintf("output directory %s unavailable: %v", e.Path, e.Err)
}

func (e *OutputDirectoryUnavailableError) Unwrap() error { return e.Err }

// Paths is the set of directories of a validated site root. The zero value is
// invalid; only Validate produces usable Paths.
type Paths struct {
	root        string
	posts       string
	templates   string
	output      string
	outputPosts string
}

func (p Paths) Root() string        { return p.root }
func (p Paths) Posts() string       { return p.posts }
func (p Paths) Templates() string   { return p.templates }
func (p Paths) Output() string      { return p.output }
func (p Paths) OutputPosts() string { return p.outputPosts }

// Valid reports whether p came from a successful Validate.
func (p Paths) Valid() bool { return p.root != "" }

// Validate checks that root contains the posts and templates directories and
// ensures html and html/posts exist. Nothing is created when an input
// directory is missing.
func Validate(root string) (Paths, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve site root %s: %w", root, err)
	}

	if missing := missingInputs(abs); len(missing) > 0 {
		return Paths{}, &InvalidDirectoryError{Root: abs, Missing: missing}
	}

	p := Paths{
		root:        abs,
		posts:       filepath.Join(abs, PostsDir),
		templates:   filepath.Join(abs, TemplatesDir),
		output:      filepath.Join(abs, OutputDir),
		outputPosts: filepath.Join(abs, OutputDir, OutputPostsDir),
	}

	for _, dir := range []string{p.output, p.outputPosts} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, &OutputDirectoryUnavailableError{Path: dir, Err: err}
		}
	}
	return p, nil
}

// Inspect runs the input checks of Validate without touching the output tree.
// It returns *InvalidDirectoryError when an input directory is missing.
func Inspect(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve site root %s: %w", root, err)
	}
	if missing := missingInputs(abs); len(missing) > 0 {
		return &InvalidDirectoryError{Root: abs, Missing: missing}
	}
	return nil
}

func missingInputs(root string) []string {
	var missing []string
	for _, name := range []string{PostsDir, TemplatesDir} {
		if !isDir(filepath.Join(root, name)) {
			missing = append(missing, name)
		}
	}
	return missing
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
