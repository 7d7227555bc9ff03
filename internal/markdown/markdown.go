// Package markdown converts post sources to HTML fragments.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/wikilink"
)

// Options configures a Converter.
type Options struct {
	// HighlightStyle is a chroma style name. Empty disables highlighting.
	HighlightStyle string
	LineNumbers    bool
	HardWraps      bool
}

// ConversionError reports a post whose Markdown could not be converted.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert markdown: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

type ParseResult struct {
	HTML  string
	Links []string
}

// Converter is a configured goldmark instance. It holds no per-call state and
// is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

func New(opts Options) (*Converter, error) {
	exts := []goldmark.Extender{
		extension.GFM,
		&wikilink.Extender{},
	}

	if opts.HighlightStyle != "" {
		if _, ok := styles.Registry[opts.HighlightStyle]; !ok {
			return nil, fmt.Errorf("unknown highlight style %q", opts.HighlightStyle)
		}
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.HighlightStyle),
			highlighting.WithFormatOptions(
				chromahtml.WithLineNumbers(opts.LineNumbers),
			),
		))
	}

	var rendererOpts []goldmark.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithHardWraps()))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOpts...)...)

	return &Converter{md: md}, nil
}

// Convert returns the HTML fragment for markdown.
func (c *Converter) Convert(markdown string) (string, error) {
	result, err := c.Parse(markdown)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// Parse converts markdown and collects the targets of its wikilinks in
// document order.
func (c *Converter) Parse(markdown string) (*ParseResult, error) {
	src := []byte(markdown)
	doc := c.md.Parser().Parse(text.NewReader(src))

	var links []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if wl, ok := n.(*wikilink.Node); ok && len(wl.Target) > 0 {
			links = append(links, string(wl.Target))
		}
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, &ConversionError{Err: err}
	}

	return &ParseResult{
		HTML:  buf.String(),
		Links: links,
	}, nil
}
