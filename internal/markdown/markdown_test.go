package markdown

import (
	"strings"
	"testing"
)

func newConverter(t *testing.T, opts Options) *Converter {
	t.Helper()
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestConvertHeading(t *testing.T) {
	c := newConverter(t, Options{})

	got, err := c.Convert("# Hello")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if got != "<h1 id=\"hello\">Hello</h1>\n" {
		t.Errorf("HTML = %q, want h1 with id", got)
	}
}

func TestParseExtractsWikiLinks(t *testing.T) {
	c := newConverter(t, Options{})

	result, err := c.Parse("See [[other-note]] for details.")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.Links) != 1 || result.Links[0] != "other-note" {
		t.Errorf("Links = %v, want [other-note]", result.Links)
	}
	if !strings.Contains(result.HTML, `<a href="other-note.html">other-note</a>`) {
		t.Errorf("HTML missing wikilink anchor, got: %s", result.HTML)
	}
}

func TestParseMultipleLinksInOrder(t *testing.T) {
	c := newConverter(t, Options{})

	result, err := c.Parse(`# My Note

This references [[first-link]] and also [[second-link]].
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.Links) != 2 {
		t.Fatalf("Links count = %d, want 2", len(result.Links))
	}
	if result.Links[0] != "first-link" {
		t.Errorf("Links[0] = %q, want %q", result.Links[0], "first-link")
	}
	if result.Links[1] != "second-link" {
		t.Errorf("Links[1] = %q, want %q", result.Links[1], "second-link")
	}
}

func TestConvertGFMTable(t *testing.T) {
	c := newConverter(t, Options{})

	got, err := c.Convert("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !strings.Contains(got, "<table>") {
		t.Errorf("HTML = %q, want table", got)
	}
}

func TestConvertHighlightsCode(t *testing.T) {
	c := newConverter(t, Options{HighlightStyle: "monokai"})

	got, err := c.Convert("```go\nfunc main() {}\n```\n")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !strings.Contains(got, "<pre") || !strings.Contains(got, "background-color") {
		t.Errorf("HTML = %q, want inline-styled pre", got)
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	c := newConverter(t, Options{HighlightStyle: "github", LineNumbers: true})
	src := "# T\n\n```python\nprint(1)\n```\n\n[[x]]\n"

	first, err := c.Convert(src)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	second, err := c.Convert(src)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if first != second {
		t.Errorf("Convert not deterministic:\n%s\n---\n%s", first, second)
	}
}

func TestHardWraps(t *testing.T) {
	c := newConverter(t, Options{HardWraps: true})

	got, err := c.Convert("one\ntwo\n")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !strings.Contains(got, "<br>") {
		t.Errorf("HTML = %q, want <br>", got)
	}
}

func TestUnknownStyle(t *testing.T) {
	if _, err := New(Options{HighlightStyle: "no-such-style"}); err == nil {
		t.Fatal("New accepted an unknown style")
	}
}
