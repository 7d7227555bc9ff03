// Package config loads the optional site.yaml of a site root.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the site root.
const FileName = "site.yaml"

const DefaultIndexTitle = "Site Index"

type Config struct {
	// Title of the generated index page.
	Title string `yaml:"title"`
	// Extensions recognized as Markdown post sources, including the dot.
	Extensions []string `yaml:"extensions"`
	// Workers bounds the per-post worker pool. Zero means one per CPU.
	Workers  int      `yaml:"workers"`
	Markdown Markdown `yaml:"markdown"`
}

type Markdown struct {
	HardWraps bool      `yaml:"hard_wraps"`
	Highlight Highlight `yaml:"highlight"`
}

type Highlight struct {
	// Style is a chroma style name; empty disables highlighting.
	Style       string `yaml:"style"`
	LineNumbers bool   `yaml:"line_numbers"`
}

func Default() *Config {
	return &Config{
		Title:      DefaultIndexTitle,
		Extensions: []string{".md"},
		Markdown: Markdown{
			Highlight: Highlight{Style: "github"},
		},
	}
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return errors.New("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
		// Posts are matched on the text after their last dot.
		if strings.Count(ext, ".") > 1 {
			return fmt.Errorf("extension %q must contain a single dot", ext)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if s := c.Markdown.Highlight.Style; s != "" {
		if _, ok := styles.Registry[s]; !ok {
			return fmt.Errorf("unknown highlight style %q", s)
		}
	}
	return nil
}

// WorkerCount resolves Workers to a concrete pool size.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
