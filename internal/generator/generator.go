// Package generator runs the site build: discover posts, convert and render
// each one, write the pages and the site index.
package generator

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/andresfelipemendez/quire/internal/config"
	"github.com/andresfelipemendez/quire/internal/filestore"
	"github.com/andresfelipemendez/quire/internal/logfields"
	"github.com/andresfelipemendez/quire/internal/markdown"
	"github.com/andresfelipemendez/quire/internal/metrics"
	"github.com/andresfelipemendez/quire/internal/site"
	"github.com/andresfelipemendez/quire/internal/templates"
)

const indexFile = "index.html"

// Converter turns Markdown into an HTML fragment plus its wikilink targets.
type Converter interface {
	Parse(src string) (*markdown.ParseResult, error)
}

type Options struct {
	Title      string
	Extensions []string
	Workers    int
	Converter  Converter
	Logger     *slog.Logger
	Recorder   metrics.Recorder
}

// OptionsFromConfig builds Options, including the Markdown converter, from a
// loaded site configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	conv, err := markdown.New(markdown.Options{
		HighlightStyle: cfg.Markdown.Highlight.Style,
		LineNumbers:    cfg.Markdown.Highlight.LineNumbers,
		HardWraps:      cfg.Markdown.HardWraps,
	})
	if err != nil {
		return Options{}, err
	}
	return Options{
		Title:      cfg.Title,
		Extensions: cfg.Extensions,
		Workers:    cfg.WorkerCount(),
		Converter:  conv,
	}, nil
}

// Pipeline is one site root with its templates loaded, ready to run.
type Pipeline struct {
	paths     site.Paths
	store     *filestore.Store
	templates *templates.Registry
	conv      Converter
	title     string
	exts      []string
	workers   int
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// New validates root and loads its templates. The returned error is one of
// *site.InvalidDirectoryError, *site.OutputDirectoryUnavailableError or
// *templates.TemplateError.
func New(root string, opts Options) (*Pipeline, error) {
	paths, err := site.Validate(root)
	if err != nil {
		return nil, err
	}

	store := filestore.New()
	reg, err := templates.Load(paths.Templates(), store)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		paths:     paths,
		store:     store,
		templates: reg,
		conv:      opts.Converter,
		title:     opts.Title,
		exts:      opts.Extensions,
		workers:   opts.Workers,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
	}
	if p.conv == nil {
		conv, err := markdown.New(markdown.Options{})
		if err != nil {
			return nil, err
		}
		p.conv = conv
	}
	if p.title == "" {
		p.title = config.DefaultIndexTitle
	}
	if len(p.exts) == 0 {
		p.exts = []string{".md"}
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.recorder == nil {
		p.recorder = metrics.NoopRecorder{}
	}
	return p, nil
}

// Build is New followed by Run.
func Build(ctx context.Context, root string, opts Options) (*Report, error) {
	p, err := New(root, opts)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Source is a discovered post.
type Source struct {
	Name string
	Slug string
}

// Discover lists the post sources in dir whose extension matches one of exts,
// case-insensitively. os.ReadDir sorts by file name, so the order is
// lexicographic and does not depend on the filesystem. Page names must be
// unique: a source whose slug was already taken by an earlier one is returned
// as a StageDiscover failure instead.
func Discover(dir string, exts []string) ([]Source, []PostFailure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		sources []Source
		skipped []PostFailure
		owner   = make(map[string]string)
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		for _, want := range exts {
			if !strings.EqualFold(ext, want) {
				continue
			}
			slug := strings.TrimSuffix(name, ext)
			if slug == "" {
				break
			}
			if first, ok := owner[slug]; ok {
				skipped = append(skipped, PostFailure{
					File:  name,
					Stage: StageDiscover,
					Err:   &DuplicateTargetError{Target: slug + ".html", Owner: first},
				})
				break
			}
			owner[slug] = name
			sources = append(sources, Source{Name: name, Slug: slug})
			break
		}
	}
	return sources, skipped, nil
}

type postResult struct {
	entry   templates.ArchiveEntry
	links   []string
	failure *PostFailure
}

// Run builds every discovered post and the site index. Per-post failures are
// collected in the report; the returned error is set only when the run was
// aborted, in which case html/index.html has not been written.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	log := p.logger.With(logfields.RunID(report.RunID))
	defer func() {
		report.Duration = time.Since(start)
		p.recorder.ObserveRunDuration(report.Duration)
	}()

	sources, skipped, err := Discover(p.paths.Posts(), p.exts)
	if err != nil {
		return report, fmt.Errorf("discover posts: %w", err)
	}
	report.Discovered = len(sources) + len(skipped)
	report.Failures = append(report.Failures, skipped...)
	for _, f := range skipped {
		p.recorder.IncPostResult(string(StageDiscover), metrics.ResultFailed)
		log.Warn("Skipping post", logfields.Post(f.File), logfields.Stage(string(StageDiscover)), logfields.Error(f.Err))
	}
	p.recorder.SetWorkers(p.workers)
	log.Info("Building site",
		logfields.Root(p.paths.Root()),
		logfields.Count(report.Discovered),
		logfields.Workers(p.workers))

	// Workers write into their own slot; the archive is assembled from the
	// slots afterwards so it keeps discovery order.
	slots := make([]postResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = p.buildPost(src, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("build interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("build interrupted: %w", err)
	}

	for _, res := range slots {
		if res.failure != nil {
			report.Failures = append(report.Failures, *res.failure)
			continue
		}
		report.Archive = append(report.Archive, res.entry)
	}
	report.Converted = len(report.Archive)
	report.DanglingLinks = danglingLinks(slots)
	for _, dl := range report.DanglingLinks {
		log.Warn("Wikilink target not built", logfields.Post(dl.Post), slog.String("target", dl.Target))
	}

	if err := p.writeIndex(report.Archive); err != nil {
		return report, err
	}

	log.Info("Site built",
		logfields.Count(report.Converted),
		slog.Int("failed", len(report.Failures)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return report, nil
}

func (p *Pipeline) buildPost(src Source, log *slog.Logger) postResult {
	start := time.Now()
	defer func() { p.recorder.ObservePostDuration(time.Since(start)) }()

	fail := func(stage Stage, err error) postResult {
		p.recorder.IncPostResult(string(stage), metrics.ResultFailed)
		log.Warn("Skipping post", logfields.Post(src.Name), logfields.Stage(string(stage)), logfields.Error(err))
		return postResult{failure: &PostFailure{File: src.Name, Stage: stage, Err: err}}
	}

	text, err := p.store.Read(p.paths.Posts(), src.Name)
	if err != nil {
		return fail(StageRead, err)
	}

	parsed, err := p.convert(text)
	if err != nil {
		return fail(StageConvert, err)
	}

	// The page title is the target file name.
	target := src.Slug + ".html"
	page, err := p.templates.RenderPost(templates.PostData{
		Title:   target,
		Content: template.HTML(parsed.HTML),
	})
	if err != nil {
		return fail(StageRender, err)
	}

	if err := p.store.Write(p.paths.OutputPosts(), target, page); err != nil {
		return fail(StageWrite, err)
	}

	p.recorder.IncPostResult(string(StageWrite), metrics.ResultSuccess)
	log.Debug("Post written", logfields.Post(src.Name), logfields.Path(filepath.Join(p.paths.OutputPosts(), target)))
	return postResult{
		entry: templates.ArchiveEntry{Href: site.OutputPostsDir + "/" + target, Label: src.Slug},
		links: parsed.Links,
	}
}

// convert runs the converter, turning errors and panics into
// *markdown.ConversionError.
func (p *Pipeline) convert(text string) (res *markdown.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &markdown.ConversionError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = p.conv.Parse(text)
	if err != nil {
		var convErr *markdown.ConversionError
		if !errors.As(err, &convErr) {
			err = &markdown.ConversionError{Err: err}
		}
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) writeIndex(archive []templates.ArchiveEntry) error {
	page, err := p.templates.RenderIndex(templates.IndexData{
		Title:   p.title,
		Archive: archive,
	})
	if err != nil {
		return &IndexError{Err: err}
	}
	if err := p.store.Write(p.paths.Output(), indexFile, page); err != nil {
		return &IndexError{Err: err}
	}
	return nil
}

func danglingLinks(slots []postResult) []DanglingLink {
	built := make(map[string]bool, len(slots))
	for _, res := range slots {
		if res.failure == nil {
			built[res.entry.Label] = true
		}
	}

	var out []DanglingLink
	for _, res := range slots {
		if res.failure != nil {
			continue
		}
		seen := make(map[string]bool)
		for _, target := range res.links {
			if built[target] || seen[target] {
				continue
			}
			seen[target] = true
			out = append(out, DanglingLink{Post: res.entry.Label, Target: target})
		}
	}
	return out
}
