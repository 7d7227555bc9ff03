package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/andresfelipemendez/quire/internal/config"
	"github.com/andresfelipemendez/quire/internal/filestore"
	"github.com/andresfelipemendez/quire/internal/generator"
	"github.com/andresfelipemendez/quire/internal/logfields"
	"github.com/andresfelipemendez/quire/internal/metrics"
	"github.com/andresfelipemendez/quire/internal/site"
	"github.com/andresfelipemendez/quire/internal/templates"
)

var version = "dev"

type CLI struct {
	Root    string           `short:"r" help:"Site root containing posts/ and templates/" default:"." env:"QUIRE_ROOT" type:"path"`
	Config  string           `short:"c" help:"Configuration file (default: <root>/site.yaml)" env:"QUIRE_CONFIG" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging" env:"QUIRE_VERBOSE"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"1" help:"Generate html/ from posts/ and templates/"`
	Check CheckCmd `cmd:"" help:"Validate the site root and templates without writing anything"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.Config
	if path == "" {
		path = filepath.Join(c.Root, config.FileName)
	}
	return config.Load(path)
}

type BuildCmd struct {
	Workers     int           `short:"w" help:"Posts processed in parallel (overrides site.yaml; 0 keeps the configured value)" env:"QUIRE_WORKERS"`
	Title       string        `help:"Title of the site index (overrides site.yaml)" env:"QUIRE_TITLE"`
	Timeout     time.Duration `help:"Abort the build after this long (0 disables)" env:"QUIRE_TIMEOUT"`
	MetricsFile string        `name:"metrics-file" help:"Write Prometheus metrics for the run to this file" env:"QUIRE_METRICS_FILE" type:"path"`
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func (b *BuildCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return &exitError{code: generator.OutcomeAborted.ExitCode(), err: err}
	}
	if b.Workers > 0 {
		cfg.Workers = b.Workers
	}
	if b.Title != "" {
		cfg.Title = b.Title
	}

	opts, err := generator.OptionsFromConfig(cfg)
	if err != nil {
		return &exitError{code: generator.OutcomeAborted.ExitCode(), err: err}
	}
	opts.Logger = slog.Default()

	var prom *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		opts.Recorder = prom
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if b.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	report, runErr := generator.Build(ctx, cli.Root, opts)
	outcome := generator.Classify(report, runErr)
	slog.Info("Build finished", logfields.Root(cli.Root), logfields.Outcome(outcome.String()))

	printReport(os.Stdout, report, outcome)

	if prom != nil {
		prom.IncRunOutcome(outcome.String())
		if err := prom.WriteTextfile(b.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(b.MetricsFile), logfields.Error(err))
		}
	}

	if outcome == generator.OutcomeClean {
		return nil
	}
	return &exitError{code: outcome.ExitCode(), err: runErr}
}

func printReport(w io.Writer, r *generator.Report, outcome generator.Outcome) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%d posts discovered, %d converted (%s)\n", r.Discovered, r.Converted, outcome)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  skipped %s\n", f.Error())
	}
	for _, dl := range r.DanglingLinks {
		fmt.Fprintf(w, "  %s links to missing post %s\n", dl.Post, dl.Target)
	}
}

type CheckCmd struct{}

func (c *CheckCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return &exitError{code: generator.OutcomeAborted.ExitCode(), err: err}
	}

	if err := site.Inspect(cli.Root); err != nil {
		return &exitError{code: generator.OutcomeAborted.ExitCode(), err: err}
	}

	if _, err := templates.Load(filepath.Join(cli.Root, site.TemplatesDir), filestore.New()); err != nil {
		return &exitError{code: generator.OutcomeAborted.ExitCode(), err: err}
	}

	sources, skipped, err := generator.Discover(filepath.Join(cli.Root, site.PostsDir), cfg.Extensions)
	if err != nil {
		return &exitError{code: generator.OutcomeAborted.ExitCode(), err: err}
	}
	for _, src := range sources {
		fmt.Printf("%s -> %s/%s/%s.html\n", src.Name, site.OutputDir, site.OutputPostsDir, src.Slug)
	}
	for _, f := range skipped {
		fmt.Printf("  skipped %s\n", f.Error())
	}
	slog.Info("Site root is valid", logfields.Root(cli.Root), logfields.Count(len(sources)))
	if len(skipped) > 0 {
		return &exitError{code: generator.OutcomePartial.ExitCode()}
	}
	return nil
}

func parserOptions() []kong.Option {
	return []kong.Option{
		kong.Name("quire"),
		kong.Description("Build a static site from a directory of Markdown posts."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	}
}

func main() {
	// A .env file is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: load .env: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli, parserOptions()...)

	if err := ctx.Run(&cli); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", exit.err)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
