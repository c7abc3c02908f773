// Package generate runs the whole pipeline: configuration, origin fetch,
// name resolution, template rendering, formatting and emission.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/oas2client/internal/config"
	"github.com/mark3labs/oas2client/internal/emitter"
	"github.com/mark3labs/oas2client/internal/format"
	"github.com/mark3labs/oas2client/internal/naming"
	"github.com/mark3labs/oas2client/internal/resolve"
	"github.com/mark3labs/oas2client/internal/spec"
	"github.com/mark3labs/oas2client/internal/templates"
)

// DefaultParallelism bounds concurrent origin fetches when Options leaves it
// unset.
const DefaultParallelism = 4

// ErrUnknownSource is returned when a requested source name matches no
// configured origin.
var ErrUnknownSource = errors.New("unknown source")

// ErrInvalidFilter is returned when a Filter names an unknown HTTP method or
// carries a path pattern that does not compile.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter narrows the operations generated for every source. Empty fields
// keep everything.
type Filter struct {
	IncludeTags []string
	ExcludeTags []string
	Methods     []string
	// Paths are regular expressions; an operation is kept when its path
	// matches any of them.
	Paths []string
}

func (f Filter) buildOptions() ([]spec.BuildOption, error) {
	var bad []string
	methods := make([]spec.HttpMethod, 0, len(f.Methods))
	for _, m := range f.Methods {
		hm, ok := spec.ParseHttpMethod(m)
		if !ok {
			bad = append(bad, fmt.Sprintf("method %q", m))
			continue
		}
		methods = append(methods, hm)
	}
	for _, p := range f.Paths {
		if _, err := regexp.Compile(p); err != nil {
			bad = append(bad, fmt.Sprintf("path pattern %q: %v", p, err))
		}
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(bad, "; "))
	}

	var opts []spec.BuildOption
	if len(f.IncludeTags) > 0 {
		opts = append(opts, spec.WithIncludeTags(f.IncludeTags))
	}
	if len(f.ExcludeTags) > 0 {
		opts = append(opts, spec.WithExcludeTags(f.ExcludeTags))
	}
	if len(methods) > 0 {
		opts = append(opts, spec.WithMethods(methods))
	}
	if len(f.Paths) > 0 {
		opts = append(opts, spec.WithPathPatterns(f.Paths))
	}
	return opts, nil
}

// Options controls one run.
type Options struct {
	ConfigPath string
	// Sources restricts the run to the named origins. Empty means all.
	Sources     []string
	DryRun      bool
	Force       bool
	Parallelism int
	Filter      Filter
	Logger      *slog.Logger

	// Registry and Loader default to the built-in variants and a fresh
	// loader. Callers running the pipeline repeatedly pass a shared Loader
	// to keep its cache.
	Registry    *templates.Registry
	Loader      *templates.Loader
	LoadOptions []spec.Option
}

// SourceError wraps a failure that aborted one source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return fmt.Sprintf("source %s: %v", e.Source, e.Err) }
func (e *SourceError) Unwrap() error { return e.Err }

// SourceReport is the outcome for one source.
type SourceReport struct {
	Name    string
	Origin  string
	OutDir  string
	Planned []emitter.PlannedFile
	Removed []string
	// Err is set when the source was aborted.
	Err error
}

// Report lists every processed source in configuration order.
type Report struct {
	DryRun  bool
	Sources []SourceReport
}

// job carries one source through the run.
type job struct {
	ds     config.DataSourceConfig
	label  string
	origin string
	gen    templates.Generator
	doc    *openapi3.T
	files  []templates.File
	err    error
}

// Run executes the pipeline. Configuration and template errors are returned
// straight away and nothing is written. A source that fails to load or
// resolve is skipped; the others are still written and the returned error
// joins one *SourceError per failed source.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = templates.Builtin()
	}
	loader := opts.Loader
	if loader == nil {
		loader = templates.NewLoader()
	}

	buildOpts, err := opts.Filter.buildOptions()
	if err != nil {
		return nil, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultFileName
	}
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := config.Load(absConfig)
	if err != nil {
		return nil, err
	}
	configDir := filepath.Dir(absConfig)
	sources, err := cfg.DataSources(configDir)
	if err != nil {
		return nil, err
	}
	if i, j, dup := naming.FirstDuplicate(sources, func(ds config.DataSourceConfig) string { return ds.Name }); dup {
		return nil, &config.Error{
			Path:    absConfig,
			Field:   fmt.Sprintf("origins[%d].name", j),
			Index:   j,
			Message: fmt.Sprintf("duplicates origins[%d].name %q", i, sources[i].Name),
		}
	}
	sources, err = selectSources(sources, opts.Sources)
	if err != nil {
		return nil, err
	}

	jobs := make([]*job, len(sources))
	for i, ds := range sources {
		gen, err := loader.Resolve(reg, ds)
		if err != nil {
			return nil, err
		}
		jobs[i] = &job{ds: ds, label: labelOf(ds), origin: originLocation(configDir, ds.OriginURL), gen: gen}
	}

	if err := fetch(ctx, jobs, opts, logger); err != nil {
		return nil, err
	}

	// Render everything before writing anything so that a broken template
	// leaves every output directory untouched.
	for _, j := range jobs {
		if j.err != nil {
			continue
		}
		if err := render(ctx, j, buildOpts, logger); err != nil {
			var te *templates.Error
			if errors.As(err, &te) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			j.err = err
		}
	}

	report := &Report{DryRun: opts.DryRun, Sources: make([]SourceReport, 0, len(jobs))}
	var errs []error
	for _, j := range jobs {
		sr := SourceReport{Name: j.ds.Name, Origin: j.origin, OutDir: j.ds.TargetDir()}
		if j.err == nil {
			j.err = emit(ctx, j, opts, &sr)
		}
		if j.err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("source failed", "source", j.label, "error", j.err)
			sr.Err = &SourceError{Source: j.label, Err: j.err}
			errs = append(errs, sr.Err)
		}
		report.Sources = append(report.Sources, sr)
	}
	return report, errors.Join(errs...)
}

// fetch loads every origin concurrently. Load failures are recorded on the
// job; only cancellation stops the run.
func fetch(ctx context.Context, jobs []*job, opts Options, logger *slog.Logger) error {
	limit := opts.Parallelism
	if limit <= 0 {
		limit = DefaultParallelism
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, j := range jobs {
		g.Go(func() error {
			start := time.Now()
			doc, err := spec.Load(ctx, j.origin, opts.LoadOptions...)
			if err != nil {
				j.err = fmt.Errorf("load %s: %w", j.origin, err)
				return nil
			}
			logger.Debug("origin loaded", "source", j.label, "origin", j.origin, "elapsed", time.Since(start))
			j.doc = doc
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func render(ctx context.Context, j *job, buildOpts []spec.BuildOption, logger *slog.Logger) error {
	sm, err := spec.BuildServiceModel(ctx, j.doc, buildOpts...)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	src, err := resolve.Build(sm, j.ds)
	if err != nil {
		return err
	}
	logger.Debug("resolved", "source", j.label, "modules", len(src.Modules), "types", len(src.Types))

	files, err := j.gen.Generate(ctx, src)
	if err != nil {
		return err
	}
	for i := range files {
		files[i].Content = format.Source(files[i].Content, files[i].Lang, j.ds.FormatterOptions, logger.With("source", j.label, "file", files[i].Path))
	}
	j.files = files
	return nil
}

func emit(ctx context.Context, j *job, opts Options, sr *SourceReport) error {
	contents := make(map[string][]byte, len(j.files))
	for _, f := range j.files {
		contents[f.Path] = f.Content
	}
	res, err := emitter.Emit(ctx, contents, emitter.Options{
		OutDir: j.ds.TargetDir(),
		Force:  opts.Force,
		DryRun: opts.DryRun,
	})
	if err != nil {
		return err
	}
	sr.OutDir = res.OutDir
	sr.Planned = res.Planned
	sr.Removed = res.Removed
	return nil
}

func selectSources(all []config.DataSourceConfig, names []string) ([]config.DataSourceConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	var unknown []string
	for _, n := range names {
		if !slices.ContainsFunc(all, func(ds config.DataSourceConfig) bool { return ds.Name == n }) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, strings.Join(unknown, ", "))
	}
	out := make([]config.DataSourceConfig, 0, len(names))
	for _, ds := range all {
		if slices.Contains(names, ds.Name) {
			out = append(out, ds)
		}
	}
	return out, nil
}

func labelOf(ds config.DataSourceConfig) string {
	if ds.Name != "" {
		return ds.Name
	}
	return ds.OriginURL
}

// originLocation resolves a relative file origin against the configuration
// directory. URLs are returned unchanged.
func originLocation(configDir, origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Scheme != "" && u.Host != "" {
		return origin
	}
	if filepath.IsAbs(origin) {
		return origin
	}
	return filepath.Join(configDir, origin)
}
