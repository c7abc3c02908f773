package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/oas2client/internal/config"
	"github.com/mark3labs/oas2client/internal/generate"
)

// GenerateConfig captures all inputs of the generate command after flags are
// parsed.
type GenerateConfig struct {
	ConfigPath string
	Sources    []string
	DryRun     bool
	Force      bool
	Parallel   int
	Verbose    bool

	IncludeTags []string
	ExcludeTags []string
	Methods     []string
	Paths       []string

	Stdout io.Writer
	Stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		ConfigPath: config.DefaultFileName,
		Parallel:   generate.DefaultParallelism,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate client code for every configured origin",
		Long: "Generate client code for every origin listed in the configuration file. " +
			"A failing origin is reported and skipped; the others are still written.",
		Example: strings.TrimSpace(`  oas2client generate
  oas2client -c api.json generate --source petstore --dry-run
  oas2client generate --force --parallel 8`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("source", nil, "Only generate the named origins (repeatable)")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")
	flags.Int("parallel", generate.DefaultParallelism, "Maximum number of origins fetched at once")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations using these HTTP methods")
	flags.StringArray("paths", nil, "Only include operations whose path matches this regular expression (repeatable)")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()
	cfg.Stdout = cmd.OutOrStdout()
	cfg.Stderr = cmd.ErrOrStderr()

	if err := applyGenerateFlags(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyGenerateFlags(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	var err error
	if cfg.ConfigPath, err = flags.GetString("config"); err != nil {
		return err
	}
	cfg.ConfigPath = strings.TrimSpace(cfg.ConfigPath)
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return err
	}
	if flags.Changed("source") {
		value, err := flags.GetStringSlice("source")
		if err != nil {
			return err
		}
		cfg.Sources = sanitizeNames(value)
	}
	for _, f := range []struct {
		name string
		dst  *[]string
	}{
		{"include-tags", &cfg.IncludeTags},
		{"exclude-tags", &cfg.ExcludeTags},
		{"methods", &cfg.Methods},
	} {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetStringSlice(f.name)
		if err != nil {
			return err
		}
		*f.dst = sanitizeNames(value)
	}
	if flags.Changed("paths") {
		value, err := flags.GetStringArray("paths")
		if err != nil {
			return err
		}
		cfg.Paths = sanitizeNames(value)
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return err
	}
	if cfg.Force, err = flags.GetBool("force"); err != nil {
		return err
	}
	if cfg.Parallel, err = flags.GetInt("parallel"); err != nil {
		return err
	}
	return nil
}

func (c *GenerateConfig) validate() error {
	if c.ConfigPath == "" {
		return newUsageError("generate: --config must not be empty")
	}
	if c.Parallel < 1 {
		return newUsageError(fmt.Sprintf("generate: --parallel must be at least 1, got %d", c.Parallel))
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	report, err := generate.Run(ctx, generate.Options{
		ConfigPath:  cfg.ConfigPath,
		Sources:     cfg.Sources,
		DryRun:      cfg.DryRun,
		Force:       cfg.Force,
		Parallelism: cfg.Parallel,
		Filter: generate.Filter{
			IncludeTags: cfg.IncludeTags,
			ExcludeTags: cfg.ExcludeTags,
			Methods:     cfg.Methods,
			Paths:       cfg.Paths,
		},
		Logger: newLogger(cfg.Stderr, cfg.Verbose),
	})
	if report != nil {
		printReport(cfg.Stdout, report)
	}
	if err != nil {
		return mapRunError(err)
	}
	return nil
}

func printReport(w io.Writer, report *generate.Report) {
	for _, s := range report.Sources {
		if s.Err != nil {
			continue
		}
		if report.DryRun {
			fmt.Fprintf(w, "Planned writes to %s (%d files):\n", s.OutDir, len(s.Planned))
		} else {
			fmt.Fprintf(w, "Wrote %d files to %s\n", len(s.Planned), s.OutDir)
		}
		for _, p := range s.Planned {
			fmt.Fprintf(w, "- %s\n", p.RelPath)
		}
		for _, r := range s.Removed {
			fmt.Fprintf(w, "- %s (removed)\n", r)
		}
	}
}

// mapRunError turns configuration problems into usage errors. Source and
// template failures are returned as they are.
func mapRunError(err error) error {
	var ce *config.Error
	switch {
	case errors.As(err, &ce):
		return wrapUsageError(fmt.Sprintf("%v\nHint: run \"oas2client init\" for a sample configuration.", err), err)
	case errors.Is(err, generate.ErrUnknownSource), errors.Is(err, generate.ErrInvalidFilter):
		return wrapUsageError(fmt.Sprintf("generate: %v", err), err)
	}
	return err
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	var out []string
	for _, x := range a {
		if slices.Contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}

func sanitizeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
