package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mark3labs/oas2client/internal/config"
	"github.com/mark3labs/oas2client/internal/templates"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	// WithTemplate names a built-in variant to copy next to the
	// configuration file as a starting point for a custom template.
	WithTemplate string

	Stdout io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample oas2client configuration file",
		Long: "Scaffold a sample oas2client configuration file. With --with-template the chosen " +
			"built-in template is copied next to it so it can be customised.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			variant, err := cmd.Flags().GetString("with-template")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath:   out,
				Force:        force,
				WithTemplate: strings.TrimSpace(variant),
				Stdout:       cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", config.DefaultFileName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target files if they already exist")
	cmd.Flags().String("with-template", "", "Also write this built-in template (go|typescript) as "+config.DefaultTemplatePath+templates.FileExt)

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = config.DefaultFileName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	type target struct {
		path    string
		content []byte
	}
	targets := []target{{path: absPath, content: []byte(config.SampleJSON)}}
	if cfg.WithTemplate != "" {
		src, ok := templates.BuiltinSource(cfg.WithTemplate)
		if !ok {
			return newUsageError(fmt.Sprintf("init: unknown template %q (built-in variants: %s)",
				cfg.WithTemplate, strings.Join(templates.Builtin().Names(), ", ")))
		}
		tmplPath := filepath.Join(filepath.Dir(absPath), config.DefaultTemplatePath+templates.FileExt)
		targets = append(targets, target{path: tmplPath, content: src})
	}

	for _, t := range targets {
		if st, err := os.Stat(t.path); err == nil && !cfg.Force && st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", t.path))
		}
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	w := cfg.Stdout
	if w == nil {
		w = os.Stdout
	}
	for _, t := range targets {
		if err := writeAtomic(t.path, t.content); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", t.path)
	}
	return nil
}

// writeAtomic writes via a temp file and a rename.
func writeAtomic(path string, content []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", path, err))
	}
	return nil
}
