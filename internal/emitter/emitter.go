// Package emitter writes rendered files below an output directory. Every
// file is written atomically so an interrupted run never leaves a truncated
// file behind.
package emitter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ManifestName is the file recording what the last run wrote. A forced run
// uses it to remove files the new run no longer produces.
const ManifestName = ".oas2client-manifest"

const fileMode os.FileMode = 0o644

// Options controls where and how files are written.
type Options struct {
	OutDir string // required
	Force  bool   // allow writing into a non-empty directory
	DryRun bool   // validate and plan only
}

// PlannedFile describes a file the emitter writes (or would write).
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in path order and the stale files removed.
type Result struct {
	OutDir  string
	Planned []PlannedFile
	Removed []string
}

// Emit writes files, keyed by slash-separated relative path, below
// opts.OutDir.
func Emit(ctx context.Context, files map[string][]byte, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("emitter: OutDir is required")
	}
	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("emitter: resolve output directory: %w", err)
	}

	rels := slices.Sorted(maps.Keys(files))
	res := &Result{OutDir: abs, Planned: make([]PlannedFile, 0, len(rels))}
	for _, rel := range rels {
		if err := checkRelPath(rel); err != nil {
			return nil, err
		}
		res.Planned = append(res.Planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: fileMode})
	}

	if err := validateOutputDirectory(abs, opts.Force); err != nil {
		return nil, err
	}
	if opts.DryRun {
		return res, nil
	}

	previous, err := readManifest(abs)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeFileAtomic(abs, rel, files[rel]); err != nil {
			return nil, fmt.Errorf("emitter: write file %s: %w", rel, err)
		}
	}
	for _, rel := range previous {
		if _, still := files[rel]; still || checkRelPath(rel) != nil {
			continue
		}
		err := os.Remove(filepath.Join(abs, filepath.FromSlash(rel)))
		switch {
		case err == nil:
			res.Removed = append(res.Removed, rel)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("emitter: remove stale file %s: %w", rel, err)
		}
	}
	if err := writeFileAtomic(abs, ManifestName, manifest(rels)); err != nil {
		return nil, fmt.Errorf("emitter: write manifest: %w", err)
	}
	return res, nil
}

// checkRelPath keeps every output below the output directory.
func checkRelPath(rel string) error {
	clean := path.Clean(rel)
	if rel == "" || path.IsAbs(rel) || filepath.IsAbs(rel) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || clean != rel {
		return fmt.Errorf("emitter: invalid relative path %q", rel)
	}
	if rel == ManifestName {
		return fmt.Errorf("emitter: %q is reserved", rel)
	}
	return nil
}

// validateOutputDirectory refuses a path that is not a directory, and a
// non-empty directory unless force is set. A missing directory is fine.
func validateOutputDirectory(absPath string, force bool) error {
	stat, err := os.Stat(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access output directory %q: %w", absPath, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("output path %q is not a directory", absPath)
	}
	if force {
		return nil
	}
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("cannot read output directory %q: %w", absPath, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %q is not empty (use --force to overwrite)", absPath)
	}
	return nil
}

func manifest(rels []string) []byte {
	var b bytes.Buffer
	b.WriteString("# Files written by oas2client. Do not edit.\n")
	for _, rel := range rels {
		b.WriteString(rel)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func readManifest(absDir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(absDir, ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("emitter: read manifest: %w", err)
	}
	var rels []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rels = append(rels, line)
	}
	return rels, sc.Err()
}

// writeFileAtomic writes content to a temporary sibling with a random suffix
// and renames it over the target.
func writeFileAtomic(baseDir, relPath string, content []byte) (err error) {
	fullPath := filepath.Join(baseDir, filepath.FromSlash(relPath))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure target directory %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(fullPath)+".tmp-"+uuid.NewString())
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", relPath, err)
	}
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("write content to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Chmod(fileMode); err != nil {
		return fmt.Errorf("set file permissions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		tmpFile = nil
		return fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("atomic rename %s to %s: %w", tmpPath, fullPath, err)
	}
	return nil
}
