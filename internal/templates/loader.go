package templates

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/mark3labs/oas2client/internal/config"
)

// FileExt is appended to a configured template path when looking for a
// template file.
const FileExt = ".tmpl"

type cacheEntry struct {
	sum [sha256.Size]byte
	gen *textGenerator
}

// Loader compiles template files from disk. Compiled templates are cached by
// absolute path and content hash: an unchanged file is compiled once, a
// changed file replaces its entry. A Loader is safe for concurrent use.
type Loader struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewLoader() *Loader {
	return &Loader{cache: make(map[string]cacheEntry)}
}

// Load compiles the template file at path.
func (l *Loader) Load(path string) (Generator, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Template: path, Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &Error{Template: abs, Err: err}
	}
	sum := sha256.Sum256(data)

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.cache[abs]; ok && e.sum == sum {
		return e.gen, nil
	}
	delete(l.cache, abs)

	tmpl, err := template.New(filepath.Base(abs)).Funcs(Funcs()).Parse(string(data))
	if err != nil {
		return nil, &Error{Template: abs, Err: err}
	}
	gen, err := newTextGenerator(abs, tmpl)
	if err != nil {
		return nil, err
	}
	l.cache[abs] = cacheEntry{sum: sum, gen: gen}
	return gen, nil
}

// Resolve picks the generator for a data source: a template file at
// TemplatePath+".tmpl" or TemplatePath wins, otherwise the registered
// variant named by Template.
func (l *Loader) Resolve(reg *Registry, ds config.DataSourceConfig) (Generator, error) {
	if ds.TemplatePath != "" {
		candidates := []string{ds.TemplatePath}
		if !strings.HasSuffix(ds.TemplatePath, FileExt) {
			candidates = []string{ds.TemplatePath + FileExt, ds.TemplatePath}
		}
		for _, c := range candidates {
			ok, err := isFile(c)
			if err != nil {
				return nil, &Error{Template: c, Err: err}
			}
			if ok {
				return l.Load(c)
			}
		}
	}

	if reg != nil {
		if gen, ok := reg.Lookup(ds.Template); ok {
			return gen, nil
		}
	}
	known := "none"
	if reg != nil {
		known = strings.Join(reg.Names(), ", ")
	}
	return nil, &Error{
		Template: ds.Template,
		Err:      fmt.Errorf("%w (no file at %s%s, built-in variants: %s)", ErrUnknownTemplate, ds.TemplatePath, FileExt, known),
	}
}

func isFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
