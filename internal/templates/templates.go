// Package templates turns text/template sources into code generators. A
// template is either one of the built-in variants embedded in the binary or
// a file on disk; either way it is compiled in memory and never written out.
package templates

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	"text/template"

	"github.com/mark3labs/oas2client/internal/naming"
	"github.com/mark3labs/oas2client/internal/resolve"
)

// File is one rendered output file. Path is relative to the source's output
// directory.
type File struct {
	Path    string
	Content []byte
	Lang    string
}

// Generator renders a resolved source into files. Implementations keep no
// state between calls.
type Generator interface {
	Generate(ctx context.Context, src *resolve.Source) ([]File, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, src *resolve.Source) ([]File, error)

func (f GeneratorFunc) Generate(ctx context.Context, src *resolve.Source) ([]File, error) {
	return f(ctx, src)
}

// ErrUnknownTemplate is returned when neither a template file nor a
// registered variant matches.
var ErrUnknownTemplate = errors.New("unknown template")

// Error reports a template that could not be read, compiled or executed.
type Error struct {
	Template string
	Err      error
}

func (e *Error) Error() string { return fmt.Sprintf("template %s: %v", e.Template, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Sub-templates a template may define. "module" and "types" are required.
const (
	tmplExt       = "ext"
	tmplTypes     = "types"
	tmplModule    = "module"
	tmplIndex     = "index"
	tmplIndexFile = "index_file"
)

// View is the data every sub-template receives. Module is nil outside the
// "module" sub-template.
type View struct {
	Source  *resolve.Source
	Package string
	Module  *resolve.Module
}

// textGenerator renders one file per module plus a types file and, when
// defined, an index file.
type textGenerator struct {
	name string
	tmpl *template.Template
}

func newTextGenerator(name string, tmpl *template.Template) (*textGenerator, error) {
	for _, required := range []string{tmplModule, tmplTypes} {
		if tmpl.Lookup(required) == nil {
			return nil, &Error{Template: name, Err: fmt.Errorf("no %q sub-template defined", required)}
		}
	}
	return &textGenerator{name: name, tmpl: tmpl}, nil
}

func (g *textGenerator) Generate(ctx context.Context, src *resolve.Source) ([]File, error) {
	if src == nil {
		return nil, &Error{Template: g.name, Err: errors.New("nil source")}
	}
	ext := ".go"
	if g.tmpl.Lookup(tmplExt) != nil {
		out, err := g.execute(tmplExt, View{Source: src, Package: src.Package})
		if err != nil {
			return nil, err
		}
		ext = strings.TrimSpace(string(out))
	}
	lang := langOf(ext)

	view := View{Source: src, Package: src.Package}
	files := make([]File, 0, len(src.Modules)+2)

	content, err := g.execute(tmplTypes, view)
	if err != nil {
		return nil, err
	}
	files = append(files, File{Path: "types" + ext, Content: content, Lang: lang})
	origins := []string{"the types file"}

	for i := range src.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mod := &src.Modules[i]
		content, err := g.execute(tmplModule, View{Source: src, Package: src.Package, Module: mod})
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: mod.Name + ext, Content: content, Lang: lang})
		origins = append(origins, fmt.Sprintf("module %q", mod.Name))
	}

	if g.tmpl.Lookup(tmplIndex) != nil {
		base := "index"
		if g.tmpl.Lookup(tmplIndexFile) != nil {
			out, err := g.execute(tmplIndexFile, view)
			if err != nil {
				return nil, err
			}
			base = strings.TrimSpace(string(out))
		}
		content, err := g.execute(tmplIndex, view)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: base + ext, Content: content, Lang: lang})
		origins = append(origins, "the index file")
	}

	if i, j, dup := naming.FirstDuplicate(files, func(f File) string { return f.Path }); dup {
		return nil, &resolve.CollisionError{
			Source: src.Name,
			Scope:  resolve.ScopeFile,
			Key:    files[i].Path,
			First:  origins[i],
			Second: origins[j],
		}
	}
	return files, nil
}

func (g *textGenerator) execute(name string, data View) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, &Error{Template: g.name, Err: err}
	}
	return buf.Bytes(), nil
}

func langOf(ext string) string {
	switch ext {
	case ".go":
		return "go"
	case ".ts":
		return "typescript"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

// Registry maps variant names to generators.
type Registry struct {
	mu   sync.RWMutex
	gens map[string]Generator
}

func NewRegistry() *Registry {
	return &Registry{gens: make(map[string]Generator)}
}

// Register adds or replaces a variant.
func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[name] = g
}

func (r *Registry) Lookup(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gens[name]
	return g, ok
}

// Names returns the registered variant names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.gens))
}

//go:embed builtin/*.tmpl
var builtinFS embed.FS

// Builtin variant names.
const (
	VariantGo         = "go"
	VariantTypeScript = "typescript"
)

// Builtin returns a registry holding the embedded variants.
func Builtin() *Registry {
	reg := NewRegistry()
	for _, name := range []string{VariantGo, VariantTypeScript} {
		src, _ := BuiltinSource(name)
		tmpl := template.Must(template.New(name).Funcs(Funcs()).Parse(string(src)))
		gen, err := newTextGenerator(name, tmpl)
		if err != nil {
			panic(err)
		}
		reg.Register(name, gen)
	}
	return reg
}

// BuiltinSource returns the text of an embedded variant, for users who want
// a starting point for their own template file.
func BuiltinSource(name string) ([]byte, bool) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".tmpl"))
	if err != nil {
		return nil, false
	}
	return data, true
}
