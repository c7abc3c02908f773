// Package resolve groups the operations of one API description into modules
// and gives every module, operation, parameter and type a collision-free
// code name.
package resolve

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/mark3labs/oas2client/internal/config"
	"github.com/mark3labs/oas2client/internal/naming"
	"github.com/mark3labs/oas2client/internal/spec"
)

// DefaultModule names the module of untagged operations that have no path
// segment to group by.
const DefaultModule = "default"

type group struct {
	module    Module
	endpoints []spec.EndpointModel
}

// Build resolves a service model for one data source. It fails with a
// *naming.IdentifierError when an operation cannot be named and with a
// *CollisionError when two entries end up with the same name.
func Build(sm *spec.ServiceModel, ds config.DataSourceConfig) (*Source, error) {
	if sm == nil {
		return nil, errors.New("resolve: nil service model")
	}

	types, typeNames, err := buildTypes(sm.Schemas)
	if err != nil {
		return nil, withSource(err, ds.Name)
	}
	r := &resolver{ds: ds, typeNames: typeNames}

	groups, err := r.group(sm)
	if err != nil {
		return nil, withSource(err, ds.Name)
	}

	src := &Source{
		Name:        ds.Name,
		Package:     packageName(ds.TargetDir()),
		Title:       sm.Title,
		Version:     sm.Version,
		Description: sm.Description,
		Types:       types,
	}
	if len(sm.Servers) > 0 {
		src.BaseURL = sm.Servers[0].URL
	}

	for _, g := range groups {
		mod, err := r.module(g)
		if err != nil {
			return nil, withSource(err, ds.Name)
		}
		src.Modules = append(src.Modules, mod)
	}
	// Distinct file names can still share a code name: "user-info" and
	// "user_info" both become UserInfo.
	if i, j, dup := naming.FirstDuplicate(src.Modules, func(m Module) string { return m.TypeName }); dup {
		return nil, withSource(&CollisionError{
			Scope:  ScopeModule,
			Key:    src.Modules[i].TypeName,
			First:  moduleOrigin(src.Modules[i]),
			Second: moduleOrigin(src.Modules[j]),
		}, ds.Name)
	}
	sort.Slice(src.Modules, func(i, j int) bool { return src.Modules[i].Name < src.Modules[j].Name })
	return src, nil
}

// packageName lower-cases the last element of dir and keeps letters and
// digits only. It falls back to "client".
func packageName(dir string) string {
	base := strings.ToLower(filepath.Base(dir))
	name := strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, base)
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "client"
	}
	return name
}

func moduleOrigin(m Module) string {
	if m.Tag != "" {
		return fmt.Sprintf("tag %q", m.Tag)
	}
	return fmt.Sprintf("path segment %q", m.Name)
}

func withSource(err error, source string) error {
	var ce *CollisionError
	if errors.As(err, &ce) {
		ce.Source = source
	}
	return err
}

type resolver struct {
	ds        config.DataSourceConfig
	typeNames map[string]string
}

// group assigns every endpoint to a module. Tagged endpoints follow their
// first tag; the rest are grouped by the first path segment after the prefix
// all paths share. An untagged group whose file name matches a tag module is
// folded into it.
func (r *resolver) group(sm *spec.ServiceModel) ([]*group, error) {
	descriptions := make(map[string]string, len(sm.Tags))
	for _, t := range sm.Tags {
		descriptions[t.Name] = t.Description
	}

	paths := make([]string, 0, len(sm.Endpoints))
	for _, ep := range sm.Endpoints {
		paths = append(paths, ep.Path)
	}
	sourcePrefix := naming.MaxSamePath(paths, "")

	var (
		tagged   []*group
		untagged []*group
		byTag    = make(map[string]*group)
		byName   = make(map[string]*group)
	)
	for _, ep := range sm.Endpoints {
		if len(ep.Tags) == 0 {
			name := segmentModuleName(ep.Path, sourcePrefix)
			g, ok := byName[name]
			if !ok {
				g = &group{module: Module{Name: name}}
				byName[name] = g
				untagged = append(untagged, g)
			}
			g.endpoints = append(g.endpoints, ep)
			continue
		}

		tag := ep.Tags[0]
		g, ok := byTag[tag]
		if !ok {
			desc := descriptions[tag]
			g = &group{module: Module{
				Name:        r.tagModuleName(tag, desc),
				Tag:         tag,
				Description: desc,
			}}
			byTag[tag] = g
			tagged = append(tagged, g)
		}
		g.endpoints = append(g.endpoints, ep)
	}

	if i, j, dup := naming.FirstDuplicate(tagged, func(g *group) string { return g.module.Name }); dup {
		return nil, &CollisionError{
			Scope:  ScopeModule,
			Key:    tagged[i].module.Name,
			First:  moduleOrigin(tagged[i].module),
			Second: moduleOrigin(tagged[j].module),
		}
	}

	out := tagged
	for _, u := range untagged {
		merged := false
		for _, t := range tagged {
			if t.module.Name == u.module.Name {
				t.endpoints = append(t.endpoints, u.endpoints...)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, u)
		}
	}
	return out, nil
}

// tagModuleName picks a module's file name. With taggedByName the tag name
// decides; otherwise the tag description does unless it is empty or not
// latin text.
func (r *resolver) tagModuleName(tag, description string) string {
	name := ""
	if !r.ds.TaggedByName && description != "" && !naming.HasCJK(description) {
		name = fileSafe(naming.ToDashCase(naming.TransformDescription(description)))
	}
	if name == "" {
		name = fileSafe(naming.ToDashDefaultCase(tag))
	}
	if name == "" {
		return DefaultModule
	}
	return name
}

func segmentModuleName(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") {
			break
		}
		seg, _, _ = strings.Cut(seg, ".")
		if name := fileSafe(naming.ToDashDefaultCase(seg)); name != "" {
			return name
		}
		break
	}
	return DefaultModule
}

// fileSafe replaces anything that is not a letter, digit, '-' or '_' with a
// hyphen so a module name is always a plain file name.
func fileSafe(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	return strings.Trim(mapped, "-")
}

func (r *resolver) module(g *group) (Module, error) {
	mod := g.module
	ident := naming.TransformCamelCase(mod.Name)
	if ident == "" {
		ident = mod.Name
	}
	mod.Identifier = naming.LowerFirst(naming.TypeName(ident))
	mod.TypeName = naming.ToUpperFirstLetter(mod.Identifier)

	paths := make([]string, 0, len(g.endpoints))
	for _, ep := range g.endpoints {
		paths = append(paths, ep.Path)
	}
	mod.SamePath = naming.MaxSamePath(paths, "")

	for _, ep := range g.endpoints {
		iface, err := r.iface(ep, mod.SamePath)
		if err != nil {
			return Module{}, err
		}
		mod.Interfaces = append(mod.Interfaces, iface)
	}

	ifaceKey := func(i Interface) string { return naming.TypeName(i.Name) }
	if i, j, dup := naming.FirstDuplicate(mod.Interfaces, ifaceKey); dup {
		a, b := mod.Interfaces[i], mod.Interfaces[j]
		return Module{}, &CollisionError{
			Scope:     ScopeInterface,
			Container: mod.Name,
			Key:       a.Name,
			First:     a.Method + " " + a.Path,
			Second:    b.Method + " " + b.Path,
		}
	}
	sort.Slice(mod.Interfaces, func(i, j int) bool { return mod.Interfaces[i].Name < mod.Interfaces[j].Name })
	return mod, nil
}

func (r *resolver) iface(ep spec.EndpointModel, samePath string) (Interface, error) {
	var name string
	if r.ds.UsingOperationID && ep.OperationID != "" {
		name = naming.IdentifierFromOperationID(ep.OperationID)
	} else {
		var err error
		name, err = naming.IdentifierFromURL(ep.Path, string(ep.Method), samePath)
		if err != nil {
			return Interface{}, err
		}
	}

	iface := Interface{
		Name:        name,
		OperationID: ep.OperationID,
		Method:      strings.ToUpper(string(ep.Method)),
		Path:        ep.Path,
		Summary:     ep.Summary,
		Description: ep.Description,
		Deprecated:  ep.Deprecated,
	}

	for _, p := range ep.Parameters {
		param := Param{
			Name:        p.Name,
			Ident:       naming.LowerFirst(naming.TypeName(p.Name)),
			In:          p.In,
			Required:    p.Required || p.In == "path",
			Description: p.Description,
			Type:        r.typeRef(p.Schema),
		}
		if param.Ident == "" {
			continue
		}
		switch p.In {
		case "path":
			iface.PathParams = append(iface.PathParams, param)
		case "query":
			iface.QueryParams = append(iface.QueryParams, param)
		case "header":
			iface.HeaderParams = append(iface.HeaderParams, param)
		}
	}
	params := iface.Params()
	if i, j, dup := naming.FirstDuplicate(params, func(p Param) string { return p.Ident }); dup {
		return Interface{}, &CollisionError{
			Scope:     ScopeParameter,
			Container: iface.Method + " " + iface.Path,
			Key:       params[i].Ident,
			First:     params[i].In + " " + params[i].Name,
			Second:    params[j].In + " " + params[j].Name,
		}
	}

	if ep.RequestBody != nil {
		if m := pickMedia(ep.RequestBody.Content); m != nil {
			ref := r.typeRef(m.Schema)
			iface.Body = &ref
			iface.BodyRequired = ep.RequestBody.Required
		}
	}
	for _, resp := range ep.Responses {
		if !strings.HasPrefix(resp.Status, "2") {
			continue
		}
		if m := pickMedia(resp.Content); m != nil {
			ref := r.typeRef(m.Schema)
			iface.Response = &ref
			break
		}
	}
	return iface, nil
}

// pickMedia prefers a JSON media type and falls back to the first one.
func pickMedia(content []spec.Media) *spec.Media {
	if len(content) == 0 {
		return nil
	}
	for i := range content {
		if strings.Contains(content[i].Mime, "json") {
			return &content[i]
		}
	}
	return &content[0]
}
