package spec

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildOption configures how the ServiceModel is built from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	errs        []error
}

// WithIncludeTags keeps only endpoints that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes endpoints that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only endpoints using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[HttpMethod]struct{}, len(methods))
			}
			c.methods[HttpMethod(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only endpoints whose path matches at least one of
// the given regular expressions. An invalid pattern makes BuildServiceModel
// fail.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				c.errs = append(c.errs, fmt.Errorf("path pattern %q: %w", p, err))
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// BuildServiceModel converts an OpenAPI v3 document into the internal model.
// Endpoints come out sorted by path, then by method in the fixed order
// get, post, put, delete, patch, head, options, trace.
func BuildServiceModel(ctx context.Context, doc *openapi3.T, opts ...BuildOption) (*ServiceModel, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.errs) > 0 {
		return nil, errors.Join(cfg.errs...)
	}

	sm := &ServiceModel{}
	if doc.Info != nil {
		sm.Title = safeStr(doc.Info.Title)
		sm.Version = safeStr(doc.Info.Version)
		sm.Description = safeStr(doc.Info.Description)
	}
	for _, s := range doc.Servers {
		if s == nil {
			continue
		}
		sm.Servers = append(sm.Servers, Server{URL: safeStr(s.URL), Description: safeStr(s.Description)})
	}

	if doc.Components != nil && len(doc.Components.Schemas) > 0 {
		sm.Schemas = make(map[string]Schema, len(doc.Components.Schemas))
		for _, name := range slices.Sorted(maps.Keys(doc.Components.Schemas)) {
			sor := toSchemaOrRef(doc.Components.Schemas[name])
			if sor == nil {
				continue
			}
			if sor.Ref != nil {
				// An alias of another component; only the name survives.
				sm.Schemas[name] = Schema{Name: name}
				continue
			}
			schema := *sor.Schema
			schema.Name = name
			sm.Schemas[name] = schema
		}
	}

	for _, p := range slices.Sorted(maps.Keys(doc.Paths)) {
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}

		// Path-level parameters first, overridden by operation-level ones.
		baseParams := make(map[string]*ParameterModel)
		for _, pref := range item.Parameters {
			if pm := toParameterModel(pref); pm != nil {
				baseParams[paramKey(pm.In, pm.Name)] = pm
			}
		}

		ops := []struct {
			m HttpMethod
			o *openapi3.Operation
		}{
			{GET, item.Get},
			{POST, item.Post},
			{PUT, item.Put},
			{DELETE, item.Delete},
			{PATCH, item.Patch},
			{HEAD, item.Head},
			{OPTIONS, item.Options},
			{TRACE, item.Trace},
		}
		for _, pair := range ops {
			if pair.o == nil || !cfg.allowMethod(pair.m) {
				continue
			}
			tags := cleanTags(pair.o.Tags)
			if !cfg.allowTags(tags) {
				continue
			}
			sm.Endpoints = append(sm.Endpoints, buildEndpoint(p, pair.m, pair.o, baseParams, tags))
		}
	}

	sm.Tags = collectTags(doc.Tags, sm.Endpoints)
	return sm, nil
}

func buildEndpoint(path string, method HttpMethod, op *openapi3.Operation, baseParams map[string]*ParameterModel, tags []string) EndpointModel {
	merged := maps.Clone(baseParams)
	for _, pref := range op.Parameters {
		if pm := toParameterModel(pref); pm != nil {
			merged[paramKey(pm.In, pm.Name)] = pm
		}
	}
	params := make([]ParameterModel, 0, len(merged))
	for _, v := range merged {
		params = append(params, *v)
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].In == params[j].In {
			return params[i].Name < params[j].Name
		}
		return params[i].In < params[j].In
	})

	var rb *RequestBodyModel
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb = &RequestBodyModel{
			Required: op.RequestBody.Value.Required,
			Content:  toMediaList(op.RequestBody.Value.Content),
		}
	}

	var responses []ResponseModel
	for _, code := range slices.Sorted(maps.Keys(op.Responses)) {
		rref := op.Responses[code]
		if rref == nil || rref.Value == nil {
			continue
		}
		desc := ""
		if rref.Value.Description != nil {
			desc = safeStr(*rref.Value.Description)
		}
		responses = append(responses, ResponseModel{
			Status:      code,
			Description: desc,
			Content:     toMediaList(rref.Value.Content),
		})
	}

	return EndpointModel{
		ID:          string(method) + " " + path,
		OperationID: safeStr(op.OperationID),
		Method:      method,
		Path:        path,
		Summary:     safeStr(op.Summary),
		Description: safeStr(op.Description),
		Tags:        tags,
		Deprecated:  op.Deprecated,
		Parameters:  params,
		RequestBody: rb,
		Responses:   responses,
	}
}

func (c *buildConfig) allowMethod(m HttpMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *buildConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *buildConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }

func toParameterModel(pref *openapi3.ParameterRef) *ParameterModel {
	if pref == nil || pref.Value == nil {
		return nil
	}
	p := pref.Value
	pm := &ParameterModel{
		Name:        safeStr(p.Name),
		In:          safeStr(p.In),
		Required:    p.Required,
		Description: safeStr(p.Description),
	}
	if p.Schema != nil {
		pm.Schema = toSchemaOrRef(p.Schema)
	}
	return pm
}

func toMediaList(content openapi3.Content) []Media {
	if len(content) == 0 {
		return nil
	}
	out := make([]Media, 0, len(content))
	for _, mime := range slices.Sorted(maps.Keys(content)) {
		mt := content[mime]
		if mt == nil {
			continue
		}
		out = append(out, Media{Mime: mime, Schema: toSchemaOrRef(mt.Schema)})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toSchemaOrRef(ref *openapi3.SchemaRef) *SchemaOrRef {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &SchemaOrRef{Ref: &SchemaRef{Ref: ref.Ref}}
	}
	if ref.Value == nil {
		return &SchemaOrRef{Schema: &Schema{Type: "object"}}
	}
	v := ref.Value
	s := &Schema{
		Type:        safeStr(v.Type),
		Description: safeStr(v.Description),
		Format:      safeStr(v.Format),
		Required:    slices.Clone(v.Required),
	}
	if len(v.Enum) > 0 {
		s.Enum = slices.Clone(v.Enum)
	}
	if v.Items != nil {
		s.Items = toSchemaOrRef(v.Items)
	}
	if len(v.Properties) > 0 {
		s.Properties = make(map[string]*SchemaOrRef, len(v.Properties))
		for name, prop := range v.Properties {
			s.Properties[name] = toSchemaOrRef(prop)
		}
	}
	for _, r := range v.AllOf {
		s.AllOf = append(s.AllOf, toSchemaOrRef(r))
	}
	return &SchemaOrRef{Schema: s}
}

// collectTags returns the tags used by at least one endpoint, sorted by name.
// Descriptions come from the document's tag list.
func collectTags(declared openapi3.Tags, endpoints []EndpointModel) []TagModel {
	used := make(map[string]struct{})
	for _, ep := range endpoints {
		for _, t := range ep.Tags {
			used[t] = struct{}{}
		}
	}
	if len(used) == 0 {
		return nil
	}
	descriptions := make(map[string]string, len(declared))
	for _, t := range declared {
		if t == nil {
			continue
		}
		name := safeStr(t.Name)
		if _, seen := descriptions[name]; !seen {
			descriptions[name] = safeStr(t.Description)
		}
	}
	out := make([]TagModel, 0, len(used))
	for _, name := range slices.Sorted(maps.Keys(used)) {
		out = append(out, TagModel{Name: name, Description: descriptions[name]})
	}
	return out
}

// SchemaName returns the component name a "#/components/schemas/X" (or
// Swagger "#/definitions/X") reference points at, or "".
func SchemaName(ref string) string {
	for _, prefix := range []string{"#/components/schemas/", "#/definitions/"} {
		if name, ok := strings.CutPrefix(ref, prefix); ok {
			return name
		}
	}
	return ""
}
