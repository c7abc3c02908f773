package resolve

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/mark3labs/oas2client/internal/naming"
	"github.com/mark3labs/oas2client/internal/spec"
)

// buildTypes turns component schemas into named types. The returned map goes
// from schema name to type name.
func buildTypes(schemas map[string]spec.Schema) ([]Type, map[string]string, error) {
	schemaNames := slices.Sorted(maps.Keys(schemas))

	names := make(map[string]string, len(schemas))
	kept := make([]string, 0, len(schemaNames))
	for _, s := range schemaNames {
		if tn := naming.TypeName(s); tn != "" {
			names[s] = tn
			kept = append(kept, s)
		}
	}
	if i, j, dup := naming.FirstDuplicate(kept, func(s string) string { return names[s] }); dup {
		return nil, nil, &CollisionError{
			Scope:  ScopeType,
			Key:    names[kept[i]],
			First:  fmt.Sprintf("schema %q", kept[i]),
			Second: fmt.Sprintf("schema %q", kept[j]),
		}
	}

	types := make([]Type, 0, len(kept))
	for _, s := range kept {
		t, err := buildType(names[s], s, schemas[s], names)
		if err != nil {
			return nil, nil, err
		}
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, names, nil
}

func buildType(name, schemaName string, s spec.Schema, names map[string]string) (Type, error) {
	t := Type{Name: name, Schema: schemaName, Description: s.Description}

	switch {
	case len(s.Properties) > 0 || len(s.AllOf) > 0 || s.Type == "object" || (s.Type == "" && s.Items == nil && len(s.Enum) == 0):
		t.Kind = TypeStruct
		props := s.Properties
		required := s.Required
		for _, member := range s.AllOf {
			if member == nil {
				continue
			}
			if member.Ref != nil {
				if embedded, ok := names[spec.SchemaName(member.Ref.Ref)]; ok && embedded != name {
					t.Embeds = append(t.Embeds, embedded)
				}
				continue
			}
			if member.Schema != nil {
				props = mergeProps(props, member.Schema.Properties)
				required = append(slices.Clone(required), member.Schema.Required...)
			}
		}
		fields, err := buildFields(name, props, required, names)
		if err != nil {
			return Type{}, err
		}
		t.Fields = fields
	case s.Type == "string" && len(s.Enum) > 0:
		t.Kind = TypeEnum
		for _, v := range s.Enum {
			if sv, ok := v.(string); ok {
				t.Values = append(t.Values, sv)
			}
		}
	default:
		t.Kind = TypeAlias
		ref := refOf(&spec.SchemaOrRef{Schema: &s}, names)
		t.Alias = &ref
	}
	return t, nil
}

func mergeProps(base, extra map[string]*spec.SchemaOrRef) map[string]*spec.SchemaOrRef {
	if len(extra) == 0 {
		return base
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]*spec.SchemaOrRef, len(extra))
	}
	maps.Copy(out, extra)
	return out
}

func buildFields(typeName string, props map[string]*spec.SchemaOrRef, required []string, names map[string]string) ([]Field, error) {
	fields := make([]Field, 0, len(props))
	for _, prop := range slices.Sorted(maps.Keys(props)) {
		ident := naming.TypeName(prop)
		if ident == "" {
			continue
		}
		desc := ""
		if sor := props[prop]; sor != nil && sor.Schema != nil {
			desc = sor.Schema.Description
		}
		fields = append(fields, Field{
			Name:        prop,
			Ident:       ident,
			Required:    slices.Contains(required, prop),
			Description: desc,
			Type:        refOf(props[prop], names),
		})
	}
	if i, j, dup := naming.FirstDuplicate(fields, func(f Field) string { return f.Ident }); dup {
		return nil, &CollisionError{
			Scope:     ScopeField,
			Container: typeName,
			Key:       fields[i].Ident,
			First:     fmt.Sprintf("property %q", fields[i].Name),
			Second:    fmt.Sprintf("property %q", fields[j].Name),
		}
	}
	return fields, nil
}

func (r *resolver) typeRef(sor *spec.SchemaOrRef) TypeRef {
	return refOf(sor, r.typeNames)
}

// refOf maps a schema to a TypeRef. References to unknown schemas and
// compositions that cannot be named become KindAny.
func refOf(sor *spec.SchemaOrRef, names map[string]string) TypeRef {
	if sor == nil {
		return TypeRef{Kind: KindAny}
	}
	if sor.Ref != nil {
		if name, ok := names[spec.SchemaName(sor.Ref.Ref)]; ok {
			return TypeRef{Kind: KindRef, Name: name}
		}
		return TypeRef{Kind: KindAny}
	}
	s := sor.Schema
	if s == nil {
		return TypeRef{Kind: KindAny}
	}
	switch s.Type {
	case "string", "integer", "number", "boolean":
		return TypeRef{Kind: s.Type, Format: s.Format}
	case "array":
		items := refOf(s.Items, names)
		return TypeRef{Kind: KindArray, Items: &items}
	case "object":
		return TypeRef{Kind: KindObject}
	}
	if len(s.AllOf) == 1 {
		return refOf(s.AllOf[0], names)
	}
	if len(s.Properties) > 0 {
		return TypeRef{Kind: KindObject}
	}
	return TypeRef{Kind: KindAny}
}
