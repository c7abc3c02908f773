package resolve

// Source is one data source after name resolution. It is what templates
// render; nothing in it refers back to the API description.
type Source struct {
	// Name is the data source name from the configuration, "" for a single
	// origin.
	Name string
	// Package is a code-safe package name derived from the output directory.
	Package     string
	Title       string
	Version     string
	Description string
	BaseURL     string
	Modules     []Module
	Types       []Type
}

// Module is one group of operations, rendered as one file.
type Module struct {
	// Name is the dash-case file name without extension.
	Name string
	// Identifier is the lowerCamelCase code name of the module.
	Identifier string
	// TypeName is Identifier with an upper-case first letter.
	TypeName    string
	Tag         string
	Description string
	// SamePath is the URL prefix shared by every operation of the module.
	SamePath   string
	Interfaces []Interface
}

// Interface is one callable operation.
type Interface struct {
	Name         string
	OperationID  string
	Method       string // upper-case HTTP verb
	Path         string
	Summary      string
	Description  string
	Deprecated   bool
	PathParams   []Param
	QueryParams  []Param
	HeaderParams []Param
	Body         *TypeRef
	BodyRequired bool
	Response     *TypeRef
}

// Params returns path, query and header parameters in that order.
func (i Interface) Params() []Param {
	out := make([]Param, 0, len(i.PathParams)+len(i.QueryParams)+len(i.HeaderParams))
	out = append(out, i.PathParams...)
	out = append(out, i.QueryParams...)
	return append(out, i.HeaderParams...)
}

type Param struct {
	// Name is the wire name.
	Name string
	// Ident is the lowerCamelCase argument name.
	Ident       string
	In          string
	Required    bool
	Description string
	Type        TypeRef
}

// Kinds of TypeRef.
const (
	KindRef     = "ref"
	KindString  = "string"
	KindInteger = "integer"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindArray   = "array"
	KindObject  = "object"
	KindAny     = "any"
)

// TypeRef describes the type of a parameter, field, body or response.
type TypeRef struct {
	Kind string
	// Name is the resolved type name when Kind is KindRef.
	Name   string
	Format string
	Items  *TypeRef
}

// Kinds of Type.
const (
	TypeStruct = "struct"
	TypeEnum   = "enum"
	TypeAlias  = "alias"
)

// Type is a named type derived from a component schema.
type Type struct {
	Name string
	// Schema is the component name the type was derived from.
	Schema      string
	Description string
	Kind        string
	Fields      []Field
	// Embeds lists the types an allOf composition pulls in.
	Embeds []string
	Values []string
	Alias  *TypeRef
}

type Field struct {
	// Name is the wire name.
	Name        string
	Ident       string
	Required    bool
	Description string
	Type        TypeRef
}
