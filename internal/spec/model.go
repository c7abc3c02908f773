package spec

import (
	"slices"
	"strings"
)

// Internal model consumed by the resolver. It is read-only once built.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

var knownMethods = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE}

// ParseHttpMethod matches s case-insensitively against the supported
// methods.
func ParseHttpMethod(s string) (HttpMethod, bool) {
	m := HttpMethod(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(knownMethods, m) {
		return m, true
	}
	return "", false
}

type ServiceModel struct {
	Title       string
	Version     string
	Description string
	Servers     []Server
	Tags        []TagModel
	Endpoints   []EndpointModel
	Schemas     map[string]Schema
}

type Server struct {
	URL         string
	Description string
}

// TagModel is a tag that at least one endpoint uses. Description comes from
// the document's top-level tag list when present.
type TagModel struct {
	Name        string
	Description string
}

type EndpointModel struct {
	ID          string // method + " " + path
	OperationID string
	Method      HttpMethod
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []ParameterModel
	RequestBody *RequestBodyModel
	Responses   []ResponseModel
}

type ParameterModel struct {
	Name        string
	In          string // path|query|header|cookie
	Required    bool
	Description string
	Schema      *SchemaOrRef
}

type RequestBodyModel struct {
	Content  []Media
	Required bool
}

type ResponseModel struct {
	Status      string // 200, 4xx, default
	Description string
	Content     []Media
}

type Media struct {
	Mime   string
	Schema *SchemaOrRef
}

type Schema struct {
	Name        string
	Type        string
	Format      string
	Description string
	Properties  map[string]*SchemaOrRef
	Required    []string
	Items       *SchemaOrRef
	AllOf       []*SchemaOrRef
	Enum        []any
}

type SchemaRef struct{ Ref string }

type SchemaOrRef struct {
	Schema *Schema
	Ref    *SchemaRef
}
