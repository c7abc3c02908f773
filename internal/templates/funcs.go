package templates

import (
	"go/token"
	"go/types"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/mark3labs/oas2client/internal/naming"
	"github.com/mark3labs/oas2client/internal/resolve"
)

// Funcs returns the function map every template is compiled with.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"upperFirst": naming.ToUpperFirstLetter,
		"lowerFirst": naming.LowerFirst,
		"camel":      naming.TransformCamelCase,
		"dash":       naming.ToDashCase,
		"export":     naming.TypeName,
		"quote":      strconv.Quote,
		"join":       strings.Join,
		"comment":    comment,
		"oneLine":    oneLine,

		"goIdent":     goIdent,
		"goType":      goType,
		"goFieldType": goFieldType,
		"goResult":    goResult,
		"goPath":      goPath,
		"jsonTag":     jsonTag,

		"tsType":      func(t resolve.TypeRef) string { return tsType(t, "") },
		"tsQualified": func(t resolve.TypeRef) string { return tsType(t, "T.") },
		"tsProp":      tsProp,
		"tsUnion":     tsUnion,
		"tsArgs":      tsArgs,
		"tsResult":    tsResult,
		"tsPath":      tsPath,
		"tsDoc":       tsDoc,
	}
}

// comment renders text as a block of "//" line comments.
func comment(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			lines[i] = "//"
			continue
		}
		lines[i] = "// " + l
	}
	return strings.Join(lines, "\n")
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Names the generated Go methods use for their own locals.
var goLocals = map[string]bool{
	"ctx": true, "s": true, "q": true, "h": true, "out": true, "err": true,
	"body": true, "context": true, "query": true, "header": true,
}

// goIdent makes an argument name safe to declare next to the method's own
// locals, keywords and predeclared identifiers.
func goIdent(name string) string {
	if token.IsKeyword(name) || goLocals[name] || types.Universe.Lookup(name) != nil {
		return name + "_"
	}
	return name
}

func goType(t resolve.TypeRef) string {
	switch t.Kind {
	case resolve.KindRef:
		return t.Name
	case resolve.KindString:
		return "string"
	case resolve.KindInteger:
		if t.Format == "int32" {
			return "int32"
		}
		return "int64"
	case resolve.KindNumber:
		if t.Format == "float" {
			return "float32"
		}
		return "float64"
	case resolve.KindBoolean:
		return "bool"
	case resolve.KindArray:
		if t.Items == nil {
			return "[]any"
		}
		return "[]" + goType(*t.Items)
	case resolve.KindObject:
		return "map[string]any"
	default:
		return "any"
	}
}

// goFieldType points at named types so that recursive schemas still compile.
func goFieldType(f resolve.Field) string {
	if f.Type.Kind == resolve.KindRef {
		return "*" + f.Type.Name
	}
	return goType(f.Type)
}

func goResult(i resolve.Interface) string {
	if i.Response == nil {
		return "struct{}"
	}
	return goType(*i.Response)
}

func jsonTag(f resolve.Field) string {
	if f.Required {
		return "`json:\"" + f.Name + "\"`"
	}
	return "`json:\"" + f.Name + ",omitempty\"`"
}

var pathParamRe = regexp.MustCompile(`\{([^}/]+)\}`)

type pathPart struct {
	literal string
	param   *resolve.Param
}

// splitPath cuts a URL template at its declared path parameters. A
// placeholder without a matching parameter stays literal.
func splitPath(i resolve.Interface) []pathPart {
	var parts []pathPart
	last := 0
	for _, loc := range pathParamRe.FindAllStringSubmatchIndex(i.Path, -1) {
		name := i.Path[loc[2]:loc[3]]
		var param *resolve.Param
		for k := range i.PathParams {
			if i.PathParams[k].Name == name {
				param = &i.PathParams[k]
				break
			}
		}
		if param == nil {
			continue
		}
		if loc[0] > last {
			parts = append(parts, pathPart{literal: i.Path[last:loc[0]]})
		}
		parts = append(parts, pathPart{param: param})
		last = loc[1]
	}
	if last < len(i.Path) || len(parts) == 0 {
		parts = append(parts, pathPart{literal: i.Path[last:]})
	}
	return parts
}

// goPath renders a Go expression building the request path, such as
// "/pet/" + pathParam(petId).
func goPath(i resolve.Interface) string {
	parts := splitPath(i)
	exprs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.param != nil {
			exprs = append(exprs, "pathParam("+goIdent(p.param.Ident)+")")
			continue
		}
		exprs = append(exprs, strconv.Quote(p.literal))
	}
	return strings.Join(exprs, " + ")
}

func tsType(t resolve.TypeRef, ns string) string {
	switch t.Kind {
	case resolve.KindRef:
		return ns + t.Name
	case resolve.KindString:
		return "string"
	case resolve.KindInteger, resolve.KindNumber:
		return "number"
	case resolve.KindBoolean:
		return "boolean"
	case resolve.KindArray:
		if t.Items == nil {
			return "unknown[]"
		}
		inner := tsType(*t.Items, ns)
		if strings.ContainsAny(inner, " |") {
			inner = "(" + inner + ")"
		}
		return inner + "[]"
	case resolve.KindObject:
		return "Record<string, unknown>"
	default:
		return "unknown"
	}
}

var tsIdentRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// tsProp quotes a property name that is not a plain identifier.
func tsProp(name string) string {
	if tsIdentRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func tsUnion(values []string) string {
	if len(values) == 0 {
		return "string"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " | ")
}

// Reserved words that cannot name a TypeScript parameter.
var tsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "params": true, "body": true,
}

func tsIdent(name string) string {
	if tsReserved[name] {
		return name + "_"
	}
	return name
}

// tsArgs renders a method's parameter list: path parameters, then the body,
// then one "params" object for query and header parameters.
func tsArgs(i resolve.Interface) string {
	opts := append(append([]resolve.Param(nil), i.QueryParams...), i.HeaderParams...)
	anyRequired := false
	fields := make([]string, 0, len(opts))
	for _, p := range opts {
		opt := "?"
		if p.Required {
			opt = ""
			anyRequired = true
		}
		fields = append(fields, tsProp(p.Ident)+opt+": "+tsType(p.Type, "T."))
	}

	var args []string
	for _, p := range i.PathParams {
		args = append(args, tsIdent(p.Ident)+": "+tsType(p.Type, "T."))
	}
	if i.Body != nil {
		body := "body: " + tsType(*i.Body, "T.")
		switch {
		case i.BodyRequired:
		case anyRequired:
			// An optional parameter cannot precede a required one.
			body += " | undefined"
		default:
			body = "body?: " + tsType(*i.Body, "T.")
		}
		args = append(args, body)
	}
	if len(fields) > 0 {
		arg := "params: { " + strings.Join(fields, "; ") + " }"
		if !anyRequired {
			arg += " = {}"
		}
		args = append(args, arg)
	}
	return strings.Join(args, ", ")
}

func tsResult(i resolve.Interface) string {
	if i.Response == nil {
		return "void"
	}
	return tsType(*i.Response, "T.")
}

// tsPath renders a template literal building the request path.
func tsPath(i resolve.Interface) string {
	var b strings.Builder
	b.WriteByte('`')
	for _, p := range splitPath(i) {
		if p.param != nil {
			b.WriteString("${encodeURIComponent(String(" + tsIdent(p.param.Ident) + "))}")
			continue
		}
		b.WriteString(strings.NewReplacer("`", "\\`", "${", "\\${").Replace(p.literal))
	}
	b.WriteByte('`')
	return b.String()
}

// tsDoc renders text as a JSDoc block.
func tsDoc(text string) string {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "*/", "*\\/")), "\n")
	var b strings.Builder
	b.WriteString("/**\n")
	for _, l := range lines {
		b.WriteString(" * " + strings.TrimRight(l, " \t\r") + "\n")
	}
	b.WriteString(" */")
	return b.String()
}
