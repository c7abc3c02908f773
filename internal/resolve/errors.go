package resolve

import "fmt"

// Collision scopes.
const (
	ScopeModule    = "module"
	ScopeInterface = "interface"
	ScopeType      = "type"
	ScopeField     = "field"
	ScopeParameter = "parameter"
	ScopeFile      = "file"
)

// CollisionError reports two entries that resolve to the same name. First
// and Second describe the entries in the order they were met.
type CollisionError struct {
	Source string
	Scope  string
	// Container is the module or type the collision happened in, "" for
	// source-wide scopes.
	Container string
	Key       string
	First     string
	Second    string
}

func (e *CollisionError) Error() string {
	where := e.Scope
	if e.Container != "" {
		where = fmt.Sprintf("%s in %s", e.Scope, e.Container)
	}
	msg := fmt.Sprintf("resolve: %s name %q used by both %s and %s", where, e.Key, e.First, e.Second)
	if e.Source != "" {
		msg = fmt.Sprintf("resolve %s: %s name %q used by both %s and %s", e.Source, where, e.Key, e.First, e.Second)
	}
	return msg
}
