package naming

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// IdentifierError reports a URL template that has nothing left to name once
// the shared prefix is removed.
type IdentifierError struct {
	URL      string
	SamePath string
}

func (e *IdentifierError) Error() string {
	if e.SamePath == "" {
		return fmt.Sprintf("naming: no identifier segment in url %q", e.URL)
	}
	return fmt.Sprintf("naming: no identifier segment in url %q after removing prefix %q", e.URL, e.SamePath)
}

var firstNonDotRun = regexp.MustCompile(`[^.]+`)

// IdentifierFromURL derives an operation identifier from its URL template:
//
//	IdentifierFromURL("/a/b/{id}", "get", "/a") == "getBById"
//
// samePath is removed as a literal prefix, the remainder is cut at its
// first '.', and each '/'-separated segment is upper-first joined. A
// "{name}" segment becomes "By"+Name. requestType (usually the HTTP verb) is
// prepended to the result.
func IdentifierFromURL(url, requestType, samePath string) (string, error) {
	rest := firstNonDotRun.FindString(strings.TrimPrefix(url, samePath))
	if rest == "" {
		return "", &IdentifierError{URL: url, SamePath: samePath}
	}

	var b strings.Builder
	b.WriteString(requestType)
	for _, seg := range strings.Split(rest, "/") {
		if isPathParam(seg) {
			b.WriteString("By")
			b.WriteString(ToUpperFirstLetter(seg[1 : len(seg)-1]))
			continue
		}
		b.WriteString(ToUpperFirstLetter(seg))
	}
	return b.String(), nil
}

func isPathParam(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

var usingSuffix = regexp.MustCompile(`^(.+)Using.+$`)

// Words that are reserved in the generated code's languages but commonly
// appear as operation ids. The two tables are paired by position.
var (
	reservedWords    = []string{"delete"}
	replacementWords = []string{"remove"}
)

// IdentifierFromOperationID trims the "Using<Verb>" suffix some description
// generators append ("listUsersUsingGET" -> "listUsers") and substitutes a
// reserved word that matches exactly: "deleteUsingDELETE" -> "remove", while
// "deleteUserUsingDELETE" stays "deleteUser".
func IdentifierFromOperationID(operationID string) string {
	identifier := operationID
	if m := usingSuffix.FindStringSubmatch(operationID); m != nil {
		identifier = m[1]
	}

	if i := slices.Index(reservedWords, identifier); i >= 0 {
		return replacementWords[i]
	}
	return identifier
}
