// Package naming turns raw API metadata (URL templates, operation ids, tag
// names and descriptions) into code-safe identifiers.
//
// Everything in this package is a pure function of its inputs: identifiers
// are stable across regeneration as long as the API description is unchanged.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TransformCamelCase converts a hyphen or space delimited name into
// lowerCamelCase. Only one delimiter kind is consulted and the hyphen wins
// when both are present:
//
//	"my-url-name" -> "myUrlName"
//	"My Url Name" -> "myUrlName"
//
// A name without either delimiter yields "", meaning no split was performed.
func TransformCamelCase(name string) string {
	var words []string
	switch {
	case strings.Contains(name, "-"):
		words = strings.Split(name, "-")
	case strings.Contains(name, " "):
		words = strings.Split(name, " ")
	}

	// A Caser keeps state between calls, so each call gets its own.
	lower := cases.Lower(language.Und)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(ToUpperFirstLetter(lower.String(w)))
	}
	return LowerFirst(b.String())
}

// ToDashCase strips spaces and rewrites every uppercase letter as a hyphen
// followed by its lowercase form. A hyphen produced by a leading uppercase
// letter is dropped: "myUrlName" -> "my-url-name", "UserInfo" -> "user-info".
func ToDashCase(name string) string {
	name = strings.ReplaceAll(name, " ", "")
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimPrefix(b.String(), "-")
}

const controllerSuffix = "-controller"

// ToDashDefaultCase is ToDashCase that also drops a trailing "-controller",
// which some description generators append to every group name.
func ToDashDefaultCase(name string) string {
	return strings.TrimSuffix(ToDashCase(name), controllerSuffix)
}

// ToUpperFirstLetter uppercases the first character and leaves the rest of
// text untouched. It is not a title-case.
func ToUpperFirstLetter(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

// LowerFirst lowercases the first character of text.
func LowerFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return text
	}
	return string(unicode.ToLower(r)) + text[size:]
}

// TransformDescription derives a group name from a human description such
// as "Pet Store Controller": words are split on single spaces, literal
// "Controller" tokens are removed, the first remaining word gets a
// lowercase first letter and everything is joined without separators.
func TransformDescription(description string) string {
	words := strings.Split(description, " ")
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w != "Controller" {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	kept[0] = LowerFirst(kept[0])
	return strings.Join(kept, "")
}

// HasCJK reports whether text contains CJK ideographs or full-width
// punctuation. Such text cannot be turned into an identifier.
func HasCJK(text string) bool {
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			return true
		case r >= 0xFF01 && r <= 0xFF5E:
			return true
		case r >= 0x3000 && r <= 0x3009:
			return true
		case r == 0x2026:
			return true
		}
	}
	return false
}

// TypeName converts an arbitrary schema or group name into an exported
// identifier. Runs of non-alphanumeric characters act as word breaks and the
// letter following a break is uppercased: "Result«List«User»»" becomes
// "ResultListUser", "user_info" becomes "UserInfo". A name starting with a
// digit gets a "T" prefix.
func TypeName(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if first, _ := utf8.DecodeRuneInString(out); unicode.IsDigit(first) {
		out = "T" + out
	}
	return out
}
