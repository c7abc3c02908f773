// Package format pretty-prints generated source. Formatting is best effort:
// output that cannot be formatted is returned as it was.
package format

import (
	"fmt"
	"log/slog"

	gofumpt "mvdan.cc/gofumpt/format"
)

// Options keys read from the configuration's formatter record. Unknown keys
// are ignored.
const (
	OptLangVersion = "langVersion"
	OptModulePath  = "modulePath"
	OptExtraRules  = "extraRules"
)

// Source formats src written in lang. Only "go" is formatted; other
// languages pass through. On failure the error and the offending text are
// logged at warn level and src is returned unchanged.
func Source(src []byte, lang string, opts map[string]any, logger *slog.Logger) []byte {
	if lang != "go" {
		return src
	}
	if logger == nil {
		logger = slog.Default()
	}
	out, err := gofumpt.Source(src, goOptions(opts))
	if err != nil {
		logger.Warn("formatting failed, keeping unformatted output",
			slog.String("lang", lang),
			slog.Any("error", err),
			slog.String("text", string(src)))
		return src
	}
	return out
}

func goOptions(opts map[string]any) gofumpt.Options {
	var o gofumpt.Options
	if v, ok := opts[OptLangVersion]; ok {
		o.LangVersion = fmt.Sprint(v)
	}
	if v, ok := opts[OptModulePath]; ok {
		o.ModulePath = fmt.Sprint(v)
	}
	if v, ok := opts[OptExtraRules].(bool); ok {
		o.ExtraRules = v
	}
	return o
}
