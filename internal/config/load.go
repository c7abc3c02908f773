package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes the configuration file at path. JSON is the usual
// format; YAML is accepted as well. Keys match case-insensitively and ignore
// '-' and '_'. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Index: -1, Message: "cannot read file", Err: err}
	}
	return Parse(path, data)
}

// Parse decodes configuration content. path is only used in error messages.
func Parse(path string, data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Path: path, Index: -1, Message: "not a valid JSON or YAML document", Err: err}
	}

	cfg := Default()
	seen := make(map[string]string, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if err := checkDuplicateKey(seen, key, key, -1); err != nil {
			err.Path = path
			return nil, err
		}
		if err := applyField(&cfg, key, raw[key]); err != nil {
			err.Path = path
			return nil, err
		}
	}
	return &cfg, nil
}

// checkDuplicateKey rejects a key that normalizes to a field an earlier key
// already set, such as "outDir" next to "out_dir".
func checkDuplicateKey(seen map[string]string, key, field string, index int) *Error {
	canonical := normalizeKey(key)
	if canonical == "prettierconfig" {
		canonical = "formatteroptions"
	}
	if prev, ok := seen[canonical]; ok {
		return &Error{Field: field, Index: index, Message: fmt.Sprintf("sets the same field as %q", prev)}
	}
	seen[canonical] = key
	return nil
}

func applyField(cfg *Config, key string, value any) *Error {
	fieldErr := func(err error) *Error {
		return &Error{Field: key, Index: -1, Message: err.Error()}
	}

	var err error
	switch normalizeKey(key) {
	case "originurl":
		cfg.OriginURL, err = valueAsString(value)
	case "usingoperationid":
		err = setBool(&cfg.UsingOperationID, value)
	case "taggedbyname":
		err = setBool(&cfg.TaggedByName, value)
	case "outdir":
		cfg.OutDir, err = valueAsString(value)
	case "templatepath":
		cfg.TemplatePath, err = valueAsString(value)
	case "template":
		cfg.Template, err = valueAsString(value)
	case "formatteroptions", "prettierconfig":
		cfg.FormatterOptions, err = valueAsMap(value)
	case "origins":
		origins, oerr := parseOrigins(key, value)
		if oerr != nil {
			return oerr
		}
		cfg.Origins = origins
	default:
		return &Error{Field: key, Index: -1, Message: "unknown field"}
	}
	if err != nil {
		return fieldErr(err)
	}
	return nil
}

func parseOrigins(key string, value any) ([]Origin, *Error) {
	if value == nil {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, &Error{Field: key, Index: -1, Message: fmt.Sprintf("expected a list, got %T", value)}
	}

	origins := make([]Origin, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &Error{Field: fmt.Sprintf("origins[%d]", i), Index: i, Message: fmt.Sprintf("expected an object, got %T", item)}
		}
		var o Origin
		seen := make(map[string]string, len(entry))
		for _, k := range slices.Sorted(maps.Keys(entry)) {
			v := entry[k]
			field := fmt.Sprintf("origins[%d].%s", i, k)
			if derr := checkDuplicateKey(seen, k, field, i); derr != nil {
				return nil, derr
			}
			var err error
			switch normalizeKey(k) {
			case "originurl":
				o.OriginURL, err = valueAsString(v)
			case "name":
				o.Name, err = valueAsString(v)
			case "usingoperationid":
				o.UsingOperationID, err = valueAsOptionalBool(v)
			case "taggedbyname":
				o.TaggedByName, err = valueAsOptionalBool(v)
			default:
				return nil, &Error{Field: field, Index: i, Message: "unknown field"}
			}
			if err != nil {
				return nil, &Error{Field: field, Index: i, Message: err.Error()}
			}
		}
		origins = append(origins, o)
	}
	return origins, nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

// setBool stores v into dst. A null value keeps the default already in dst.
func setBool(dst *bool, v any) error {
	b, err := valueAsOptionalBool(v)
	if err != nil || b == nil {
		return err
	}
	*dst = *b
	return nil
}

func valueAsOptionalBool(v any) (*bool, error) {
	var out bool
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		out = val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			out = true
		case "false", "f", "0", "no", "n", "":
			out = false
		default:
			return nil, fmt.Errorf("invalid boolean value %q", val)
		}
	default:
		return nil, fmt.Errorf("expected boolean, got %T", v)
	}
	return &out, nil
}

func valueAsMap(v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return val, nil
	default:
		return nil, fmt.Errorf("expected object, got %T", v)
	}
}
