// Package config loads the generator configuration file and resolves it into
// one DataSourceConfig per API origin.
package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
)

const (
	DefaultFileName     = "oas2client-config.json"
	DefaultOutDir       = "service"
	DefaultTemplatePath = "serviceTemplate"
	DefaultTemplate     = "go"
)

// Origin is one named API description source. A nil flag inherits the
// top-level value.
type Origin struct {
	OriginURL        string
	Name             string
	UsingOperationID *bool
	TaggedByName     *bool
}

// Config is the top-level configuration record. When Origins is non-empty
// the single-origin OriginURL is ignored.
type Config struct {
	OriginURL        string
	UsingOperationID bool
	TaggedByName     bool
	OutDir           string
	Origins          []Origin
	TemplatePath     string
	// Template names a built-in template used when no template file exists
	// at TemplatePath.
	Template string
	// FormatterOptions is handed to the formatter untouched.
	FormatterOptions map[string]any
}

// Default returns a Config carrying the documented defaults.
func Default() Config {
	return Config{
		TaggedByName: true,
		OutDir:       DefaultOutDir,
		TemplatePath: DefaultTemplatePath,
		Template:     DefaultTemplate,
	}
}

// DataSourceConfig is the resolved view of one origin. One value drives one
// generation pass.
type DataSourceConfig struct {
	OriginURL        string
	Name             string
	UsingOperationID bool
	TaggedByName     bool
	OutDir           string
	TemplatePath     string
	Template         string
	FormatterOptions map[string]any
}

// TargetDir is where the source's files are written. Named origins each get
// their own directory under OutDir.
func (d DataSourceConfig) TargetDir() string {
	if d.Name == "" {
		return d.OutDir
	}
	return filepath.Join(d.OutDir, d.Name)
}

// Validate checks that the origin fields required for resolution are set.
// Every problem found is reported, joined.
func (c *Config) Validate() error {
	if len(c.Origins) == 0 {
		if c.OriginURL == "" {
			return &Error{Field: "originUrl", Index: -1, Message: "is required to locate the remote API description"}
		}
		return nil
	}

	var errs []error
	for i, o := range c.Origins {
		if o.OriginURL == "" {
			errs = append(errs, &Error{Field: fmt.Sprintf("origins[%d].originUrl", i), Index: i, Message: "is required"})
		}
		switch {
		case o.Name == "":
			errs = append(errs, &Error{Field: fmt.Sprintf("origins[%d].name", i), Index: i, Message: "is required"})
		case !isPlainName(o.Name):
			errs = append(errs, &Error{
				Field:   fmt.Sprintf("origins[%d].name", i),
				Index:   i,
				Message: fmt.Sprintf("%q must be a single directory name under outDir", o.Name),
			})
		}
	}
	return errors.Join(errs...)
}

// isPlainName reports whether name is usable as one path element.
func isPlainName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// DataSources validates c and resolves it against configDir, the directory
// holding the configuration file. Relative OutDir and TemplatePath values
// are joined onto configDir.
func (c *Config) DataSources(configDir string) ([]DataSourceConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	common := DataSourceConfig{
		UsingOperationID: c.UsingOperationID,
		TaggedByName:     c.TaggedByName,
		OutDir:           resolvePath(configDir, c.OutDir),
		TemplatePath:     resolvePath(configDir, c.TemplatePath),
		Template:         c.Template,
		FormatterOptions: c.FormatterOptions,
	}

	if len(c.Origins) == 0 {
		ds := merge(common, Origin{OriginURL: c.OriginURL})
		return []DataSourceConfig{ds}, nil
	}

	out := make([]DataSourceConfig, 0, len(c.Origins))
	for _, o := range c.Origins {
		out = append(out, merge(common, o))
	}
	return out, nil
}

// merge layers an origin over the common fields; origin values win.
func merge(common DataSourceConfig, o Origin) DataSourceConfig {
	ds := common
	ds.OriginURL = o.OriginURL
	ds.Name = o.Name
	if o.UsingOperationID != nil {
		ds.UsingOperationID = *o.UsingOperationID
	}
	if o.TaggedByName != nil {
		ds.TaggedByName = *o.TaggedByName
	}
	ds.FormatterOptions = maps.Clone(common.FormatterOptions)
	return ds
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
