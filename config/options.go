// Package config holds provider options: the target server version, the
// default character set, scaffolding settings and table filters. Options
// are read from a YAML file and overridden by the environment and flags.
package config

import (
	"fmt"
	"strings"

	"github.com/tordrt/xgscaffold/serverversion"
)

// AutoDetect as ServerVersion asks the server for its version.
const AutoDetect = "auto"

// Options configures an introspection run.
type Options struct {
	DSN                      string          `yaml:"dsn"`
	Database                 string          `yaml:"database"`
	ServerVersion            string          `yaml:"serverVersion"`
	CharSet                  *CharSet        `yaml:"charSet"`
	DefaultDateTimePrecision int             `yaml:"defaultDateTimePrecision"`
	Scaffold                 ScaffoldOptions `yaml:"scaffold"`
	Tables                   []string        `yaml:"tables"`
	ExcludeTables            []string        `yaml:"excludeTables"`
}

// Default returns options with the server version detected
// automatically. Scaffolding settings are left unset, which enables them.
func Default() *Options {
	return &Options{ServerVersion: AutoDetect}
}

// Validate checks value ranges. It does not contact the server.
func (o *Options) Validate() error {
	if o.DefaultDateTimePrecision < 0 || o.DefaultDateTimePrecision > 6 {
		return &ValidationError{
			Field:   "defaultDateTimePrecision",
			Message: fmt.Sprintf("must be between 0 and 6, got %d", o.DefaultDateTimePrecision),
		}
	}
	if o.CharSet != nil {
		if err := o.CharSet.Validate(); err != nil {
			return err
		}
	}
	if _, err := o.ParsedServerVersion(); err != nil {
		return err
	}
	return nil
}

// ParsedServerVersion returns the configured server version, or nil when
// it should be detected.
func (o *Options) ParsedServerVersion() (*serverversion.ServerVersion, error) {
	v := strings.TrimSpace(o.ServerVersion)
	if v == "" || strings.EqualFold(v, AutoDetect) {
		return nil, nil
	}
	sv, err := serverversion.Parse(v)
	if err != nil {
		return nil, &ValidationError{Field: "serverVersion", Message: err.Error()}
	}
	return sv, nil
}

// TableFilter returns a predicate that accepts the requested tables, or
// nil when every table is wanted. Excluded tables always lose.
func (o *Options) TableFilter() func(name string) bool {
	if len(o.Tables) == 0 && len(o.ExcludeTables) == 0 {
		return nil
	}

	include := toSet(o.Tables)
	exclude := toSet(o.ExcludeTables)
	return func(name string) bool {
		if exclude[name] {
			return false
		}
		return len(include) == 0 || include[name]
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = true
		}
	}
	return set
}
