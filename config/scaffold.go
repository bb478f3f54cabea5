package config

import (
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// Connection string options understood only by the scaffolder.
const (
	ScaffoldCharSetOption   = "Scaffold:CharSet"
	ScaffoldCollationOption = "Scaffold:Collation"
	ScaffoldViewsOption     = "Scaffold:Views"
)

// ScaffoldSettings controls which optional facts are introspected.
type ScaffoldSettings struct {
	CharSet   bool
	Collation bool
	Views     bool
}

// DefaultScaffoldSettings enables everything.
func DefaultScaffoldSettings() ScaffoldSettings {
	return ScaffoldSettings{CharSet: true, Collation: true, Views: true}
}

// ScaffoldOptions is the configured form of ScaffoldSettings. Unset
// fields keep the default, so a zero ScaffoldOptions enables everything.
type ScaffoldOptions struct {
	CharSet   *bool `yaml:"charSet"`
	Collation *bool `yaml:"collation"`
	Views     *bool `yaml:"views"`
}

// Settings resolves o on top of DefaultScaffoldSettings.
func (o ScaffoldOptions) Settings() ScaffoldSettings {
	settings := DefaultScaffoldSettings()
	if o.CharSet != nil {
		settings.CharSet = *o.CharSet
	}
	if o.Collation != nil {
		settings.Collation = *o.Collation
	}
	if o.Views != nil {
		settings.Views = *o.Views
	}
	return settings
}

// ParseScaffoldSettings reads the Scaffold:* options from dsn on top of
// the defaults. See FromDSN.
func ParseScaffoldSettings(dsn string) (ScaffoldSettings, string, error) {
	return DefaultScaffoldSettings().FromDSN(dsn)
}

// FromDSN reads the Scaffold:* options from dsn, matching names
// case-insensitively, and returns dsn with them removed so the driver
// never sees them. Options absent from dsn keep the values in s.
func (s ScaffoldSettings) FromDSN(dsn string) (ScaffoldSettings, string, error) {
	settings := s

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return settings, "", fmt.Errorf("failed to parse connection string: %w", err)
	}

	targets := map[string]*bool{
		foldName(ScaffoldCharSetOption):   &settings.CharSet,
		foldName(ScaffoldCollationOption): &settings.Collation,
		foldName(ScaffoldViewsOption):     &settings.Views,
	}

	for key, value := range cfg.Params {
		target, ok := targets[foldName(key)]
		if !ok {
			continue
		}
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return settings, "", &ValidationError{Field: key, Message: fmt.Sprintf("'%s' is not a boolean", value)}
		}
		*target = enabled
		delete(cfg.Params, key)
	}

	return settings, cfg.FormatDSN(), nil
}
