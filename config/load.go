package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted for the connection string, in order.
var DSNEnvVars = []string{"XG_DSN", "DATABASE_URL"}

// Load reads a YAML options file on top of Default and validates it.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML options on top of Default and validates them.
func Parse(data []byte) (*Options, error) {
	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// LoadEnv loads .env files into the process environment, then returns the
// first non-empty DSN variable. Missing .env files are not an error.
func LoadEnv(filenames ...string) (string, error) {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to load environment file: %w", err)
	}
	for _, name := range DSNEnvVars {
		if dsn := os.Getenv(name); dsn != "" {
			return dsn, nil
		}
	}
	return "", nil
}
