// Package config loads the docdbctl configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the docdbctl configuration. There is no port knob: the
// document server's port is fixed by the protocol.
type Config struct {
	Host         string `yaml:"host" json:"host"`
	OutputFormat string `yaml:"output_format" json:"output_format"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
	LogFile      string `yaml:"log_file" json:"log_file"`
}

// DefaultPath returns the default config file path: ~/.docdb/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".docdb", "config.yaml")
	}
	return filepath.Join(home, ".docdb", "config.yaml")
}

// Load reads the configuration from the given YAML file path. A missing file
// is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Host:         "127.0.0.1",
		OutputFormat: "table",
		LogLevel:     "info",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}
