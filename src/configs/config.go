package configs

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Log info.
type Log struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Document is one file the CLI migrates.
type Document struct {
	Path string `yaml:"path" json:"path"`
	To   string `yaml:"to" json:"to"`
	// Backward selects the downgrade chain for this document.
	Backward bool `yaml:"backward,omitempty" json:"backward,omitempty"`
	// VersionField overrides the config-wide version field for this document.
	VersionField string `yaml:"version_field,omitempty" json:"version_field,omitempty"`
}

// Config is the root CLI configuration.
type Config struct {
	File  string `yaml:"-" json:"-"`
	Debug bool   `yaml:"debug" json:"debug"`
	Log   Log    `yaml:"log" json:"log"`
	// VersionField is the top-level key holding each document's version.
	VersionField string     `yaml:"version_field" json:"version_field"`
	CacheSize    int        `yaml:"cache_size" json:"cache_size"`
	Documents    []Document `yaml:"documents" json:"documents"`
}

var defaultConfig = Config{
	Debug: false,
	Log: Log{
		Level: "info",
	},
	VersionField: "version",
	CacheSize:    1024,
	Documents:    []Document{},
}

// NewConfig returns a config filled with defaults.
func NewConfig() *Config {
	config := defaultConfig
	return &config
}

// NewConfigWithBytes parses a YAML config, layered over the defaults.
func NewConfigWithBytes(b []byte) (*Config, error) {
	config := defaultConfig
	if err := yaml.Unmarshal(b, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// NewConfigWithFile loads a YAML config from disk.
func NewConfigWithFile(configFilePath string) (*Config, error) {
	b, err := os.ReadFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %s", configFilePath)
	}
	config, err := NewConfigWithBytes(b)
	if err != nil {
		return nil, err
	}
	config.File = configFilePath
	return config, nil
}

// Verify checks the config for values the CLI cannot work with.
func (c *Config) Verify() error {
	if c == nil {
		return fmt.Errorf("config is null")
	}
	if c.VersionField == "" {
		return fmt.Errorf("version_field can not be empty")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	for i, doc := range c.Documents {
		if doc.Path == "" {
			return fmt.Errorf("documents[%d]: path can not be empty", i)
		}
		if doc.To == "" {
			return fmt.Errorf("documents[%d]: to can not be empty", i)
		}
	}
	return nil
}

// Marshal renders the config back to YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseVersion turns a config version string into a registry key. Plain
// integers become int so they match int-keyed chains; anything else stays a
// string.
func ParseVersion(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
