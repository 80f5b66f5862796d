package mcpserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL   = "http://127.0.0.1:8080"
	defaultSpecPath = "/docs/openapi.json"
)

// Config is the top-level MCP server configuration loaded from mcp.yaml.
type Config struct {
	APIURL    string                    `yaml:"api_url"`
	SpecPath  string                    `yaml:"spec_path"`
	Defaults  map[string]MethodDefaults `yaml:"defaults"`
	Groups    map[string]GroupConfig    `yaml:"groups"`
	Overrides map[string]ToolOverride   `yaml:"overrides"`
}

// MethodDefaults holds the MCP annotation hints applied to every tool built
// from the given HTTP method. Nil means no hint is emitted.
type MethodDefaults struct {
	ReadOnly    *bool `yaml:"readonly"`
	Destructive *bool `yaml:"destructive"`
	Idempotent  *bool `yaml:"idempotent"`
}

// GroupConfig defines an MCP tool group and the OpenAPI tags it collects.
type GroupConfig struct {
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// ToolOverride allows per-tool customization. Skip drops the operation
// entirely, for endpoints that cannot work over MCP (file uploads).
type ToolOverride struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Skip        bool   `yaml:"skip"`
	ReadOnly    *bool  `yaml:"readonly"`
	Destructive *bool  `yaml:"destructive"`
	Idempotent  *bool  `yaml:"idempotent"`
}

// LoadConfig reads and parses the mcp.yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses mcp.yaml configuration from raw bytes and fills in
// defaults for the API location.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.SpecPath == "" {
		cfg.SpecPath = defaultSpecPath
	}

	return &cfg, nil
}

// tagToGroup builds a reverse mapping from OpenAPI tag to group name.
func (c *Config) tagToGroup() map[string]string {
	m := make(map[string]string)
	for group, gc := range c.Groups {
		for _, tag := range gc.Tags {
			m[tag] = group
		}
	}
	return m
}
