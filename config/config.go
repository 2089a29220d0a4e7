// Package config loads WikiPipe settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Output formats.
const (
	FormatHTML     = "html"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config holds every conversion setting.
type Config struct {
	Title      string `yaml:"title"`
	Author     string `yaml:"author"`
	RootPage   string `yaml:"root_page"`
	OutputDir  string `yaml:"output_dir"`
	OutputName string `yaml:"output_name"`
	Format     string `yaml:"format"`

	LowercaseLinks bool          `yaml:"lowercase_links"`
	StrictExternal bool          `yaml:"strict_external"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	NormalizeHTML  bool          `yaml:"normalize_html"`
	FrontMatter    bool          `yaml:"strip_front_matter"`

	LogLevel  string `yaml:"log_level"`
	ServeAddr string `yaml:"serve_addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		RootPage:      "Home.md",
		OutputDir:     ".",
		Format:        FormatHTML,
		FetchTimeout:  30 * time.Second,
		NormalizeHTML: true,
		LogLevel:      "info",
		ServeAddr:     ":8080",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for values the converter cannot use.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatHTML, FormatPDF, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("unknown format %q (want html, pdf, json or markdown)", c.Format)
	}
	if strings.TrimSpace(c.RootPage) == "" {
		return errors.New("root_page must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Name returns the output file name without extension, falling back to the
// title and then to "wiki".
func (c *Config) Name() string {
	if c.OutputName != "" {
		return c.OutputName
	}
	if c.Title != "" {
		return c.Title
	}
	return "wiki"
}
