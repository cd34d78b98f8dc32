// Package config handles configuration loading and validation for dropsort.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"dropsort/internal/classifier"
	"dropsort/internal/watcher"
)

//go:embed sample_config.toml
var sampleConfig string

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound      ConfigErrorType = "FILE_NOT_FOUND"
	InvalidSyntax     ConfigErrorType = "INVALID_SYNTAX"
	UnsupportedFormat ConfigErrorType = "UNSUPPORTED_FORMAT"
	ValidationError   ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration loading.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		if e.Message != "" {
			return fmt.Sprintf("configuration file not readable: %s: %s", e.Path, e.Message)
		}
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidSyntax:
		return fmt.Sprintf("invalid configuration file %s: %s", e.Path, e.Message)
	case UnsupportedFormat:
		return fmt.Sprintf("unsupported configuration format: %s", e.Path)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// Category maps a folder name to the extensions routed into it.
type Category struct {
	Name       string   `toml:"name" yaml:"name" json:"name"`
	Extensions []string `toml:"extensions" yaml:"extensions" json:"extensions"`
}

// AuditConfig controls the move journal.
type AuditConfig struct {
	Enabled *bool  `toml:"enabled" yaml:"enabled" json:"enabled,omitempty"`
	Path    string `toml:"path" yaml:"path" json:"path,omitempty"`
}

// IsEnabled reports whether the journal should be written. Unset means enabled.
func (a AuditConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Configuration holds all settings for dropsort.
type Configuration struct {
	WatchDirectory   string      `toml:"watch_directory" yaml:"watch_directory" json:"watchDirectory,omitempty"`
	FallbackCategory string      `toml:"fallback_category" yaml:"fallback_category" json:"fallbackCategory,omitempty"`
	Categories       []Category  `toml:"categories" yaml:"categories" json:"categories"`
	QuiescenceMs     *int        `toml:"quiescence_ms" yaml:"quiescence_ms" json:"quiescenceMs,omitempty"`
	IgnorePatterns   []string    `toml:"ignore_patterns" yaml:"ignore_patterns" json:"ignorePatterns,omitempty"`
	OrganizeExisting bool        `toml:"organize_existing" yaml:"organize_existing" json:"organizeExisting,omitempty"`
	LogLevel         string      `toml:"log_level" yaml:"log_level" json:"logLevel,omitempty"`
	LogFormat        string      `toml:"log_format" yaml:"log_format" json:"logFormat,omitempty"`
	Audit            AuditConfig `toml:"audit" yaml:"audit" json:"audit"`
}

const defaultQuiescenceMs = 1000

// DefaultCategories returns the built-in extension table in priority order.
// ".pdf" is listed under both PDF and Ebook; PDF wins.
func DefaultCategories() []Category {
	return []Category{
		{Name: "PDF", Extensions: []string{".pdf"}},
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}},
		{Name: "Video", Extensions: []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v"}},
		{Name: "Audio", Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma"}},
		{Name: "Documents", Extensions: []string{".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf", ".csv", ".odt"}},
		{Name: "Zip", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
		{Name: "Ebook", Extensions: []string{".epub", ".mobi", ".azw", ".azw3", ".pdf"}},
		{Name: "Installers", Extensions: []string{".exe", ".dmg", ".pkg", ".app", ".msi"}},
	}
}

// DefaultWatchDirectory returns ~/Downloads, or "Downloads" if the home directory is unknown.
func DefaultWatchDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// DefaultAuditPath returns the journal location under the user cache directory.
func DefaultAuditPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dropsort", "journal.jsonl")
}

// DefaultConfigPath returns the config file looked up when none is given.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dropsort", "config.toml")
}

// Default returns the built-in configuration.
func Default() *Configuration {
	cfg := &Configuration{}
	cfg.ApplyDefaults()
	return cfg
}

// SampleConfig returns the commented sample TOML configuration.
func SampleConfig() string {
	return sampleConfig
}

// ApplyDefaults fills unset fields. Categories are only defaulted when none are given.
func (c *Configuration) ApplyDefaults() {
	if c.WatchDirectory == "" {
		c.WatchDirectory = DefaultWatchDirectory()
	}
	if c.FallbackCategory == "" {
		c.FallbackCategory = classifier.DefaultFallback
	}
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
	if c.QuiescenceMs == nil {
		q := defaultQuiescenceMs
		c.QuiescenceMs = &q
	}
	if c.IgnorePatterns == nil {
		c.IgnorePatterns = watcher.DefaultIgnorePatterns()
	}
	if c.Audit.Path == "" {
		c.Audit.Path = DefaultAuditPath()
	}
	c.WatchDirectory = expandHome(c.WatchDirectory)
	c.Audit.Path = expandHome(c.Audit.Path)
}

// Quiescence returns the stability window as a duration.
func (c *Configuration) Quiescence() time.Duration {
	if c.QuiescenceMs == nil {
		return defaultQuiescenceMs * time.Millisecond
	}
	return time.Duration(*c.QuiescenceMs) * time.Millisecond
}

// ExtensionMap builds the classifier lookup from the configured categories.
func (c *Configuration) ExtensionMap() *classifier.ExtensionMap {
	categories := make([]classifier.Category, len(c.Categories))
	for i, cat := range c.Categories {
		categories[i] = classifier.Category{Name: cat.Name, Extensions: cat.Extensions}
	}
	return classifier.New(categories, c.FallbackCategory)
}

// Validate checks that the configuration is usable and returns the first error found.
func (c *Configuration) Validate() error {
	result := ValidateConfig(c)
	if result.Valid {
		return nil
	}
	first := result.Errors[0]
	return &ConfigError{
		Type:    ValidationError,
		Message: first.Field + ": " + first.Message,
	}
}

// Load reads, parses, and applies defaults to a configuration file. The format is
// chosen by extension: .toml, .yaml/.yml, or .json. Validation is left to the
// caller so command-line overrides can be applied first.
func Load(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: filePath}
		}
		return nil, &ConfigError{Type: FileNotFound, Path: filePath, Message: err.Error()}
	}

	cfg, err := Parse(filePath, data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadOrDefault loads filePath if given. With an empty path it tries
// DefaultConfigPath and falls back to Default when that file does not exist.
func LoadOrDefault(filePath string) (*Configuration, error) {
	if filePath != "" {
		return Load(filePath)
	}

	defaultPath := DefaultConfigPath()
	if defaultPath == "" {
		return Default(), nil
	}
	cfg, err := Load(defaultPath)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Type == FileNotFound && cfgErr.Message == "" {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data according to the extension of name.
func Parse(name string, data []byte) (*Configuration, error) {
	var cfg Configuration
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return nil, &ConfigError{Type: UnsupportedFormat, Path: name}
	}
	if err != nil {
		return nil, &ConfigError{Type: InvalidSyntax, Path: name, Message: err.Error()}
	}
	return &cfg, nil
}

// Save serializes a configuration as TOML.
func Save(cfg *Configuration, filePath string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return &ConfigError{Type: InvalidSyntax, Path: filePath, Message: err.Error()}
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
