package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dropsort/internal/logging"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string             // Config field with issue (e.g., "categories[0].name")
	Message  string             // Human-readable description
	Severity ValidationSeverity // "error" or "warning"
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

// ValidateConfig checks the configuration for errors and returns all findings.
func ValidateConfig(cfg *Configuration) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
	}

	var findings []ConfigValidationError
	findings = append(findings, ValidateWatchDirectory(cfg)...)
	findings = append(findings, ValidateCategories(cfg)...)
	findings = append(findings, ValidateSettings(cfg)...)

	for _, f := range findings {
		if f.Severity == SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateWatchDirectory checks that the watched directory exists and is a directory.
func ValidateWatchDirectory(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError
	dir := cfg.WatchDirectory

	if dir == "" {
		return append(errors, ConfigValidationError{
			Field:    "watch_directory",
			Message:  "watch directory is not set",
			Severity: SeverityError,
		})
	}

	info, err := os.Stat(dir)
	if err != nil {
		msg := "error accessing directory: " + err.Error()
		if os.IsNotExist(err) {
			msg = "directory does not exist: " + dir
		} else if os.IsPermission(err) {
			msg = "directory is not accessible: " + dir
		}
		return append(errors, ConfigValidationError{
			Field:    "watch_directory",
			Message:  msg,
			Severity: SeverityError,
		})
	}

	if !info.IsDir() {
		errors = append(errors, ConfigValidationError{
			Field:    "watch_directory",
			Message:  "path is not a directory: " + dir,
			Severity: SeverityError,
		})
	}

	// A journal inside the watched directory would be sorted into a category folder
	if cfg.Audit.IsEnabled() && cfg.Audit.Path != "" {
		journalDir := filepath.Dir(filepath.Clean(cfg.Audit.Path))
		if journalDir == filepath.Clean(dir) && !strings.HasPrefix(filepath.Base(cfg.Audit.Path), ".") {
			errors = append(errors, ConfigValidationError{
				Field:    "audit.path",
				Message:  "journal file lives directly in the watched directory and will be moved: " + cfg.Audit.Path,
				Severity: SeverityError,
			})
		}
	}

	return errors
}

// ValidateCategories checks category names and extension lists.
func ValidateCategories(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError

	if len(cfg.Categories) == 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "categories",
			Message:  "no categories configured; every file will go to " + cfg.FallbackCategory,
			Severity: SeverityWarning,
		})
	}

	if msg := checkFolderName(cfg.FallbackCategory); msg != "" {
		errors = append(errors, ConfigValidationError{
			Field:    "fallback_category",
			Message:  msg,
			Severity: SeverityError,
		})
	}

	names := make(map[string]int)
	owners := make(map[string]int) // normalized extension -> first category index
	for i, cat := range cfg.Categories {
		field := formatField("categories", i)

		if msg := checkFolderName(cat.Name); msg != "" {
			errors = append(errors, ConfigValidationError{
				Field:    field + ".name",
				Message:  msg,
				Severity: SeverityError,
			})
		}
		if first, exists := names[cat.Name]; exists {
			errors = append(errors, ConfigValidationError{
				Field:    field + ".name",
				Message:  "duplicate category \"" + cat.Name + "\" conflicts with category at index " + strconv.Itoa(first),
				Severity: SeverityError,
			})
		} else {
			names[cat.Name] = i
		}

		for j, ext := range cat.Extensions {
			extField := field + ".extensions[" + strconv.Itoa(j) + "]"
			if strings.ContainsAny(ext, `/\`) {
				errors = append(errors, ConfigValidationError{
					Field:    extField,
					Message:  "extension contains a path separator: \"" + ext + "\"",
					Severity: SeverityError,
				})
				continue
			}
			norm := normalizeExtension(ext)
			if norm == "" {
				errors = append(errors, ConfigValidationError{
					Field:    extField,
					Message:  "empty extension",
					Severity: SeverityWarning,
				})
				continue
			}
			if first, taken := owners[norm]; taken && first != i {
				errors = append(errors, ConfigValidationError{
					Field:    extField,
					Message:  "extension " + norm + " is already claimed by \"" + cfg.Categories[first].Name + "\"; the first category wins",
					Severity: SeverityWarning,
				})
				continue
			}
			owners[norm] = i
		}
	}

	return errors
}

// ValidateSettings checks scalar settings and ignore patterns.
func ValidateSettings(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError

	if cfg.QuiescenceMs != nil && *cfg.QuiescenceMs < 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "quiescence_ms",
			Message:  "quiescence_ms must be a non-negative integer",
			Severity: SeverityError,
		})
	}

	for i, pattern := range cfg.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errors = append(errors, ConfigValidationError{
				Field:    formatField("ignore_patterns", i),
				Message:  "invalid glob pattern \"" + pattern + "\": " + err.Error(),
				Severity: SeverityError,
			})
		}
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errors = append(errors, ConfigValidationError{
			Field:    "log_level",
			Message:  err.Error(),
			Severity: SeverityError,
		})
	}
	if _, err := logging.ParseFormat(cfg.LogFormat); err != nil {
		errors = append(errors, ConfigValidationError{
			Field:    "log_format",
			Message:  err.Error(),
			Severity: SeverityError,
		})
	}

	return errors
}

// Messages flattens the findings into "field: message" lines, errors first.
func (r *ValidationResult) Messages() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		out = append(out, e.Field+": "+e.Message)
	}
	for _, w := range r.Warnings {
		out = append(out, "warning: "+w.Field+": "+w.Message)
	}
	return out
}

// checkFolderName returns a problem description, or "" if name can be a folder.
func checkFolderName(name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return "category name cannot be empty"
	case name == "." || name == "..":
		return "category name cannot be \"" + name + "\""
	case strings.ContainsAny(name, `/\`):
		return "category name contains a path separator: \"" + name + "\""
	case strings.HasPrefix(name, "."):
		return "category name cannot start with a dot: \"" + name + "\""
	}
	return ""
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// formatField creates a field reference string for validation errors.
func formatField(name string, index int) string {
	return name + "[" + strconv.Itoa(index) + "]"
}
