package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func validConfig(t *testing.T) *Configuration {
	t.Helper()
	cfg := Default()
	cfg.WatchDirectory = t.TempDir()
	cfg.Audit.Path = filepath.Join(t.TempDir(), "journal.jsonl")
	return cfg
}

func hasFinding(findings []ConfigValidationError, field, fragment string) bool {
	for _, f := range findings {
		if f.Field == field && strings.Contains(f.Message, fragment) {
			return true
		}
	}
	return false
}

func TestValidateConfig_DefaultsAreValid(t *testing.T) {
	result := ValidateConfig(validConfig(t))

	if !result.Valid {
		t.Fatalf("default configuration should be valid: %v", result.Messages())
	}
	// .pdf appears under PDF and Ebook
	if !hasFinding(result.Warnings, "categories[6].extensions[4]", "already claimed by \"PDF\"") {
		t.Errorf("expected shadowed .pdf warning, got %v", result.Messages())
	}
}

func TestValidateWatchDirectory(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(t *testing.T, cfg *Configuration)
		field    string
		fragment string
	}{
		{
			name:     "unset",
			mutate:   func(t *testing.T, cfg *Configuration) { cfg.WatchDirectory = "" },
			field:    "watch_directory",
			fragment: "not set",
		},
		{
			name: "missing",
			mutate: func(t *testing.T, cfg *Configuration) {
				cfg.WatchDirectory = filepath.Join(t.TempDir(), "gone")
			},
			field:    "watch_directory",
			fragment: "does not exist",
		},
		{
			name: "regular file",
			mutate: func(t *testing.T, cfg *Configuration) {
				f := filepath.Join(t.TempDir(), "file")
				if err := os.WriteFile(f, nil, 0644); err != nil {
					t.Fatal(err)
				}
				cfg.WatchDirectory = f
			},
			field:    "watch_directory",
			fragment: "not a directory",
		},
		{
			name: "journal inside watched directory",
			mutate: func(t *testing.T, cfg *Configuration) {
				cfg.Audit.Path = filepath.Join(cfg.WatchDirectory, "journal.jsonl")
			},
			field:    "audit.path",
			fragment: "will be moved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(t, cfg)

			result := ValidateConfig(cfg)
			if result.Valid {
				t.Fatal("expected validation to fail")
			}
			if !hasFinding(result.Errors, tt.field, tt.fragment) {
				t.Errorf("missing %s error containing %q: %v", tt.field, tt.fragment, result.Messages())
			}
		})
	}
}

func TestValidateWatchDirectory_HiddenOrDisabledJournalAllowed(t *testing.T) {
	cfg := validConfig(t)
	cfg.Audit.Path = filepath.Join(cfg.WatchDirectory, ".journal.jsonl")
	if result := ValidateConfig(cfg); !result.Valid {
		t.Errorf("hidden journal should be allowed: %v", result.Messages())
	}

	cfg = validConfig(t)
	disabled := false
	cfg.Audit = AuditConfig{Enabled: &disabled, Path: filepath.Join(cfg.WatchDirectory, "journal.jsonl")}
	if result := ValidateConfig(cfg); !result.Valid {
		t.Errorf("disabled journal path should not be checked: %v", result.Messages())
	}
}

func TestValidateCategories(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		fallback   string
		field      string
		fragment   string
		isError    bool
	}{
		{"empty name", []Category{{Name: " ", Extensions: []string{".a"}}}, "Others", "categories[0].name", "cannot be empty", true},
		{"separator in name", []Category{{Name: "a/b", Extensions: []string{".a"}}}, "Others", "categories[0].name", "path separator", true},
		{"dot dot name", []Category{{Name: "..", Extensions: []string{".a"}}}, "Others", "categories[0].name", "cannot be", true},
		{"hidden name", []Category{{Name: ".cache", Extensions: []string{".a"}}}, "Others", "categories[0].name", "start with a dot", true},
		{"duplicate name", []Category{{Name: "A", Extensions: []string{".a"}}, {Name: "A", Extensions: []string{".b"}}}, "Others", "categories[1].name", "duplicate category", true},
		{"bad fallback", []Category{{Name: "A", Extensions: []string{".a"}}}, "x/y", "fallback_category", "path separator", true},
		{"separator in extension", []Category{{Name: "A", Extensions: []string{"a/b"}}}, "Others", "categories[0].extensions[0]", "path separator", true},
		{"empty extension", []Category{{Name: "A", Extensions: []string{"."}}}, "Others", "categories[0].extensions[0]", "empty extension", false},
		{"shadowed extension", []Category{{Name: "A", Extensions: []string{".TXT"}}, {Name: "B", Extensions: []string{"txt"}}}, "Others", "categories[1].extensions[0]", "first category wins", false},
		{"no categories", nil, "Others", "categories", "every file will go to Others", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Categories = tt.categories
			cfg.FallbackCategory = tt.fallback

			result := ValidateConfig(cfg)
			findings := result.Warnings
			if tt.isError {
				findings = result.Errors
				if result.Valid {
					t.Error("expected Valid=false")
				}
			} else if !result.Valid {
				t.Errorf("warnings should not invalidate: %v", result.Messages())
			}
			if !hasFinding(findings, tt.field, tt.fragment) {
				t.Errorf("missing %s finding containing %q: %v", tt.field, tt.fragment, result.Messages())
			}
		})
	}
}

func TestValidateSettings(t *testing.T) {
	negative := -5

	tests := []struct {
		name   string
		mutate func(cfg *Configuration)
		field  string
	}{
		{"negative quiescence", func(cfg *Configuration) { cfg.QuiescenceMs = &negative }, "quiescence_ms"},
		{"bad glob", func(cfg *Configuration) { cfg.IgnorePatterns = []string{"*.tmp", "[abc"} }, "ignore_patterns[1]"},
		{"bad level", func(cfg *Configuration) { cfg.LogLevel = "loud" }, "log_level"},
		{"bad format", func(cfg *Configuration) { cfg.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			result := ValidateConfig(cfg)
			if result.Valid {
				t.Fatal("expected validation to fail")
			}
			if !hasFinding(result.Errors, tt.field, "") {
				t.Errorf("missing %s error: %v", tt.field, result.Messages())
			}
		})
	}
}

func TestValidationResult_Messages(t *testing.T) {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{{Field: "a", Message: "broken", Severity: SeverityError}},
		Warnings: []ConfigValidationError{{Field: "b", Message: "odd", Severity: SeverityWarning}},
	}
	got := result.Messages()
	if len(got) != 2 || got[0] != "a: broken" || got[1] != "warning: b: odd" {
		t.Errorf("Messages() = %v", got)
	}
}

func TestValidationReportsAllErrors(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every bad category and pattern is reported, not just the first", prop.ForAll(
		func(badNames int, badPatterns int) bool {
			cfg := validConfig(t)
			cfg.Categories = nil
			cfg.IgnorePatterns = nil

			for i := 0; i < badNames; i++ {
				cfg.Categories = append(cfg.Categories, Category{
					Name:       "bad/" + strconv.Itoa(i),
					Extensions: []string{".e" + strconv.Itoa(i)},
				})
			}
			for i := 0; i < badPatterns; i++ {
				cfg.IgnorePatterns = append(cfg.IgnorePatterns, "[unclosed"+strconv.Itoa(i))
			}

			result := ValidateConfig(cfg)

			nameErrors, patternErrors := 0, 0
			for _, e := range result.Errors {
				if strings.HasSuffix(e.Field, ".name") {
					nameErrors++
				}
				if strings.HasPrefix(e.Field, "ignore_patterns[") {
					patternErrors++
				}
			}
			if nameErrors != badNames || patternErrors != badPatterns {
				t.Logf("names: got %d want %d; patterns: got %d want %d",
					nameErrors, badNames, patternErrors, badPatterns)
				return false
			}
			return result.Valid == (badNames+badPatterns == 0)
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
