// Package classifier maps file extensions to category folder names.
package classifier

import (
	"path/filepath"
	"strings"
)

// DefaultFallback is the category used for files whose extension is unknown or missing.
const DefaultFallback = "Others"

// Category names a folder and the extensions routed into it.
type Category struct {
	Name       string
	Extensions []string
}

// ExtensionMap is an ordered, immutable extension-to-category lookup.
// When an extension appears in more than one category, the first category wins.
type ExtensionMap struct {
	categories []Category
	lookup     map[string]string
	fallback   string
}

// New builds an ExtensionMap from categories in priority order.
// Extensions are normalized to lowercase with a leading dot; empty entries are skipped.
// An empty fallback resolves to DefaultFallback.
func New(categories []Category, fallback string) *ExtensionMap {
	if fallback == "" {
		fallback = DefaultFallback
	}

	m := &ExtensionMap{
		categories: make([]Category, 0, len(categories)),
		lookup:     make(map[string]string),
		fallback:   fallback,
	}

	for _, c := range categories {
		normalized := Category{Name: c.Name, Extensions: make([]string, 0, len(c.Extensions))}
		for _, ext := range c.Extensions {
			ext = NormalizeExtension(ext)
			if ext == "" {
				continue
			}
			normalized.Extensions = append(normalized.Extensions, ext)
			// First match wins
			if _, taken := m.lookup[ext]; !taken {
				m.lookup[ext] = c.Name
			}
		}
		m.categories = append(m.categories, normalized)
	}

	return m
}

// NormalizeExtension lowercases ext and ensures a single leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// Extension returns the lowercased extension of the base name of path, including the dot.
// A name whose only dot is the leading one (".bashrc") has no extension.
func Extension(path string) string {
	name := filepath.Base(path)
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}

// Classify returns the category for path, or the fallback category.
func (m *ExtensionMap) Classify(path string) string {
	ext := Extension(path)
	if ext == "" {
		return m.fallback
	}
	if category, ok := m.lookup[ext]; ok {
		return category
	}
	return m.fallback
}

// Fallback returns the category used for unknown extensions.
func (m *ExtensionMap) Fallback() string {
	return m.fallback
}

// Names returns every category name in order, followed by the fallback
// if it is not already one of them.
func (m *ExtensionMap) Names() []string {
	names := make([]string, 0, len(m.categories)+1)
	hasFallback := false
	for _, c := range m.categories {
		names = append(names, c.Name)
		if c.Name == m.fallback {
			hasFallback = true
		}
	}
	if !hasFallback {
		names = append(names, m.fallback)
	}
	return names
}

// Categories returns a copy of the normalized categories in priority order.
func (m *ExtensionMap) Categories() []Category {
	result := make([]Category, len(m.categories))
	for i, c := range m.categories {
		exts := make([]string, len(c.Extensions))
		copy(exts, c.Extensions)
		result[i] = Category{Name: c.Name, Extensions: exts}
	}
	return result
}

// Shadowed reports extensions listed by a later category that are already claimed
// by an earlier one, keyed by extension with the losing category names as values.
func (m *ExtensionMap) Shadowed() map[string][]string {
	shadowed := make(map[string][]string)
	for _, c := range m.categories {
		for _, ext := range c.Extensions {
			if owner := m.lookup[ext]; owner != c.Name {
				shadowed[ext] = append(shadowed[ext], c.Name)
			}
		}
	}
	return shadowed
}
