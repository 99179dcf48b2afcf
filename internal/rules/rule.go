// Package rules holds the classification taxonomy and matches document text
// against it.
package rules

import (
	"fmt"
	"os"
)

// Kind discriminates the two rule shapes.
type Kind string

const (
	// KindSimple rules fire on a single keyword.
	KindSimple Kind = "simple"
	// KindHierarchical rules carry a top-level trigger plus ordered
	// subcategories that pre-empt it.
	KindHierarchical Kind = "hierarchical"
)

// Subcategory is one entry of a hierarchical rule: the folder segment it
// routes to and the keyword that selects it.
type Subcategory struct {
	Name    string
	Keyword string
}

// Rule is one taxonomy entry. Category doubles as the top-level folder name.
// For KindSimple only Keyword is set; for KindHierarchical, Trigger and
// Subcategories.
type Rule struct {
	Category      string
	Kind          Kind
	Keyword       string
	Trigger       string
	Subcategories []Subcategory
}

// Set is the ordered rule sequence. Order is part of the taxonomy's
// semantics: earlier rules win, and within a hierarchical rule earlier
// subcategories win. A Set is built once at startup and never mutated.
type Set []Rule

// Load reads and decodes a rule file.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rules file %s: %w", path, err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return set, nil
}

// Validate checks structural invariants: unique categories, unique
// subcategory names within a rule, and no hierarchical rule that could never
// match anything.
func (s Set) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, r := range s {
		if r.Category == "" {
			return fmt.Errorf("rule with empty category")
		}
		if _, dup := seen[r.Category]; dup {
			return fmt.Errorf("duplicate category %q", r.Category)
		}
		seen[r.Category] = struct{}{}

		switch r.Kind {
		case KindSimple:
			// An empty keyword is allowed but can never match; it is
			// the matcher's guard, not a structural error.
		case KindHierarchical:
			if r.Trigger == "" && len(r.Subcategories) == 0 {
				return fmt.Errorf("category %q has neither trigger nor subcategories", r.Category)
			}
			subSeen := make(map[string]struct{}, len(r.Subcategories))
			for _, sub := range r.Subcategories {
				if sub.Name == "" {
					return fmt.Errorf("category %q has a subcategory with empty name", r.Category)
				}
				if _, dup := subSeen[sub.Name]; dup {
					return fmt.Errorf("category %q has duplicate subcategory %q", r.Category, sub.Name)
				}
				subSeen[sub.Name] = struct{}{}
			}
		default:
			return fmt.Errorf("category %q has unknown kind %q", r.Category, r.Kind)
		}
	}
	return nil
}

// Categories returns the category names in declaration order.
func (s Set) Categories() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Category
	}
	return out
}
