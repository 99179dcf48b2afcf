package rules

import (
	"strings"

	"github.com/gabrielmr/notaflow/internal/model"
	"github.com/gabrielmr/notaflow/internal/normalize"
)

// Matcher evaluates document text against a Set. Keywords are normalized and
// compacted once at construction so each Classify call only normalizes the
// document.
type Matcher struct {
	rules []compiledRule
}

type compiledRule struct {
	category string
	keyword  string // compact; simple rules only
	trigger  string // compact; hierarchical rules only
	subs     []compiledSub
	kind     Kind
}

type compiledSub struct {
	name    string
	keyword string // compact
}

// NewMatcher compiles the rule set for matching.
func NewMatcher(set Set) *Matcher {
	m := &Matcher{rules: make([]compiledRule, 0, len(set))}
	for _, r := range set {
		cr := compiledRule{
			category: r.Category,
			kind:     r.Kind,
			keyword:  normalize.Normalize(r.Keyword).Compact,
			trigger:  normalize.Normalize(r.Trigger).Compact,
		}
		for _, sub := range r.Subcategories {
			cr.subs = append(cr.subs, compiledSub{
				name:    sub.Name,
				keyword: normalize.Normalize(sub.Keyword).Compact,
			})
		}
		m.rules = append(m.rules, cr)
	}
	return m
}

// Classify matches document text against the rules in declaration order and
// returns the first hit. Matching is substring containment on the compact
// normalized form, so accents, case, and injected whitespace in the source
// document are all irrelevant. The zero result means no rule matched.
func (m *Matcher) Classify(docText string) model.ClassificationResult {
	doc := normalize.Normalize(docText).Compact
	if doc == "" {
		return model.ClassificationResult{}
	}

	for _, rule := range m.rules {
		switch rule.kind {
		case KindHierarchical:
			// Subcategories are strictly more specific than the
			// trigger and must pre-empt it.
			for _, sub := range rule.subs {
				if contains(doc, sub.keyword) {
					return model.ClassificationResult{
						Category:    rule.category,
						Subcategory: sub.name,
						Segments:    []string{rule.category, sub.name},
					}
				}
			}
			if contains(doc, rule.trigger) {
				return model.ClassificationResult{
					Category: rule.category,
					Segments: []string{rule.category},
				}
			}

		case KindSimple:
			if contains(doc, rule.keyword) {
				return model.ClassificationResult{
					Category: rule.category,
					Segments: []string{rule.category},
				}
			}
		}
	}

	return model.ClassificationResult{}
}

// contains is substring containment with an empty-keyword guard: an empty
// keyword would match every document, so it never matches.
func contains(doc, keyword string) bool {
	return keyword != "" && strings.Contains(doc, keyword)
}
