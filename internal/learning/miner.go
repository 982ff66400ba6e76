package learning

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/mentat/internal/state"
)

// categoryRule maps a failure category to its keyword family and the rule
// text proposed when enough corroborating failures accumulate. Rules are
// evaluated in order; the first matching category claims the failure, so
// each failure counts toward exactly one category.
type categoryRule struct {
	label    string
	keywords []string
	rule     string
}

// buildCategoryRules returns the ordered failure taxonomy. More specific
// families are listed before ones with broad keywords like "undefined".
func buildCategoryRules() []categoryRule {
	return []categoryRule{
		{
			label:    "async",
			keywords: []string{"async", "await", "promise"},
			rule:     "Always use 'await' when calling async functions.",
		},
		{
			label:    "null",
			keywords: []string{"null", "undefined", "cannot read property"},
			rule:     "Use optional chaining (?.) when accessing properties that may be null or undefined.",
		},
	}
}

// matches reports whether the reflection's context or error text contains
// any keyword of the family. Matching is case-insensitive substring.
func (c *categoryRule) matches(r *state.Reflection) bool {
	text := strings.ToLower(r.Context + " " + r.Error)
	for _, keyword := range c.keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// classify partitions failures across the category rules and returns the
// evidence count per category label.
func classify(rules []categoryRule, failures []state.Reflection) map[string]int {
	counts := make(map[string]int, len(rules))
	for i := range failures {
		for _, rule := range rules {
			if rule.matches(&failures[i]) {
				counts[rule.label]++
				break
			}
		}
	}
	return counts
}

// confidence converts an evidence count into a score in [0, 1]. The curve
// saturates so that the minimum evidence of 2 already lands at 0.8.
func confidence(evidence int) float64 {
	score := 0.4 + 0.2*float64(evidence)
	if score > 1.0 {
		return 1.0
	}
	return score
}

// mine proposes one generalization per category that reached minEvidence
// corroborating failures, in taxonomy order.
func mine(rules []categoryRule, failures []state.Reflection, minEvidence int) []Generalization {
	counts := classify(rules, failures)

	proposals := make([]Generalization, 0, len(rules))
	for _, rule := range rules {
		evidence := counts[rule.label]
		if evidence < minEvidence {
			continue
		}
		proposals = append(proposals, Generalization{
			Pattern:    rule.label,
			Confidence: confidence(evidence),
			Rule:       rule.rule,
			BasedOn:    fmt.Sprintf("%d %s-related failures", evidence, rule.label),
		})
	}
	return proposals
}
