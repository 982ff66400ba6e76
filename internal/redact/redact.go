// Package redact strips secret material from captured command output before
// it is persisted into the learning documents. Verification commands run
// against real working trees, so their combined output can leak tokens,
// keys, and connection strings.
package redact

import (
	"fmt"
	"regexp"
)

// RedactionString replaces every detected secret.
const RedactionString = "[REDACTED]"

// Rule is a single secret-detection pattern.
type Rule struct {
	ID      string
	Pattern string
}

// DefaultRules returns the default set of secret detection rules, the
// common prefixed-token and assignment patterns.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:      "aws-access-key-id",
			Pattern: `(?i)(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`,
		},
		{
			ID:      "github-token",
			Pattern: `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}`,
		},
		{
			ID:      "slack-token",
			Pattern: `xox[baprs]-[A-Za-z0-9\-]{10,}`,
		},
		{
			ID:      "private-key",
			Pattern: `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
		},
		{
			ID:      "bearer-token",
			Pattern: `(?i)bearer\s+[A-Za-z0-9\-._~+/]{16,}=*`,
		},
		{
			ID:      "generic-api-key",
			Pattern: `(?i)(?:api[_-]?key|apikey)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,64}['"]?`,
		},
		{
			ID:      "generic-secret",
			Pattern: `(?i)(?:secret|password|passwd|pwd)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`,
		},
		{
			ID:      "database-url",
			Pattern: `(?i)(?:postgres|postgresql|mysql|mongodb|redis|amqp)://[^\s:@]+:[^\s@]+@[^\s]+`,
		},
	}
}

type compiledRule struct {
	id string
	re *regexp.Regexp
}

// Scrubber detects and redacts secrets from content.
type Scrubber struct {
	rules []compiledRule
}

// New creates a Scrubber with the default rules.
func New() *Scrubber {
	s, err := NewWithRules(DefaultRules())
	if err != nil {
		// default rules are constants and always compile
		panic(err)
	}
	return s
}

// NewWithRules creates a Scrubber with a custom rule set.
func NewWithRules(rules []Rule) (*Scrubber, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid rule %s: %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{id: r.ID, re: re})
	}
	return &Scrubber{rules: compiled}, nil
}

// Scrub replaces every secret match with RedactionString and returns the
// redacted content with the number of findings.
func (s *Scrubber) Scrub(content string) (string, int) {
	findings := 0
	for _, rule := range s.rules {
		matches := rule.re.FindAllStringIndex(content, -1)
		if len(matches) == 0 {
			continue
		}
		findings += len(matches)
		content = rule.re.ReplaceAllString(content, RedactionString)
	}
	return content, findings
}
