// Package filters implements the cheap first-pass complaint classifier.
//
// A queue row survives the classifier when its normalized text matches at least one
// pattern of a maintained list. Patterns are data: the defaults live in
// DefaultComplaintPatterns and deployments may replace them through configuration.
// Classification is pure and never fails for any input.
package filters

import (
	"fmt"
	"regexp"

	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
)

// Classifier labels text as a possible complaint.
type Classifier struct {
	patterns []*regexp.Regexp
	sources  []string
}

// NewClassifier compiles the given patterns case-insensitively. A nil or empty list
// selects the defaults.
func NewClassifier(patterns []string) (*Classifier, error) {
	if len(patterns) == 0 {
		patterns = DefaultComplaintPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + apostropheReplacer.Replace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: complaint pattern %q: %w", coreerrors.ErrInvalidInput, p, err)
		}

		compiled = append(compiled, re)
	}

	return &Classifier{patterns: compiled, sources: patterns}, nil
}

// MustNewClassifier is NewClassifier for pattern lists known to be valid.
func MustNewClassifier(patterns []string) *Classifier {
	c, err := NewClassifier(patterns)
	if err != nil {
		panic(err)
	}

	return c
}

// Classify reports whether text contains any complaint pattern.
func (c *Classifier) Classify(text string) bool {
	return c.Match(text) != ""
}

// Match returns the first pattern, as configured, matching text, or "" when none does.
// Empty and whitespace-only text never matches.
func (c *Classifier) Match(text string) string {
	normalized := Normalize(text)
	if normalized == "" {
		return ""
	}

	for i, re := range c.patterns {
		if re.MatchString(normalized) {
			return c.sources[i]
		}
	}

	return ""
}

// PatternCount returns the number of compiled patterns.
func (c *Classifier) PatternCount() int {
	return len(c.patterns)
}
