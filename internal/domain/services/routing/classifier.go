// Package routing holds the rule-based complexity classification used to
// pick a model tier for a prompt.
package routing

import (
	"regexp"
	"strings"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
)

// ComplexityClassifier scores a prompt against three weighted pattern
// sets, one per tier, and resolves ties deterministically.
//
// Design principles:
//   - Rule-based classification for speed and determinism
//   - Each matcher contributes at most 1 to its tier's score
//   - Ties resolve toward the less capable tier to avoid
//     over-provisioning expensive models
//   - Pattern sets are data-driven and can be loaded from configuration
type ComplexityClassifier struct {
	patterns map[models.Tier][]*regexp.Regexp
}

// defaultPatterns returns the built-in pattern sets per tier.
func defaultPatterns() map[models.Tier][]string {
	return map[models.Tier][]string{
		models.TierSimple: {
			`\b(fix|format|indent|rename|import)\b`,
			`\b(add|remove|delete)\s+\w+\s*(comment|log|print)\b`,
			`\bgenerate\s+(getter|setter|constructor)\b`,
			`\b(what|where|when|how)\s+is\b`,
		},
		models.TierModerate: {
			`\b(refactor|optimize|implement|create)\b`,
			`\b(add|write|build)\s+(function|method|class)\b`,
			`\b(test|debug|fix)\s+(bug|issue|error)\b`,
			`\b(explain|describe|analyze)\b.*\b(code|algorithm|pattern)\b`,
		},
		models.TierComplex: {
			`\b(architect|design|migrate|transform)\b`,
			`\b(integrate|connect|sync)\s+.*\b(api|database|service)\b`,
			`\b(performance|security|scalability)\s+(issue|concern|optimization)\b`,
			`\b(multi|cross)[-\s](platform|service|thread|process)\b`,
			`\b(distributed|microservices?|event[-\s]driven)\b`,
			`\b(deploy|ci/cd|infrastructure|docker|kubernetes)\b`,
		},
	}
}

// NewComplexityClassifier creates a classifier with the built-in
// pattern sets.
func NewComplexityClassifier() *ComplexityClassifier {
	c, err := NewComplexityClassifierWithPatterns(defaultPatterns())
	if err != nil {
		// Built-in patterns are compile-tested; this cannot happen.
		panic(err)
	}
	return c
}

// NewComplexityClassifierWithPatterns creates a classifier from
// externally supplied pattern sets, typically loaded from configuration.
// Patterns are matched case-insensitively.
func NewComplexityClassifierWithPatterns(patterns map[models.Tier][]string) (*ComplexityClassifier, error) {
	compiled := make(map[models.Tier][]*regexp.Regexp, len(patterns))
	for tier, exprs := range patterns {
		for _, expr := range exprs {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, err
			}
			compiled[tier] = append(compiled[tier], re)
		}
	}
	return &ComplexityClassifier{patterns: compiled}, nil
}

// Classify scores the concatenation of prompt and context against every
// tier's pattern set. A matcher contributes at most 1 to its tier
// regardless of how many times it matches.
//
// Selection rule, in order: the tier with the strictly highest score
// wins; tied tiers resolve to the least capable of the tied set; all
// zeros default to simple. Pure and deterministic.
func (c *ComplexityClassifier) Classify(prompt, context string) models.ComplexityScore {
	text := strings.ToLower(prompt)
	if context != "" {
		text += " " + strings.ToLower(context)
	}

	scores := make(map[models.Tier]int, len(models.TierOrder))
	for _, tier := range models.TierOrder {
		count := 0
		for _, re := range c.patterns[tier] {
			if re.MatchString(text) {
				count++
			}
		}
		scores[tier] = count
	}

	// Walk tiers from least to most capable; a later tier must score
	// strictly higher to displace the current choice.
	chosen := models.TierSimple
	best := scores[models.TierSimple]
	for _, tier := range models.TierOrder[1:] {
		if scores[tier] > best {
			chosen = tier
			best = scores[tier]
		}
	}

	return models.ComplexityScore{Scores: scores, ChosenTier: chosen}
}
