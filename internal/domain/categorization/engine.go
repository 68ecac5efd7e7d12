package categorization

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Engine finds the first rule, in rule order, whose keyword occurs in a
// description. All keywords are matched in a single pass with an Aho-Corasick
// automaton; among the hits the lowest rule position wins, which is the same
// answer a linear first-match scan gives.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	first    []int // lowest rule position per pattern
	rules    []KeywordRule
}

// NewEngine builds the automaton over rules. Rules with a blank keyword are
// kept for position bookkeeping but never match.
func NewEngine(rules []KeywordRule) *Engine {
	e := &Engine{rules: rules}

	patternToIndex := make(map[string]int, len(rules))
	for pos, rule := range rules {
		p := normalizeKeyword(rule.Keyword)
		if p == "" {
			continue
		}
		if _, exists := patternToIndex[p]; exists {
			continue // earlier rule with the same keyword always wins
		}
		patternToIndex[p] = len(e.patterns)
		e.patterns = append(e.patterns, p)
		e.first = append(e.first, pos)
	}

	if len(e.patterns) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(e.patterns)
	}
	return e
}

// Match returns the first matching rule.
func (e *Engine) Match(description string) (KeywordRule, bool) {
	if e.matcher == nil {
		return KeywordRule{}, false
	}

	hits := e.matcher.MatchThreadSafe([]byte(normalizeKeyword(description)))
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.first) {
			continue
		}
		if pos := e.first[idx]; best < 0 || pos < best {
			best = pos
		}
	}
	if best < 0 {
		return KeywordRule{}, false
	}
	return e.rules[best], true
}

// Len returns the number of distinct keywords in the automaton.
func (e *Engine) Len() int {
	return len(e.patterns)
}

// linearMatch is the reference first-match scan the automaton must agree with.
func linearMatch(rules []KeywordRule, description string) (KeywordRule, bool) {
	d := normalizeKeyword(description)
	for _, rule := range rules {
		k := normalizeKeyword(rule.Keyword)
		if k != "" && strings.Contains(d, k) {
			return rule, true
		}
	}
	return KeywordRule{}, false
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
