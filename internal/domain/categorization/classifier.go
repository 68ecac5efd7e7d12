package categorization

// Classifier assigns a category id to a description: user rules first in
// their stored order, then the built-in catalog, then the fallback category
// when the category set has one. A Classifier is immutable; build a new one
// when rules or categories change.
type Classifier struct {
	engine      *Engine
	fallback    string
	hasFallback bool
}

// NewClassifier compiles user rules ahead of the built-in keyword list.
func NewClassifier(categories []Category, userRules []KeywordRule) *Classifier {
	rules := make([]KeywordRule, 0, len(userRules)+len(builtinRules))
	rules = append(rules, userRules...)
	rules = append(rules, builtinRules...)

	c := &Classifier{engine: NewEngine(rules)}
	for _, cat := range categories {
		if cat.ID == FallbackCategoryID {
			c.fallback = cat.ID
			c.hasFallback = true
			break
		}
	}
	return c
}

// Classify returns the category id for description. ok is false only when no
// rule matches and the category set has no fallback.
func (c *Classifier) Classify(description string) (string, bool) {
	if rule, ok := c.engine.Match(description); ok {
		return rule.CategoryID, true
	}
	if c.hasFallback {
		return c.fallback, true
	}
	return "", false
}

// Explain returns the rule that decided description, if any.
func (c *Classifier) Explain(description string) (KeywordRule, bool) {
	return c.engine.Match(description)
}
