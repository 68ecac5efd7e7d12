package categorization

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is returned for rule file entries without a keyword or category.
var ErrInvalidRule = errors.New("invalid keyword rule")

// RulesFile is the on-disk format for user keyword rules:
//
//	rules:
//	  - keyword: h-e-b
//	    category: grocery
type RulesFile struct {
	Rules []KeywordRule `yaml:"rules"`
}

// LoadRulesFile reads user rules from a YAML file, keeping file order. Entries
// without an id get one derived from their position. Category ids pass
// through MigrateCategoryID.
func LoadRulesFile(path string) ([]KeywordRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes the YAML rule format.
func ParseRules(data []byte) ([]KeywordRule, error) {
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := make([]KeywordRule, 0, len(f.Rules))
	for i, r := range f.Rules {
		r.Keyword = strings.TrimSpace(r.Keyword)
		r.CategoryID = MigrateCategoryID(strings.TrimSpace(r.CategoryID))
		if r.Keyword == "" || r.CategoryID == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidRule, i+1)
		}
		if r.ID == "" {
			r.ID = fmt.Sprintf("file_%d", i+1)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
