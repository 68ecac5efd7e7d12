// Package categorization assigns categories to transaction descriptions with
// ordered keyword rules.
package categorization

import (
	"github.com/shopspring/decimal"
)

// CategoryType groups categories for summaries.
type CategoryType string

const (
	TypeIncome  CategoryType = "income"
	TypeExpense CategoryType = "expense"
	TypeSavings CategoryType = "savings"
)

// FallbackCategoryID is assigned when no rule matches.
const FallbackCategoryID = "other"

// Category is a spending or income bucket with a monthly budget.
type Category struct {
	ID     string          `json:"id" yaml:"id"`
	Name   string          `json:"name" yaml:"name"`
	Color  string          `json:"color" yaml:"color"`
	Budget decimal.Decimal `json:"budget" yaml:"budget"`
	Type   CategoryType    `json:"type" yaml:"type"`
}

// KeywordRule maps a substring of a description to a category.
type KeywordRule struct {
	ID         string `json:"id" yaml:"id"`
	Keyword    string `json:"keyword" yaml:"keyword"`
	CategoryID string `json:"categoryId" yaml:"category"`
}
