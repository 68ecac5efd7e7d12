package categorization

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchDocument is one category with every keyword that points at it.
type SearchDocument struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Keywords   string `json:"keywords"`
	CategoryID string `json:"category_id"`
	Type       string `json:"type"`
}

// Suggestion is a category related to a free-text description.
type Suggestion struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

// SearchIndex provides full-text search over categories and their keywords
// using Bleve. It backs "which category is this?" suggestions for
// descriptions no rule matched.
type SearchIndex struct {
	index   bleve.Index
	indexMu sync.RWMutex
	path    string // empty for in-memory
}

// NewSearchIndex creates a new search index.
// If path is empty, creates an in-memory index.
// If path is provided, creates/opens a persistent index.
func NewSearchIndex(path string) (*SearchIndex, error) {
	si := &SearchIndex{path: path}

	var index bleve.Index
	var err error

	if path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, buildIndexMapping())
	} else {
		index, err = bleve.Open(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	si.index = index
	return si, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("keywords", textFieldMapping)
	docMapping.AddFieldMappingsAt("category_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("type", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	return indexMapping
}

// IndexCatalog indexes one document per category, overwriting any earlier
// version. Rules whose category is not in categories are ignored.
func (si *SearchIndex) IndexCatalog(categories []Category, rules []KeywordRule) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	keywords := make(map[string][]string, len(categories))
	for _, r := range rules {
		if k := normalizeKeyword(r.Keyword); k != "" {
			keywords[r.CategoryID] = append(keywords[r.CategoryID], k)
		}
	}

	batch := si.index.NewBatch()
	for _, c := range categories {
		doc := SearchDocument{
			ID:         "category_" + c.ID,
			Name:       c.Name,
			Keywords:   strings.Join(keywords[c.ID], " "),
			CategoryID: c.ID,
			Type:       string(c.Type),
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index category %s: %w", c.ID, err)
		}
	}

	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Suggest returns categories whose name or keywords resemble text, best first.
func (si *SearchIndex) Suggest(text string, limit int) ([]Suggestion, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 5
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	keywordsQuery := bleve.NewMatchQuery(text)
	keywordsQuery.SetField("keywords")
	keywordsQuery.SetFuzziness(1)
	keywordsQuery.SetBoost(2)

	nameQuery := bleve.NewMatchQuery(text)
	nameQuery.SetField("name")
	nameQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(bleve.NewDisjunctionQuery([]query.Query{keywordsQuery, nameQuery}...))
	searchRequest.Size = limit
	searchRequest.Fields = []string{"name", "category_id"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := make([]Suggestion, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		s := Suggestion{Score: hit.Score}
		if id, ok := hit.Fields["category_id"].(string); ok {
			s.CategoryID = id
		}
		if name, ok := hit.Fields["name"].(string); ok {
			s.Name = name
		}
		out = append(out, s)
	}
	return out, nil
}

// DocumentCount returns the number of documents in the index
func (si *SearchIndex) DocumentCount() (uint64, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	return si.index.DocCount()
}

// Close closes the index
func (si *SearchIndex) Close() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	if si.index != nil {
		return si.index.Close()
	}
	return nil
}
