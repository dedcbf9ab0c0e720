// Package products holds the product catalog and the search strategies over
// it: semantic ranking when the embedding backend is reachable, keyword
// matching otherwise.
package products

import "strings"

// Product is one catalog entry as loaded from the dataset.
type Product struct {
	ProductName string   `json:"ProductName"`
	SKU         string   `json:"SKU"`
	Inventory   int      `json:"Inventory"`
	Description string   `json:"Description"`
	Tags        []string `json:"Tags"`
}

// HasInventory reports whether the product is in stock.
func (p *Product) HasInventory() bool {
	return p.Inventory > 0
}

// SearchText combines name, description and tags for keyword matching.
func (p *Product) SearchText() string {
	return p.ProductName + " " + p.Description + " " + strings.Join(p.Tags, " ")
}

// EmbeddingText is the text embedded for semantic search.
func (p *Product) EmbeddingText() string {
	return p.ProductName + ". " + p.Description + ". " + strings.Join(p.Tags, " ")
}

// MatchesTerms reports whether any term appears in the product's search text,
// case-insensitively.
func (p *Product) MatchesTerms(terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	text := strings.ToLower(p.SearchText())
	for _, term := range terms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
