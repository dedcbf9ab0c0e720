package products

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// MaxRecommendations caps how many products a single search returns.
const MaxRecommendations = 5

// Service holds the catalog and serves point lookups and searches. The
// catalog is loaded once and read-only afterwards.
type Service struct {
	products []Product
	skuIndex map[string]*Product
	search   Search
}

// NewService builds a service over an in-memory catalog. Searches use
// keyword matching until a different strategy is installed with SetSearch.
func NewService(list []Product) *Service {
	s := &Service{
		products: list,
		skuIndex: make(map[string]*Product, len(list)),
	}
	for i := range list {
		s.skuIndex[list[i].SKU] = &list[i]
	}
	s.search = NewKeywordSearch(list)
	return s
}

// LoadService reads the products JSON file and builds the catalog.
func LoadService(path string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}
	var list []Product
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse products file %s: %w", path, err)
	}
	return NewService(list), nil
}

// SetSearch installs the search strategy. Called once at startup, before the
// first conversation.
func (s *Service) SetSearch(search Search) {
	s.search = search
}

// GetBySKU returns the product with the given SKU, or nil.
func (s *Service) GetBySKU(sku string) *Product {
	return s.skuIndex[sku]
}

// All returns a copy of the full catalog.
func (s *Service) All() []Product {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Count returns the catalog size.
func (s *Service) Count() int {
	return len(s.products)
}

// AllFormatted lists every product as "- Name: Description" lines, used to
// embed the catalog into the system prompt.
func (s *Service) AllFormatted() string {
	var b strings.Builder
	for i := range s.products {
		fmt.Fprintf(&b, "- %s: %s\n", s.products[i].ProductName, s.products[i].Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SearchByTerms returns every product matching any of the terms.
func (s *Service) SearchByTerms(terms []string) []Product {
	var matches []Product
	for i := range s.products {
		if s.products[i].MatchesTerms(terms) {
			matches = append(matches, s.products[i])
		}
	}
	return matches
}

// Recommend searches the catalog for a free-text query and returns up to
// MaxRecommendations products. The installed strategy is tried first; if it
// errors or finds nothing, keyword matching takes over, and an empty keyword
// result degrades to a capped listing of the whole catalog. On a non-empty
// catalog the result is never empty: a customer always gets suggestions.
func (s *Service) Recommend(ctx context.Context, query string) []Product {
	if s.search != nil {
		results, err := s.search.Search(ctx, query, MaxRecommendations)
		if err != nil {
			log.Printf("product search strategy failed, falling back to keywords: %v", err)
		} else if len(results) > 0 {
			return results
		}
	}

	matches := s.SearchByTerms(strings.Fields(strings.TrimSpace(query)))
	if len(matches) == 0 {
		matches = s.All()
	}
	if len(matches) > MaxRecommendations {
		matches = matches[:MaxRecommendations]
	}
	return matches
}
