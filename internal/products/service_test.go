package products

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testCatalog() []Product {
	return []Product{
		{ProductName: "Backcountry Blaze Backpack", SKU: "SOBP001", Inventory: 12, Description: "A rugged backpack for multi-day treks.", Tags: []string{"hiking", "backpack", "gear"}},
		{ProductName: "Stormshield Rain Jacket", SKU: "SOJK003", Inventory: 18, Description: "A waterproof shell for alpine storms.", Tags: []string{"jacket", "rain"}},
		{ProductName: "Trailblazer Hiking Boots", SKU: "SOHB004", Inventory: 22, Description: "Leather boots with aggressive tread.", Tags: []string{"hiking", "footwear"}},
		{ProductName: "Summit Trail Mix", SKU: "SOTM010", Inventory: 50, Description: "A salty-sweet blend for the trail.", Tags: []string{"food", "snack"}},
		{ProductName: "Basecamp Ukulele", SKU: "SOUK011", Inventory: 3, Description: "A travel-sized ukulele for campfire songs.", Tags: []string{"music", "camp"}},
		{ProductName: "Glacier Water Filter", SKU: "SOWF012", Inventory: 14, Description: "A pump filter for backcountry streams.", Tags: []string{"water", "gear"}},
	}
}

func skus(list []Product) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = list[i].SKU
	}
	return out
}

func TestGetBySKU(t *testing.T) {
	s := NewService(testCatalog())
	if p := s.GetBySKU("SOBP001"); p == nil || p.ProductName != "Backcountry Blaze Backpack" {
		t.Errorf("GetBySKU(SOBP001) = %+v", p)
	}
	if p := s.GetBySKU("NOPE"); p != nil {
		t.Errorf("GetBySKU(NOPE) = %+v, want nil", p)
	}
}

func TestAllFormatted(t *testing.T) {
	s := NewService(testCatalog())
	listing := s.AllFormatted()
	lines := strings.Split(listing, "\n")
	if len(lines) != s.Count() {
		t.Fatalf("got %d lines, want %d", len(lines), s.Count())
	}
	if lines[0] != "- Backcountry Blaze Backpack: A rugged backpack for multi-day treks." {
		t.Errorf("first line = %q", lines[0])
	}
	if strings.HasSuffix(listing, "\n") {
		t.Error("listing has a trailing newline")
	}
}

func TestRecommend_KeywordMatch(t *testing.T) {
	s := NewService(testCatalog())
	got := s.Recommend(context.Background(), "hiking gear")
	if len(got) == 0 || len(got) > MaxRecommendations {
		t.Fatalf("got %d results, want 1..%d", len(got), MaxRecommendations)
	}
	for _, p := range got {
		text := strings.ToLower(p.SearchText())
		if !strings.Contains(text, "hiking") && !strings.Contains(text, "gear") {
			t.Errorf("irrelevant result %s: %q", p.SKU, text)
		}
	}
}

func TestRecommend_ZeroMatchFallsBackToCatalog(t *testing.T) {
	s := NewService(testCatalog())
	got := s.Recommend(context.Background(), "quantum flux capacitor")
	if len(got) != MaxRecommendations {
		t.Fatalf("got %d results, want the capped catalog fallback of %d", len(got), MaxRecommendations)
	}
}

func TestRecommend_EmptyQueryStillRecommends(t *testing.T) {
	s := NewService(testCatalog())
	if got := s.Recommend(context.Background(), "  "); len(got) == 0 {
		t.Fatal("empty query returned nothing; a non-empty catalog must always yield suggestions")
	}
}

// failingSearch always errors, standing in for a broken semantic backend.
type failingSearch struct{}

func (failingSearch) Search(context.Context, string, int) ([]Product, error) {
	return nil, errors.New("embedding backend down")
}

func TestRecommend_StrategyFailureFallsBackToKeywords(t *testing.T) {
	s := NewService(testCatalog())
	s.SetSearch(failingSearch{})

	got := s.Recommend(context.Background(), "ukulele")
	if len(got) != 1 || got[0].SKU != "SOUK011" {
		t.Fatalf("keyword fallback did not run: %v", skus(got))
	}
}

func TestSearchByTerms(t *testing.T) {
	s := NewService(testCatalog())
	got := s.SearchByTerms([]string{"rain"})
	if len(got) != 1 || got[0].SKU != "SOJK003" {
		t.Errorf("SearchByTerms(rain) = %v", skus(got))
	}
	if got := s.SearchByTerms(nil); got != nil {
		t.Errorf("SearchByTerms(nil) = %v, want nil", skus(got))
	}
}

func TestKeywordSearch_CapsAtTopK(t *testing.T) {
	k := NewKeywordSearch(testCatalog())
	got, err := k.Search(context.Background(), "gear hiking water", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d results, want topK of 2", len(got))
	}
}
