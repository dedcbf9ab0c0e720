package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sierra-outfitters/sierra-agent/internal/products"
)

// ProductRecommendTool exposes catalog search to the LLM.
type ProductRecommendTool struct {
	catalog *products.Service
}

var _ ToolExecutor = (*ProductRecommendTool)(nil)

func NewProductRecommendTool(catalog *products.Service) *ProductRecommendTool {
	return &ProductRecommendTool{catalog: catalog}
}

func (t *ProductRecommendTool) Definition() Tool {
	return NewFunctionTool(
		"recommend_products",
		fmt.Sprintf("Search for and recommend various products based on any and all customer needs and interests. Returns up to %d product recommendations.", products.MaxRecommendations),
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"query": {
					Type:        "string",
					Description: "Search query describing what the customer is looking for (e.g., 'hiking backpack', 'cold weather gear', 'waterproof jacket'). Include multiple keywords or terms if searching broadly.",
				},
			},
			Required: []string{"query"},
		},
	)
}

// Execute searches the catalog and returns an abbreviated product list. The
// service guarantees a non-empty result for a non-empty catalog, so the
// model always has something to recommend.
func (t *ProductRecommendTool) Execute(arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for recommend_products: %w", err)
	}
	log.Printf("recommend_products called with query=%q", args.Query)

	found := t.catalog.Recommend(context.Background(), args.Query)

	type recommendation struct {
		Name        string `json:"name"`
		SKU         string `json:"sku"`
		Description string `json:"description"`
		InStock     bool   `json:"in_stock"`
	}
	out := make([]recommendation, 0, len(found))
	for i := range found {
		out = append(out, recommendation{
			Name:        found[i].ProductName,
			SKU:         found[i].SKU,
			Description: found[i].Description,
			InStock:     found[i].HasInventory(),
		})
	}
	return marshalPayload(out)
}
