// Package app is the composition root shared by the CLI and the HTTP
// server: it loads the datasets, selects the search strategy, registers the
// tools, and wires the model client.
package app

import (
	"fmt"
	"log"

	"github.com/sierra-outfitters/sierra-agent/internal/agent"
	"github.com/sierra-outfitters/sierra-agent/internal/config"
	"github.com/sierra-outfitters/sierra-agent/internal/discounts"
	"github.com/sierra-outfitters/sierra-agent/internal/llm"
	"github.com/sierra-outfitters/sierra-agent/internal/orders"
	"github.com/sierra-outfitters/sierra-agent/internal/products"
	"github.com/sierra-outfitters/sierra-agent/internal/tools"
)

// Components holds everything shared between conversations. Datasets and
// the tool registry are read-only after Build, so any number of sessions may
// use them concurrently.
type Components struct {
	Client       llm.Client
	Manager      *tools.Manager
	Model        string
	SystemPrompt string
}

// Build wires all services from the loaded settings.
func Build(cfg *config.Settings) (*Components, error) {
	orderSvc, err := orders.LoadService(cfg.OrdersFile)
	if err != nil {
		return nil, err
	}
	catalog, err := products.LoadService(cfg.ProductsFile)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Loaded %d orders and %d products", orderSvc.Count(), catalog.Count())

	// Semantic search is optional: construction falls back to keyword
	// matching when the embedding backend cannot be set up.
	catalog.SetSearch(products.NewSearch(products.SearchConfig{
		APIKey:         cfg.OpenAIKey,
		EmbeddingModel: cfg.Search.EmbeddingModel,
		Threshold:      cfg.Search.Threshold,
		RedisAddr:      cfg.RedisAddr,
	}, catalog.All()))

	discountSvc, err := discounts.NewService(discounts.Config{
		Timezone:  cfg.Promo.Timezone,
		StartHour: cfg.Promo.StartHour,
		EndHour:   cfg.Promo.EndHour,
		Percent:   cfg.Promo.Percent,
	})
	if err != nil {
		return nil, err
	}

	manager, err := registerTools(orderSvc, catalog, discountSvc)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Registered %d tools", manager.Count())

	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Components{
		Client:       client,
		Manager:      manager,
		Model:        cfg.Model,
		SystemPrompt: agent.SystemPrompt(catalog.AllFormatted()),
	}, nil
}

// NewOrchestrator creates a fresh conversation over the shared components.
func (c *Components) NewOrchestrator() *agent.Orchestrator {
	return agent.New(c.Client, c.Manager, c.Model, c.SystemPrompt)
}

func registerTools(orderSvc *orders.Service, catalog *products.Service, discountSvc *discounts.Service) (*tools.Manager, error) {
	manager := tools.NewManager()
	for _, tool := range []tools.ToolExecutor{
		tools.NewOrderLookupTool(orderSvc, catalog),
		tools.NewProductRecommendTool(catalog),
		tools.NewDiscountTool(discountSvc),
	} {
		if err := manager.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool: %w", err)
		}
	}
	return manager, nil
}

func newClient(cfg *config.Settings) (llm.Client, error) {
	switch cfg.Provider {
	case "gemini":
		return llm.NewGeminiClient(cfg.GeminiKey, cfg.Model, llm.WithGeminiTimeout(cfg.Timeout))
	default:
		return llm.NewOpenAIClient(cfg.OpenAIKey, llm.WithTimeout(cfg.Timeout))
	}
}
