package tools

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/sierra-outfitters/sierra-agent/internal/orders"
	"github.com/sierra-outfitters/sierra-agent/internal/products"
)

// OrderLookupTool exposes order tracking to the LLM. SKUs on the order are
// resolved against the catalog so the model can name what the customer
// bought.
type OrderLookupTool struct {
	orders  *orders.Service
	catalog *products.Service
}

var _ ToolExecutor = (*OrderLookupTool)(nil)

func NewOrderLookupTool(orderSvc *orders.Service, catalog *products.Service) *OrderLookupTool {
	return &OrderLookupTool{orders: orderSvc, catalog: catalog}
}

func (t *OrderLookupTool) Definition() Tool {
	return NewFunctionTool(
		"lookup_order",
		"Look up customer order status and tracking information using email and order number.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"email": {
					Type:        "string",
					Description: "Customer's email address",
				},
				"order_number": {
					Type:        "string",
					Description: "Order number (with # prefix, like #W001)",
				},
			},
			Required: []string{"email", "order_number"},
		},
	)
}

// Execute looks the order up and returns a JSON payload for the model. A
// missing order is reported inside the payload, not as an error, so the
// model can tell the customer the order was not found.
func (t *OrderLookupTool) Execute(arguments string) (string, error) {
	var args struct {
		Email       string `json:"email"`
		OrderNumber string `json:"order_number"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for lookup_order: %w", err)
	}
	log.Printf("lookup_order called with email=%q order_number=%q", args.Email, args.OrderNumber)

	order := t.orders.Lookup(args.Email, args.OrderNumber)
	if order == nil {
		return marshalPayload(map[string]any{"error": "Order not found"})
	}

	type orderedProduct struct {
		SKU  string `json:"sku"`
		Name string `json:"name"`
	}
	resolved := make([]orderedProduct, 0, len(order.ProductsOrdered))
	for _, sku := range order.ProductsOrdered {
		if p := t.catalog.GetBySKU(sku); p != nil {
			resolved = append(resolved, orderedProduct{SKU: sku, Name: p.ProductName})
		} else {
			resolved = append(resolved, orderedProduct{SKU: sku, Name: fmt.Sprintf("Product %s (not found in catalog)", sku)})
		}
	}

	payload := map[string]any{
		"found":         true,
		"customer_name": order.CustomerName,
		"order_status":  order.Status,
		"products":      resolved,
	}
	if order.HasTracking() {
		payload["tracking_number"] = order.TrackingNumber
		payload["tracking_url"] = order.TrackingURL()
	}
	return marshalPayload(payload)
}

func marshalPayload(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool payload: %w", err)
	}
	return string(raw), nil
}
