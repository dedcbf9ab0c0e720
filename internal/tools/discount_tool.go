package tools

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sierra-outfitters/sierra-agent/internal/discounts"
)

// DiscountTool exposes the Early Risers promotion check to the LLM. The
// clock is injected so eligibility stays a pure function of the timestamp.
type DiscountTool struct {
	discounts *discounts.Service
	now       func() time.Time
}

var _ ToolExecutor = (*DiscountTool)(nil)

func NewDiscountTool(svc *discounts.Service) *DiscountTool {
	return &DiscountTool{discounts: svc, now: time.Now}
}

// WithClock overrides the tool's clock. Used in tests.
func (t *DiscountTool) WithClock(now func() time.Time) *DiscountTool {
	t.now = now
	return t
}

func (t *DiscountTool) Definition() Tool {
	return NewFunctionTool(
		"check_promotional_discount",
		"Check for promotional discount eligibility based on customer request and timing constraints.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"request_text": {
					Type:        "string",
					Description: "The customer's exact words requesting a promotional discount.",
				},
			},
			Required: []string{"request_text"},
		},
	)
}

// Execute checks the request text and the promotion window, and issues a
// code on the eligible path. Ineligibility is reported inside the payload
// with the message the model should relay verbatim.
func (t *DiscountTool) Execute(arguments string) (string, error) {
	var args struct {
		RequestText string `json:"request_text"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for check_promotional_discount: %w", err)
	}
	log.Printf("check_promotional_discount called with request_text=%q", args.RequestText)

	if !t.discounts.IsExplicitRequest(args.RequestText) {
		return marshalPayload(map[string]any{
			"eligible": false,
			"message":  "I don't see a specific promotional request in your message. If you're looking for a discount code, please be more specific about which promotion you'd like.",
		})
	}

	if !t.discounts.IsPromoWindow(t.now()) {
		return marshalPayload(map[string]any{
			"eligible": false,
			"message":  "The Early Risers promotion is not currently available. If you have any other questions or need help with something else, just let me know!",
		})
	}

	code := t.discounts.GenerateCode()
	return marshalPayload(map[string]any{
		"eligible":         true,
		"code":             code.Code,
		"discount_percent": code.DiscountPercent,
		"message":          fmt.Sprintf("Congratulations! Your Early Risers discount code is %s for %d%% off!", code.Code, code.DiscountPercent),
	})
}
