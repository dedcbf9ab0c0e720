package orders

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type key struct {
	email       string
	orderNumber string
}

// Service indexes the order dataset by normalized (email, order number). The
// index is built once at construction and never mutated, so lookups are safe
// from any goroutine.
type Service struct {
	index map[key]*Order
}

// NewService builds a service over an in-memory order list.
func NewService(list []Order) *Service {
	s := &Service{index: make(map[key]*Order, len(list))}
	for i := range list {
		o := &list[i]
		s.index[normalizedKey(o.Email, o.OrderNumber)] = o
	}
	return s
}

// LoadService reads the orders JSON file and builds the index.
func LoadService(path string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}
	var list []Order
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse orders file %s: %w", path, err)
	}
	return NewService(list), nil
}

// Lookup finds an order by customer email and order number. Both inputs are
// normalized before the lookup: email is case-insensitive, order numbers are
// uppercased and get a "#" prefix, so "w001" and "#W001" match the same
// record. Returns nil when no order matches.
func (s *Service) Lookup(email, orderNumber string) *Order {
	return s.index[normalizedKey(email, orderNumber)]
}

// Count returns the number of indexed orders.
func (s *Service) Count() int {
	return len(s.index)
}

func normalizedKey(email, orderNumber string) key {
	num := strings.ToUpper(strings.TrimSpace(orderNumber))
	if num != "" && !strings.HasPrefix(num, "#") {
		num = "#" + num
	}
	return key{
		email:       strings.ToLower(strings.TrimSpace(email)),
		orderNumber: num,
	}
}
