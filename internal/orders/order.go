// Package orders holds the order dataset and answers point lookups by
// normalized (email, order number) pairs.
package orders

import "fmt"

const trackingURLFormat = "https://tools.usps.com/go/TrackConfirmAction?tLabels=%s"

// Order is one customer order as loaded from the dataset.
type Order struct {
	CustomerName    string   `json:"CustomerName"`
	Email           string   `json:"Email"`
	OrderNumber     string   `json:"OrderNumber"`
	ProductsOrdered []string `json:"ProductsOrdered"`
	Status          string   `json:"Status"`
	TrackingNumber  string   `json:"TrackingNumber,omitempty"`
}

// HasTracking reports whether a tracking number was assigned.
func (o *Order) HasTracking() bool {
	return o.TrackingNumber != ""
}

// TrackingURL returns the carrier tracking link, or "" without tracking.
func (o *Order) TrackingURL() string {
	if o.TrackingNumber == "" {
		return ""
	}
	return fmt.Sprintf(trackingURLFormat, o.TrackingNumber)
}
