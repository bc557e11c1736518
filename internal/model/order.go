package model

import "time"

// Address is a shipping or billing address on a dropship order.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country,omitempty"`
}

// CustomerInfo identifies the customer a dropship order ships to.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// OrderItem is one line of a dropship order.
type OrderItem struct {
	VCPN     string `json:"vcpn"`
	Quantity int    `json:"quantity"`
}

// DropshipOrderRequest is the payload sent to the Keystone proxy to place
// a dropship order.
type DropshipOrderRequest struct {
	OrderReference      string       `json:"order_reference"`
	Customer            CustomerInfo `json:"customer_info"`
	ShippingAddress     Address      `json:"shipping_address"`
	BillingAddress      Address      `json:"billing_address"`
	Items               []OrderItem  `json:"items"`
	ShippingMethod      string       `json:"shipping_method"`
	SpecialInstructions string       `json:"special_instructions,omitempty"`
	PONumber            string       `json:"po_number,omitempty"`
}

// DropshipOrderResult is the distributor's confirmation.
type DropshipOrderResult struct {
	KeystoneOrderID       string    `json:"keystone_order_id"`
	TotalValue            float64   `json:"total_value"`
	EstimatedShipping     float64   `json:"estimated_shipping"`
	EstimatedDeliveryDate time.Time `json:"estimated_delivery_date"`
	TrackingInfo          string    `json:"tracking_info,omitempty"`
}
