package model

import "time"

// Item status values.
const (
	ItemStatusActive       = "active"
	ItemStatusInactive     = "inactive"
	ItemStatusDiscontinued = "discontinued"
)

// InventoryItem represents one row of the local inventory cache table.
// KeystoneVCPN is the natural key; CSV-sourced rows without a VCPN fall
// back to SKU for matching.
type InventoryItem struct {
	ID           int64     `json:"id"`
	KeystoneVCPN string    `json:"keystone_vcpn"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Supplier     string    `json:"supplier,omitempty"`
	Category     string    `json:"category,omitempty"`
	Subcategory  string    `json:"subcategory,omitempty"`
	Cost         float64   `json:"cost"`
	ListPrice    float64   `json:"list_price"`
	Quantity     int       `json:"quantity"`
	Weight       float64   `json:"weight,omitempty"`
	Length       float64   `json:"length,omitempty"`
	Width        float64   `json:"width,omitempty"`
	Height       float64   `json:"height,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NaturalKey returns the key used for upsert matching: the Keystone VCPN
// when present, otherwise the SKU.
func (i *InventoryItem) NaturalKey() string {
	if i.KeystoneVCPN != "" {
		return i.KeystoneVCPN
	}
	return i.SKU
}

// PriceResult is one entry of a bulk pricing response.
type PriceResult struct {
	VCPN         string  `json:"vcpn"`
	Cost         float64 `json:"cost"`
	ListPrice    float64 `json:"list_price"`
	Availability int     `json:"availability"`
}
