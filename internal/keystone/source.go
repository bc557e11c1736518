// Package keystone talks to the Keystone parts distributor through the
// backend proxy. Two CatalogSource implementations exist: the live HTTP
// client and a simulator that synthesizes plausible data when no
// credentials are configured (development mode).
package keystone

import (
	"context"
	"errors"
	"fmt"

	"partshub-api/internal/model"
)

// MaxBulkPricingVCPNs is the hard cap on VCPNs per bulk pricing call,
// enforced before any network request.
const MaxBulkPricingVCPNs = 12

// ErrMissingCredentials is returned when the proxy URL or bearer token is
// not configured in an environment that requires live data.
var ErrMissingCredentials = errors.New("keystone proxy URL or token not configured")

// ErrTooManyVCPNs is returned when a bulk pricing request exceeds
// MaxBulkPricingVCPNs.
var ErrTooManyVCPNs = fmt.Errorf("bulk pricing accepts at most %d VCPNs per call", MaxBulkPricingVCPNs)

// CatalogSource is the interface both the live client and the simulator
// implement.
type CatalogSource interface {
	// FetchBulkInventory retrieves up to limit catalog items. A cancelled
	// context yields an empty slice and nil error, not a failure.
	FetchBulkInventory(ctx context.Context, limit int) ([]model.InventoryItem, error)

	// FetchBulkPricing retrieves pricing for 1..MaxBulkPricingVCPNs part
	// numbers.
	FetchBulkPricing(ctx context.Context, vcpns []string, includeAvailability bool) ([]model.PriceResult, error)

	// FetchSinglePart retrieves one item by VCPN, nil if not found.
	FetchSinglePart(ctx context.Context, vcpn string) (*model.InventoryItem, error)

	// PlaceDropshipOrder submits a dropship order to the distributor.
	PlaceDropshipOrder(ctx context.Context, req *model.DropshipOrderRequest) (*model.DropshipOrderResult, error)
}

// Config holds the settings needed to construct a catalog source.
type Config struct {
	ProxyURL   string
	Token      string
	Production bool
}

// NewSource selects the catalog source for the given configuration.
// Missing credentials yield the simulator in non-production environments
// and an error in production. In non-production the live client also
// degrades to simulated data on network failure.
func NewSource(cfg Config) (CatalogSource, error) {
	if cfg.ProxyURL == "" || cfg.Token == "" {
		if cfg.Production {
			return nil, ErrMissingCredentials
		}
		return NewSimulator(0), nil
	}

	client := NewClient(cfg.ProxyURL, cfg.Token)
	if !cfg.Production {
		client.fallback = NewSimulator(0)
	}
	return client, nil
}
