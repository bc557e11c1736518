package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"partshub-api/internal/cache"
	"partshub-api/internal/keystone"
	"partshub-api/internal/model"
	"partshub-api/internal/ratelimit"
	"partshub-api/pkg/uid"
)

// DropshipCooldown is the window between dropship order placements,
// mainly guarding against double-submits from the order form.
const DropshipCooldown = 2 * time.Minute

const (
	dropshipLimiterKey = "dropship:ratelimit"
	dropshipHistoryKey = "dropship:history"
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// DropshipResult is the outcome of one PlaceOrder call.
type DropshipResult struct {
	IsRateLimited    bool                       `json:"is_rate_limited"`
	RateLimitMessage string                     `json:"rate_limit_message,omitempty"`
	RemainingSeconds int                        `json:"remaining_seconds,omitempty"`
	Order            *model.DropshipOrderResult `json:"order,omitempty"`
}

// dropshipHistoryEntry is one persisted order record.
type dropshipHistoryEntry struct {
	OrderReference  string    `json:"order_reference"`
	KeystoneOrderID string    `json:"keystone_order_id"`
	TotalValue      float64   `json:"total_value"`
	PlacedAt        time.Time `json:"placed_at"`
}

// DropshipService places rate-limited dropship orders with the
// distributor.
type DropshipService struct {
	source  keystone.CatalogSource
	limiter *ratelimit.Limiter
	store   cache.Cache
}

// NewDropshipService creates a dropship order service. A nil clock uses
// time.Now.
func NewDropshipService(source keystone.CatalogSource, store cache.Cache, now ratelimit.Clock) *DropshipService {
	return &DropshipService{
		source:  source,
		limiter: ratelimit.New(store, dropshipLimiterKey, DropshipCooldown, now),
		store:   store,
	}
}

// PlaceOrder validates and submits a dropship order. Validation failures
// name the offending field and are rejected before any network call; an
// active cooldown returns a structured rate-limited result.
func (s *DropshipService) PlaceOrder(ctx context.Context, req *model.DropshipOrderRequest) (*DropshipResult, error) {
	if err := validateOrder(req); err != nil {
		return nil, err
	}

	if !s.limiter.Allowed() {
		return &DropshipResult{
			IsRateLimited:    true,
			RateLimitMessage: s.limiter.RemainingMessage(),
			RemainingSeconds: s.limiter.RemainingSeconds(),
		}, nil
	}

	if req.OrderReference == "" {
		req.OrderReference = uid.New()
	}

	order, err := s.source.PlaceDropshipOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	s.limiter.Record()
	s.appendHistory(ctx, dropshipHistoryEntry{
		OrderReference:  req.OrderReference,
		KeystoneOrderID: order.KeystoneOrderID,
		TotalValue:      order.TotalValue,
		PlacedAt:        time.Now(),
	})

	return &DropshipResult{Order: order}, nil
}

// validateOrder checks required fields, reporting the first missing one.
func validateOrder(req *model.DropshipOrderRequest) error {
	if req == nil {
		return &ValidationError{Field: "request"}
	}
	if req.Customer.Name == "" {
		return &ValidationError{Field: "customerInfo.name"}
	}
	if req.Customer.Email == "" {
		return &ValidationError{Field: "customerInfo.email"}
	}
	if err := validateAddress("shippingAddress", &req.ShippingAddress); err != nil {
		return err
	}
	if err := validateAddress("billingAddress", &req.BillingAddress); err != nil {
		return err
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items"}
	}
	for i, line := range req.Items {
		if line.VCPN == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].vcpn", i)}
		}
		if line.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i)}
		}
	}
	if req.ShippingMethod == "" {
		return &ValidationError{Field: "shippingMethod"}
	}
	return nil
}

func validateAddress(prefix string, addr *model.Address) error {
	if addr.Line1 == "" {
		return &ValidationError{Field: prefix + ".line1"}
	}
	if addr.City == "" {
		return &ValidationError{Field: prefix + ".city"}
	}
	if addr.State == "" {
		return &ValidationError{Field: prefix + ".state"}
	}
	if addr.ZipCode == "" {
		return &ValidationError{Field: prefix + ".zipCode"}
	}
	return nil
}

// appendHistory persists one order record. Failures are logged, never
// surfaced.
func (s *DropshipService) appendHistory(ctx context.Context, entry dropshipHistoryEntry) {
	var entries []dropshipHistoryEntry
	if data, err := s.store.Get(ctx, dropshipHistoryKey); err == nil {
		_ = json.Unmarshal(data, &entries)
	}
	entries = append(entries, entry)
	if len(entries) > maxHistory {
		entries = entries[len(entries)-maxHistory:]
	}
	data, err := json.Marshal(entries)
	if err != nil {
		log.Printf("[DropshipService] Failed to serialize history: %v", err)
		return
	}
	if err := s.store.Set(ctx, dropshipHistoryKey, data, 0); err != nil {
		log.Printf("[DropshipService] Failed to persist history: %v", err)
	}
}
