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
)

// PriceCheckCooldown is the window between bulk price checks. Keystone
// meters pricing lookups, so checks are deliberately infrequent.
const PriceCheckCooldown = 1 * time.Hour

const (
	priceLimiterKey = "pricecheck:ratelimit"
	priceHistoryKey = "pricecheck:history"
	maxHistory      = 50
)

// PriceCheckResult is the outcome of one CheckPrices call. A rate-limited
// call is not an error: callers get the remaining wait so the UI can
// render a countdown.
type PriceCheckResult struct {
	IsRateLimited    bool                `json:"is_rate_limited"`
	RateLimitMessage string              `json:"rate_limit_message,omitempty"`
	RemainingSeconds int                 `json:"remaining_seconds,omitempty"`
	Results          []model.PriceResult `json:"results"`
	CheckedAt        time.Time           `json:"checked_at"`
}

// PriceCheckEntry is one persisted history record.
type PriceCheckEntry struct {
	VCPNs     []string  `json:"vcpns"`
	Count     int       `json:"count"`
	CheckedAt time.Time `json:"checked_at"`
}

// PriceCheckService performs rate-limited bulk price lookups against the
// Keystone catalog.
type PriceCheckService struct {
	source  keystone.CatalogSource
	limiter *ratelimit.Limiter
	store   cache.Cache
}

// NewPriceCheckService creates a price check service. The limiter state
// and check history persist in store. A nil clock uses time.Now.
func NewPriceCheckService(source keystone.CatalogSource, store cache.Cache, now ratelimit.Clock) *PriceCheckService {
	return &PriceCheckService{
		source:  source,
		limiter: ratelimit.New(store, priceLimiterKey, PriceCheckCooldown, now),
		store:   store,
	}
}

// CheckPrices fetches pricing for up to keystone.MaxBulkPricingVCPNs
// parts. Validation failures return an error before any network call;
// an active cooldown returns a structured rate-limited result instead.
func (s *PriceCheckService) CheckPrices(ctx context.Context, vcpns []string, includeAvailability bool) (*PriceCheckResult, error) {
	if len(vcpns) == 0 {
		return nil, fmt.Errorf("at least one VCPN is required")
	}
	if len(vcpns) > keystone.MaxBulkPricingVCPNs {
		return nil, keystone.ErrTooManyVCPNs
	}

	if !s.limiter.Allowed() {
		return &PriceCheckResult{
			IsRateLimited:    true,
			RateLimitMessage: s.limiter.RemainingMessage(),
			RemainingSeconds: s.limiter.RemainingSeconds(),
			Results:          []model.PriceResult{},
		}, nil
	}

	results, err := s.source.FetchBulkPricing(ctx, vcpns, includeAvailability)
	if err != nil {
		return nil, err
	}

	s.limiter.Record()
	checkedAt := time.Now()
	s.appendHistory(ctx, PriceCheckEntry{VCPNs: vcpns, Count: len(results), CheckedAt: checkedAt})

	return &PriceCheckResult{Results: results, CheckedAt: checkedAt}, nil
}

// History returns the persisted check history, newest last.
func (s *PriceCheckService) History(ctx context.Context) ([]PriceCheckEntry, error) {
	data, err := s.store.Get(ctx, priceHistoryKey)
	if err == cache.ErrCacheMiss {
		return []PriceCheckEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []PriceCheckEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// appendHistory persists one check record, keeping the newest maxHistory
// entries. History failures are logged, never surfaced.
func (s *PriceCheckService) appendHistory(ctx context.Context, entry PriceCheckEntry) {
	entries, err := s.History(ctx)
	if err != nil {
		log.Printf("[PriceCheckService] Failed to load history: %v", err)
		entries = nil
	}
	entries = append(entries, entry)
	if len(entries) > maxHistory {
		entries = entries[len(entries)-maxHistory:]
	}
	data, err := json.Marshal(entries)
	if err != nil {
		log.Printf("[PriceCheckService] Failed to serialize history: %v", err)
		return
	}
	if err := s.store.Set(ctx, priceHistoryKey, data, 0); err != nil {
		log.Printf("[PriceCheckService] Failed to persist history: %v", err)
	}
}
