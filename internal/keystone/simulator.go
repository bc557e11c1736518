package keystone

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"partshub-api/internal/model"
)

// Simulator synthesizes plausible catalog data so the rest of the system
// stays exercisable without Keystone credentials. Part numbers are stable
// across calls so repeated syncs exercise the upsert path; prices and
// availability are randomized.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var simBrands = []string{"ACDelco", "Bosch", "Denso", "Moog", "Monroe", "Gates", "Dorman", "Wagner"}

var simCategories = []struct {
	category string
	sub      string
	name     string
}{
	{"Brakes", "Pads", "Ceramic Brake Pad Set"},
	{"Brakes", "Rotors", "Disc Brake Rotor"},
	{"Suspension", "Shocks", "Gas Shock Absorber"},
	{"Suspension", "Control Arms", "Lower Control Arm"},
	{"Engine", "Filters", "Engine Oil Filter"},
	{"Engine", "Belts", "Serpentine Belt"},
	{"Electrical", "Ignition", "Iridium Spark Plug"},
	{"Electrical", "Sensors", "Oxygen Sensor"},
	{"Cooling", "Radiators", "Aluminum Radiator"},
	{"Exhaust", "Mufflers", "Performance Muffler"},
}

// NewSimulator creates a simulated catalog source. A zero seed uses the
// current time.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// FetchBulkInventory synthesizes limit catalog items.
func (s *Simulator) FetchBulkInventory(ctx context.Context, limit int) ([]model.InventoryItem, error) {
	if limit <= 0 {
		return []model.InventoryItem{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.InventoryItem, 0, limit)
	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			return []model.InventoryItem{}, nil
		}
		items = append(items, s.makeItem(i))
	}
	return items, nil
}

// FetchBulkPricing synthesizes pricing for the requested parts. The same
// VCPN cap as the live client applies.
func (s *Simulator) FetchBulkPricing(ctx context.Context, vcpns []string, includeAvailability bool) ([]model.PriceResult, error) {
	if len(vcpns) > MaxBulkPricingVCPNs {
		return nil, ErrTooManyVCPNs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]model.PriceResult, 0, len(vcpns))
	for _, vcpn := range vcpns {
		cost := roundCents(5 + s.rng.Float64()*295)
		pr := model.PriceResult{
			VCPN:      vcpn,
			Cost:      cost,
			ListPrice: roundCents(cost * (1.2 + s.rng.Float64()*0.6)),
		}
		if includeAvailability {
			pr.Availability = s.rng.Intn(200)
		}
		results = append(results, pr)
	}
	return results, nil
}

// FetchSinglePart synthesizes one item for the given VCPN.
func (s *Simulator) FetchSinglePart(ctx context.Context, vcpn string) (*model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.makeItem(s.rng.Intn(len(simCategories) * 100))
	item.KeystoneVCPN = vcpn
	item.SKU = vcpn
	return &item, nil
}

// PlaceDropshipOrder synthesizes an order confirmation.
func (s *Simulator) PlaceDropshipOrder(ctx context.Context, req *model.DropshipOrderRequest) (*model.DropshipOrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, line := range req.Items {
		total += roundCents(10+s.rng.Float64()*190) * float64(line.Quantity)
	}
	return &model.DropshipOrderResult{
		KeystoneOrderID:       fmt.Sprintf("SIM-%08d", s.rng.Intn(100000000)),
		TotalValue:            roundCents(total),
		EstimatedShipping:     roundCents(8 + s.rng.Float64()*30),
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, 3+s.rng.Intn(5)),
		TrackingInfo:          "pending",
	}, nil
}

// makeItem builds the item for slot i. Identity fields are derived from i
// so repeated fetches return the same part numbers.
func (s *Simulator) makeItem(i int) model.InventoryItem {
	cat := simCategories[i%len(simCategories)]
	cost := roundCents(5 + s.rng.Float64()*295)
	now := time.Now()
	return model.InventoryItem{
		KeystoneVCPN: fmt.Sprintf("SIM%06d", i+1),
		SKU:          fmt.Sprintf("PH-%06d", i+1),
		Name:         cat.name,
		Description:  fmt.Sprintf("%s (simulated catalog entry)", cat.name),
		Brand:        simBrands[i%len(simBrands)],
		Supplier:     "Keystone",
		Category:     cat.category,
		Subcategory:  cat.sub,
		Cost:         cost,
		ListPrice:    roundCents(cost * (1.2 + s.rng.Float64()*0.6)),
		Quantity:     s.rng.Intn(200),
		Weight:       roundCents(0.5 + s.rng.Float64()*40),
		Status:       model.ItemStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func roundCents(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// Ensure Simulator implements CatalogSource
var _ CatalogSource = (*Simulator)(nil)
