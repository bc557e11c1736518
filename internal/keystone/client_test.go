package keystone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"partshub-api/internal/model"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode([]model.InventoryItem{})
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret-token")
	if _, err := c.FetchBulkInventory(context.Background(), 10); err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer token", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestFetchBulkInventoryPassesLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "250" {
			t.Errorf("limit = %q, want 250", got)
		}
		json.NewEncoder(w).Encode([]model.InventoryItem{
			{KeystoneVCPN: "K1", SKU: "S1", Name: "Part one"},
			{KeystoneVCPN: "K2", SKU: "S2", Name: "Part two"},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	items, err := c.FetchBulkInventory(context.Background(), 250)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}

func TestFetchBulkInventoryCancelledIsClean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, "tok")
	items, err := c.FetchBulkInventory(ctx, 10)
	if err != nil {
		t.Fatalf("cancellation should be a clean empty result, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestFetchBulkPricingEnforcesCap(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req bulkPricingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		results := make([]model.PriceResult, len(req.VCPNs))
		for i, vcpn := range req.VCPNs {
			results[i] = model.PriceResult{VCPN: vcpn, Cost: 5}
		}
		json.NewEncoder(w).Encode(results)
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")

	vcpns := make([]string, MaxBulkPricingVCPNs+1)
	for i := range vcpns {
		vcpns[i] = fmt.Sprintf("K%d", i)
	}
	if _, err := c.FetchBulkPricing(context.Background(), vcpns, false); !errors.Is(err, ErrTooManyVCPNs) {
		t.Errorf("error = %v, want ErrTooManyVCPNs", err)
	}
	if calls != 0 {
		t.Error("over-cap request must not reach the proxy")
	}

	results, err := c.FetchBulkPricing(context.Background(), vcpns[:MaxBulkPricingVCPNs], true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != MaxBulkPricingVCPNs {
		t.Errorf("results = %d, want %d", len(results), MaxBulkPricingVCPNs)
	}
}

func TestFetchSinglePartNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "part not found"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	item, err := c.FetchSinglePart(context.Background(), "MISSING")
	if err != nil {
		t.Fatalf("404 should map to nil, nil, got %v", err)
	}
	if item != nil {
		t.Errorf("item = %+v, want nil", item)
	}
}

func TestErrorBodyParsing(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusBadGateway, `{"error":"proxy timeout upstream"}`, "proxy timeout upstream"},
		{"message field", http.StatusBadRequest, `{"message":"bad vcpn format"}`, "bad vcpn format"},
		{"non-json body", http.StatusInternalServerError, "boom", "HTTP 500: Internal Server Error"},
		{"empty body", http.StatusServiceUnavailable, "", "HTTP 503: Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, "tok")
			_, err := c.PlaceDropshipOrder(context.Background(), &model.DropshipOrderRequest{})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClientFallsBackToSimulator(t *testing.T) {
	// An unreachable proxy with a fallback serves simulated data.
	c := NewClient("http://127.0.0.1:1", "tok")
	c.fallback = NewSimulator(1)

	items, err := c.FetchBulkInventory(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 5 {
		t.Errorf("items = %d, want 5 from the simulator", len(items))
	}
}

func TestOrderPlacementNeverFallsBack(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "tok")
	c.fallback = NewSimulator(1)

	if _, err := c.PlaceDropshipOrder(context.Background(), &model.DropshipOrderRequest{}); err == nil {
		t.Error("order placement against an unreachable proxy must fail, not simulate")
	}
}

func TestSimulatorIsStableAcrossRuns(t *testing.T) {
	a, err := NewSimulator(42).FetchBulkInventory(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSimulator(42).FetchBulkInventory(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].KeystoneVCPN != b[i].KeystoneVCPN || a[i].SKU != b[i].SKU {
			t.Errorf("item %d identity differs: %s/%s vs %s/%s",
				i, a[i].KeystoneVCPN, a[i].SKU, b[i].KeystoneVCPN, b[i].SKU)
		}
	}
}

func TestNewSourceSelection(t *testing.T) {
	// Missing credentials: simulator in development, error in production.
	source, err := NewSource(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := source.(*Simulator); !ok {
		t.Errorf("source = %T, want *Simulator", source)
	}

	if _, err := NewSource(Config{Production: true}); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}

	// Full credentials select the live client.
	source, err = NewSource(Config{ProxyURL: "http://proxy", Token: "tok", Production: true})
	if err != nil {
		t.Fatal(err)
	}
	client, ok := source.(*Client)
	if !ok {
		t.Fatalf("source = %T, want *Client", source)
	}
	if client.fallback != nil {
		t.Error("production client must not carry a simulator fallback")
	}
}
