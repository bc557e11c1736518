package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"partshub-api/internal/cache"
	"partshub-api/internal/model"
)

func validOrder() *model.DropshipOrderRequest {
	return &model.DropshipOrderRequest{
		Customer: model.CustomerInfo{Name: "Pat's Garage", Email: "pat@example.com"},
		ShippingAddress: model.Address{
			Line1: "100 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		},
		BillingAddress: model.Address{
			Line1: "100 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		},
		Items:          []model.OrderItem{{VCPN: "VCPN0001", Quantity: 2}},
		ShippingMethod: "ground",
	}
}

func TestPlaceOrderSucceeds(t *testing.T) {
	source := &fakeSource{}
	svc := NewDropshipService(source, cache.NewMemoryCache(), newTestClock().Now)

	result, err := svc.PlaceOrder(context.Background(), validOrder())
	if err != nil {
		t.Fatal(err)
	}
	if result.IsRateLimited {
		t.Error("first order should not be rate limited")
	}
	if result.Order == nil || result.Order.KeystoneOrderID == "" {
		t.Error("result should carry the distributor confirmation")
	}
	if source.orderCalls != 1 {
		t.Errorf("orderCalls = %d, want 1", source.orderCalls)
	}
}

func TestPlaceOrderAssignsReference(t *testing.T) {
	svc := NewDropshipService(&fakeSource{}, cache.NewMemoryCache(), newTestClock().Now)

	req := validOrder()
	if _, err := svc.PlaceOrder(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if req.OrderReference == "" {
		t.Error("an order without a reference should be assigned one")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.DropshipOrderRequest)
		wantField string
	}{
		{"missing customer name", func(r *model.DropshipOrderRequest) { r.Customer.Name = "" }, "customerInfo.name"},
		{"missing customer email", func(r *model.DropshipOrderRequest) { r.Customer.Email = "" }, "customerInfo.email"},
		{"missing shipping line1", func(r *model.DropshipOrderRequest) { r.ShippingAddress.Line1 = "" }, "shippingAddress.line1"},
		{"missing shipping zip", func(r *model.DropshipOrderRequest) { r.ShippingAddress.ZipCode = "" }, "shippingAddress.zipCode"},
		{"missing billing city", func(r *model.DropshipOrderRequest) { r.BillingAddress.City = "" }, "billingAddress.city"},
		{"no items", func(r *model.DropshipOrderRequest) { r.Items = nil }, "items"},
		{"item without vcpn", func(r *model.DropshipOrderRequest) { r.Items[0].VCPN = "" }, "items[0].vcpn"},
		{"zero quantity", func(r *model.DropshipOrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"missing shipping method", func(r *model.DropshipOrderRequest) { r.ShippingMethod = "" }, "shippingMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{}
			svc := NewDropshipService(source, cache.NewMemoryCache(), newTestClock().Now)

			req := validOrder()
			tt.mutate(req)

			_, err := svc.PlaceOrder(context.Background(), req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
			if source.orderCalls != 0 {
				t.Error("validation failures must not reach the distributor")
			}
		})
	}
}

func TestPlaceOrderRateLimited(t *testing.T) {
	clock := newTestClock()
	source := &fakeSource{}
	svc := NewDropshipService(source, cache.NewMemoryCache(), clock.Now)

	if _, err := svc.PlaceOrder(context.Background(), validOrder()); err != nil {
		t.Fatal(err)
	}

	// A second order inside the two-minute window is held back.
	clock.Advance(30 * time.Second)
	result, err := svc.PlaceOrder(context.Background(), validOrder())
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsRateLimited {
		t.Fatal("second order within the window should be rate limited")
	}
	if result.Order != nil {
		t.Error("rate-limited result should carry no order")
	}
	if source.orderCalls != 1 {
		t.Errorf("orderCalls = %d, want 1 (blocked order must not be submitted)", source.orderCalls)
	}

	clock.Advance(2 * time.Minute)
	result, err = svc.PlaceOrder(context.Background(), validOrder())
	if err != nil {
		t.Fatal(err)
	}
	if result.IsRateLimited {
		t.Error("order after the window should go through")
	}
}
