package keystone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"partshub-api/internal/model"
)

// Client issues authenticated requests to the Keystone proxy.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// fallback, when set, serves synthesized data on network failure.
	// Only wired in non-production environments.
	fallback CatalogSource
}

// NewClient creates a live Keystone catalog client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchBulkInventory retrieves up to limit catalog items.
// Cancellation via ctx is treated as a clean empty result.
func (c *Client) FetchBulkInventory(ctx context.Context, limit int) ([]model.InventoryItem, error) {
	endpoint := fmt.Sprintf("%s/inventory?%s", c.baseURL,
		url.Values{"limit": {strconv.Itoa(limit)}}.Encode())

	var items []model.InventoryItem
	err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &items)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return []model.InventoryItem{}, nil
		}
		if c.fallback != nil {
			log.Printf("[KeystoneClient] Bulk inventory fetch failed, using simulated data: %v", err)
			return c.fallback.FetchBulkInventory(ctx, limit)
		}
		return nil, fmt.Errorf("bulk inventory fetch failed: %w", err)
	}
	return items, nil
}

// bulkPricingRequest is the proxy's bulk pricing payload.
type bulkPricingRequest struct {
	VCPNs               []string `json:"vcpns"`
	IncludeAvailability bool     `json:"includeAvailability"`
}

// FetchBulkPricing retrieves pricing for up to MaxBulkPricingVCPNs parts.
func (c *Client) FetchBulkPricing(ctx context.Context, vcpns []string, includeAvailability bool) ([]model.PriceResult, error) {
	if len(vcpns) == 0 {
		return []model.PriceResult{}, nil
	}
	if len(vcpns) > MaxBulkPricingVCPNs {
		return nil, ErrTooManyVCPNs
	}

	endpoint := c.baseURL + "/pricing/bulk"
	body := bulkPricingRequest{VCPNs: vcpns, IncludeAvailability: includeAvailability}

	var results []model.PriceResult
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &results); err != nil {
		if c.fallback != nil {
			log.Printf("[KeystoneClient] Bulk pricing fetch failed, using simulated data: %v", err)
			return c.fallback.FetchBulkPricing(ctx, vcpns, includeAvailability)
		}
		return nil, fmt.Errorf("bulk pricing fetch failed: %w", err)
	}
	return results, nil
}

// FetchSinglePart retrieves one item by VCPN. Returns nil, nil when the
// part is unknown to the distributor.
func (c *Client) FetchSinglePart(ctx context.Context, vcpn string) (*model.InventoryItem, error) {
	endpoint := fmt.Sprintf("%s/inventory/%s", c.baseURL, url.PathEscape(vcpn))

	var item model.InventoryItem
	err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &item)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if c.fallback != nil {
			log.Printf("[KeystoneClient] Single part fetch failed, using simulated data: %v", err)
			return c.fallback.FetchSinglePart(ctx, vcpn)
		}
		return nil, fmt.Errorf("single part fetch failed: %w", err)
	}
	return &item, nil
}

// PlaceDropshipOrder submits a dropship order. Order placement never
// degrades to simulated data; a failed order must surface as a failure.
func (c *Client) PlaceDropshipOrder(ctx context.Context, req *model.DropshipOrderRequest) (*model.DropshipOrderResult, error) {
	endpoint := c.baseURL + "/orders/place-dropship"

	var result model.DropshipOrderResult
	if err := c.doRequest(ctx, http.MethodPost, endpoint, req, &result); err != nil {
		return nil, fmt.Errorf("dropship order placement failed: %w", err)
	}
	return &result, nil
}

// APIError is a non-2xx response from the proxy.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// doRequest issues one authenticated request and decodes the JSON
// response into out. Non-2xx responses are parsed as JSON error bodies
// when possible, else reported as "HTTP <status>: <statusText>".
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorBody(resp),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorBody extracts an error message from a non-2xx response.
func parseErrorBody(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			if errBody.Error != "" {
				return errBody.Error
			}
			if errBody.Message != "" {
				return errBody.Message
			}
		}
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// Ensure Client implements CatalogSource
var _ CatalogSource = (*Client)(nil)
