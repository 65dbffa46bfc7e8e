// Package partner is the HTTP client for the external reward fulfillment
// provider.
package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"questhub/internal/models"
)

const defaultTimeout = 10 * time.Second

// Client talks to the partner's REST API. A zero BaseURL means no partner
// is configured; callers should treat lookups as unavailable.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// CatalogItem is a partner catalog entry for a sku reward.
type CatalogItem struct {
	SKUID    string `json:"sku_id"`
	Name     string `json:"name"`
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
	Active   bool   `json:"active"`
}

// Participant is the partner's view of an enrolled user.
type Participant struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// NewClient creates a partner API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Configured reports whether a partner endpoint is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// CatalogItemValue fetches the current catalog value for a sku, in minor
// currency units.
func (c *Client) CatalogItemValue(ctx context.Context, skuID string) (int64, error) {
	item, err := c.GetCatalogItem(ctx, skuID)
	if err != nil {
		return 0, err
	}
	if !item.Active {
		return 0, models.NewExternalIntegrationError(fmt.Sprintf("catalog item %s is inactive", skuID), nil)
	}
	return item.Value, nil
}

// GetCatalogItem fetches one catalog entry by sku.
func (c *Client) GetCatalogItem(ctx context.Context, skuID string) (*CatalogItem, error) {
	var item CatalogItem
	if err := c.get(ctx, "/v1/catalog/"+skuID, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetParticipant fetches the partner-side record for a user, keyed by our
// user ID.
func (c *Client) GetParticipant(ctx context.Context, userID uint) (*Participant, error) {
	var p Participant
	if err := c.get(ctx, fmt.Sprintf("/v1/participants/%d", userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if !c.Configured() {
		return models.NewExternalIntegrationError("no partner API configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewExternalIntegrationError("partner API unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.NewExternalIntegrationError(fmt.Sprintf("partner API returned 404 for %s", path), nil)
	case resp.StatusCode >= 300:
		return models.NewExternalIntegrationError(fmt.Sprintf("partner API error: %s", resp.Status), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewExternalIntegrationError("partner API returned malformed JSON", err)
	}
	return nil
}
