// Package registry talks to the external registry store that owns item
// persistence and claim state. This service only ever appends to it.
package registry

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/nestlist/wishlist-scraper/config"
	"github.com/nestlist/wishlist-scraper/models"
)

// Store is the narrow surface the import bridge needs from the external
// registry: insert a batch of new items, receive their assigned
// identities.
type Store interface {
	InsertBatch(ctx context.Context, items []*models.ScrapedItem) ([]*models.RegistryItem, error)
}

// insertRow is the wire shape of one new registry row. Claimed is always
// false on import; the store owns all later claim transitions.
type insertRow struct {
	Name     string          `json:"name"`
	Price    float64         `json:"price"`
	Category models.Category `json:"category"`
	Retailer string          `json:"retailer"`
	Link     string          `json:"link"`
	Image    *string         `json:"image"`
	Claimed  bool            `json:"claimed"`
}

// Client implements Store against the registry's REST endpoint.
type Client struct {
	http *resty.Client
	url  string
}

// NewClient builds a store client from cfg. The service key is attached
// to every request when configured.
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetTimeout(cfg.FetchTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation")
	if cfg.RegistryKey != "" {
		client.SetHeader("apikey", cfg.RegistryKey)
		client.SetHeader("Authorization", "Bearer "+cfg.RegistryKey)
	}
	return &Client{http: client, url: cfg.RegistryURL}
}

// InsertBatch submits items as one batch-insert call and returns the rows
// the store created. The store gives no partial-success contract: on
// error a prefix of the batch may still have been persisted, and callers
// must surface that possibility rather than hide it.
func (c *Client) InsertBatch(ctx context.Context, items []*models.ScrapedItem) ([]*models.RegistryItem, error) {
	if c.url == "" {
		return nil, fmt.Errorf("registry store URL not configured")
	}
	if len(items) == 0 {
		return nil, nil
	}

	rows := make([]insertRow, 0, len(items))
	for _, item := range items {
		row := insertRow{
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Retailer: item.Retailer,
			Link:     item.Link,
			Claimed:  false,
		}
		if item.Image != "" {
			image := item.Image
			row.Image = &image
		}
		rows = append(rows, row)
	}

	var created []*models.RegistryItem
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rows).
		SetResult(&created).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("registry batch insert: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("registry batch insert: status %d: %s", resp.StatusCode(), resp.String())
	}
	return created, nil
}
